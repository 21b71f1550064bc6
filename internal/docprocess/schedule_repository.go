package docprocess

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/db/types"
)

// ScheduleRepository persists the extracted payment schedule lines. Each
// quote file owns at most one schedule record, replaced on reprocessing.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *ScheduleRepository) WithTx(tx *gorm.DB) *ScheduleRepository {
	if tx == nil {
		return r
	}
	return &ScheduleRepository{db: tx}
}

// Upsert replaces the file's schedule lines, creating the record on first
// processing.
func (r *ScheduleRepository) Upsert(ctx context.Context, fileID uuid.UUID, lines types.ScheduleLines) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ScheduleData
		err := tx.First(&existing, "quote_file_id = ?", fileID).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			record := models.ScheduleData{
				ID:          uuid.New(),
				QuoteFileID: fileID,
				Value:       lines,
			}
			return tx.Create(&record).Error
		}
		return tx.Model(&models.ScheduleData{}).
			Where("id = ?", existing.ID).
			Update("value", lines).Error
	})
}

// FindByFileID loads the file's schedule record, or nil when absent.
func (r *ScheduleRepository) FindByFileID(ctx context.Context, fileID uuid.UUID) (*models.ScheduleData, error) {
	var record models.ScheduleData
	err := r.db.WithContext(ctx).First(&record, "quote_file_id = ?", fileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

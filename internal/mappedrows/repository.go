package mappedrows

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
)

const insertBatchSize = 100

// Repository exposes persistence operations for mapped rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ReplaceAll swaps the (file, version) pair's mapped rows in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, fileID, versionID uuid.UUID, rows []models.MappedRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("quote_file_id = ? AND quote_version_id = ?", fileID, versionID).
			Delete(&models.MappedRow{}).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}

// ListByVersion returns the version's rows in insertion order.
func (r *Repository) ListByVersion(ctx context.Context, versionID uuid.UUID, offset, limit int) ([]models.MappedRow, error) {
	var rows []models.MappedRow
	query := r.db.WithContext(ctx).
		Where("quote_version_id = ?", versionID).
		Order("created_at").
		Order("id")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}

// UpdateSelection flips is_selected for the given rows of a version.
func (r *Repository) UpdateSelection(ctx context.Context, versionID uuid.UUID, rowIDs []uuid.UUID, selected bool) error {
	if len(rowIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.MappedRow{}).
		Where("quote_version_id = ? AND id IN ?", versionID, rowIDs).
		Update("is_selected", selected).Error
}

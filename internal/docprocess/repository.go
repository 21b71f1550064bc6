package docprocess

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/enums"
)

// Repository exposes persistence operations for quote files moving through
// the processing pipeline.
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

// FindFile loads a quote file by id, or nil when absent.
func (r *Repository) FindFile(ctx context.Context, id uuid.UUID) (*models.QuoteFile, error) {
	var file models.QuoteFile
	err := r.db.WithContext(ctx).First(&file, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

// ClaimQueued moves up to limit queued files into the processing state and
// returns them. The select and state flip run in one transaction so two
// workers polling concurrently cannot claim the same file.
func (r *Repository) ClaimQueued(ctx context.Context, limit int) ([]models.QuoteFile, error) {
	if limit <= 0 {
		limit = 10
	}

	var claimed []models.QuoteFile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("state = ?", enums.QuoteFileStateQueued).
			Order("created_at").
			Order("id").
			Limit(limit).
			Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(claimed))
		for i := range claimed {
			ids = append(ids, claimed[i].ID)
			claimed[i].State = enums.QuoteFileStateProcessing
		}
		return tx.Model(&models.QuoteFile{}).
			Where("id IN ?", ids).
			Update("state", enums.QuoteFileStateProcessing).Error
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// UpdateState sets the file's pipeline state.
func (r *Repository) UpdateState(ctx context.Context, id uuid.UUID, state enums.QuoteFileState) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteFile{}).
		Where("id = ?", id).
		Update("state", state).Error
}

// SetException records a processing failure and moves the file into the
// exception state. Re-submission with a new page or separator clears it.
func (r *Repository) SetException(ctx context.Context, id uuid.UUID, code, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteFile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"state":             enums.QuoteFileStateException,
			"exception_code":    code,
			"exception_message": message,
		}).Error
}

// ClearException nulls the exception fields ahead of a reprocessing run.
func (r *Repository) ClearException(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteFile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"exception_code":    nil,
			"exception_message": nil,
		}).Error
}

// MarkHandled stamps the file's terminal success state.
func (r *Repository) MarkHandled(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteFile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"state":      enums.QuoteFileStateHandled,
			"handled_at": at,
		}).Error
}

// MarkAutomapped records when field-column mappings were derived from the
// file's own headers.
func (r *Repository) MarkAutomapped(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteFile{}).
		Where("id = ?", id).
		Update("automapped_at", at).Error
}

// UpdateImportedPage moves the file's page cursor.
func (r *Repository) UpdateImportedPage(ctx context.Context, id uuid.UUID, page int) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteFile{}).
		Where("id = ?", id).
		Update("imported_page", page).Error
}

// UpdateSeparator records the caller-chosen CSV separator.
func (r *Repository) UpdateSeparator(ctx context.Context, id uuid.UUID, separator string) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteFile{}).
		Where("id = ?", id).
		Update("data_select_separator", separator).Error
}

package ingest

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
)

const insertBatchSize = 100

// Repository exposes persistence operations for imported rows.
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

// ReplaceAll hard-deletes the file's rows and bulk inserts the new set in a
// single transaction, preserving insertion order.
func (r *Repository) ReplaceAll(ctx context.Context, fileID uuid.UUID, rows []models.ImportedRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_file_id = ?", fileID).Delete(&models.ImportedRow{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}

// FindPage returns the file's rows from the given page onward in insertion
// order, windowed for chunked iteration.
func (r *Repository) FindPage(ctx context.Context, fileID uuid.UUID, fromPage, offset, limit int) ([]models.ImportedRow, error) {
	var rows []models.ImportedRow
	err := r.db.WithContext(ctx).
		Where("quote_file_id = ? AND page >= ?", fileID, fromPage).
		Order("page").
		Order("created_at").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CountFrom reports how many rows the file has from the given page onward.
func (r *Repository) CountFrom(ctx context.Context, fileID uuid.UUID, fromPage int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ImportedRow{}).
		Where("quote_file_id = ? AND page >= ?", fileID, fromPage).
		Count(&count).Error
	return count, err
}

// FirstRow returns the first available row from the given page onward, or nil.
func (r *Repository) FirstRow(ctx context.Context, fileID uuid.UUID, fromPage int) (*models.ImportedRow, error) {
	rows, err := r.FindPage(ctx, fileID, fromPage, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ReferencedColumnIDs extracts the distinct importable column ids referenced
// by any imported row. Used by the temp-column purge job.
func (r *Repository) ReferencedColumnIDs(ctx context.Context) ([]uuid.UUID, error) {
	var rows []models.ImportedRow
	if err := r.db.WithContext(ctx).Select("columns_data").Find(&rows).Error; err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, row := range rows {
		for _, cell := range row.ColumnsData {
			if _, ok := seen[cell.ImportableColumnID]; ok {
				continue
			}
			seen[cell.ImportableColumnID] = struct{}{}
			ids = append(ids, cell.ImportableColumnID)
		}
	}
	return ids, nil
}

package columns

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
)

// Repository exposes persistence operations for importable columns and their
// aliases.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a columns repository bound to the provided DB.
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

// FindByAlias resolves a normalized alias to its best-ranked column. Columns
// whose ids appear in excluded are skipped so one header cannot claim a
// column twice within a single page. System columns rank above temp columns.
func (r *Repository) FindByAlias(ctx context.Context, alias string, excluded []uuid.UUID) (*models.ImportableColumn, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ImportableColumn{}).
		Joins("JOIN importable_column_aliases ON importable_column_aliases.importable_column_id = importable_columns.id").
		Where("importable_column_aliases.alias = ?", alias)

	if len(excluded) > 0 {
		query = query.Where("importable_columns.id NOT IN ?", excluded)
	}

	var column models.ImportableColumn
	err := query.
		Order("importable_columns.is_system DESC").
		Order("importable_columns.is_temp ASC").
		Order("importable_columns.id").
		First(&column).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &column, nil
}

// CreateTemp inserts a temp column together with its alias. The unique index
// on the alias makes concurrent creation of the same header fail loudly so
// the resolver can retry the lookup.
func (r *Repository) CreateTemp(ctx context.Context, header, name, alias string) (*models.ImportableColumn, error) {
	column := models.ImportableColumn{
		ID:     uuid.New(),
		Header: header,
		Name:   name,
		IsTemp: true,
		Aliases: []models.ImportableColumnAlias{
			{ID: uuid.New(), Alias: alias},
		},
	}
	if err := r.db.WithContext(ctx).Create(&column).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// FindByIDs loads columns by id, skipping soft-deleted ones.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ImportableColumn, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.ImportableColumn
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error
	return rows, err
}

// DeleteOrphanedTemp soft-deletes temp columns whose ids are not referenced
// by any imported row's columns_data. Used by the maintenance cron.
func (r *Repository) DeleteOrphanedTemp(ctx context.Context, referenced []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Where("is_temp = ?", true)
	if len(referenced) > 0 {
		query = query.Where("id NOT IN ?", referenced)
	}
	res := query.Delete(&models.ImportableColumn{})
	return res.RowsAffected, res.Error
}

package quotes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/db/types"
)

// Repository exposes persistence operations for quotes and their versions.
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

// FindQuote loads a quote by id, or nil when absent.
func (r *Repository) FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).First(&quote, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &quote, nil
}

// FindVersion loads a quote version by id, or nil when absent.
func (r *Repository) FindVersion(ctx context.Context, id uuid.UUID) (*models.QuoteVersion, error) {
	var version models.QuoteVersion
	err := r.db.WithContext(ctx).First(&version, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

// ActiveVersion loads the quote's active version, or nil when none is set.
func (r *Repository) ActiveVersion(ctx context.Context, quote *models.Quote) (*models.QuoteVersion, error) {
	if quote == nil || quote.ActiveVersionID == nil {
		return nil, nil
	}
	return r.FindVersion(ctx, *quote.ActiveVersionID)
}

// CreateVersion inserts a new quote version.
func (r *Repository) CreateVersion(ctx context.Context, version *models.QuoteVersion) error {
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(version).Error
}

// SetActiveVersion points the quote at the given version.
func (r *Repository) SetActiveVersion(ctx context.Context, quoteID, versionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ?", quoteID).
		Update("active_version_id", versionID).Error
}

// UpdateGroupDescription persists the version's whole group state in one
// write. Passing nil groups clears both columns.
func (r *Repository) UpdateGroupDescription(ctx context.Context, versionID uuid.UUID, groups types.RowsGroups, sort *string) error {
	updates := map[string]any{
		"group_description":      groups,
		"sort_group_description": sort,
	}
	if groups == nil {
		updates["group_description"] = nil
	}
	return r.db.WithContext(ctx).
		Model(&models.QuoteVersion{}).
		Where("id = ?", versionID).
		Updates(updates).Error
}

// AttachPriceListFile records the file as the version's active price list.
func (r *Repository) AttachPriceListFile(ctx context.Context, versionID, fileID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteVersion{}).
		Where("id = ?", versionID).
		Update("price_list_file_id", fileID).Error
}

// AttachScheduleFile records the file as the version's active payment schedule.
func (r *Repository) AttachScheduleFile(ctx context.Context, versionID, fileID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteVersion{}).
		Where("id = ?", versionID).
		Update("schedule_file_id", fileID).Error
}

// ReplicateMappedRows copies every mapped row of the source version onto the
// target version, recording lineage in replicated_row_id. Returns the old→new
// row id translation map.
func (r *Repository) ReplicateMappedRows(ctx context.Context, sourceVersionID, targetVersionID uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	var rows []models.MappedRow
	err := r.db.WithContext(ctx).
		Where("quote_version_id = ?", sourceVersionID).
		Order("created_at").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	translation := make(map[uuid.UUID]uuid.UUID, len(rows))
	if len(rows) == 0 {
		return translation, nil
	}

	replicas := make([]models.MappedRow, 0, len(rows))
	for _, row := range rows {
		replica := row
		oldID := row.ID
		replica.ID = uuid.New()
		replica.QuoteVersionID = targetVersionID
		replica.ReplicatedRowID = &oldID
		translation[oldID] = replica.ID
		replicas = append(replicas, replica)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(replicas, 100).Error; err != nil {
		return nil, err
	}
	return translation, nil
}

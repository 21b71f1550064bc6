package docprocess

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
)

// MappingRepository persists field-column mappings and the template fields
// they bind to.
type MappingRepository struct {
	db *gorm.DB
}

func NewMappingRepository(db *gorm.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *MappingRepository) WithTx(tx *gorm.DB) *MappingRepository {
	if tx == nil {
		return r
	}
	return &MappingRepository{db: tx}
}

// ListTemplateFields returns all template fields in stable name order.
func (r *MappingRepository) ListTemplateFields(ctx context.Context) ([]models.TemplateField, error) {
	var fields []models.TemplateField
	err := r.db.WithContext(ctx).Order("name").Find(&fields).Error
	return fields, err
}

// ListMappings returns the version's field-column mappings.
func (r *MappingRepository) ListMappings(ctx context.Context, versionID uuid.UUID) ([]models.FieldColumnMapping, error) {
	var mappings []models.FieldColumnMapping
	err := r.db.WithContext(ctx).
		Where("quote_version_id = ?", versionID).
		Order("created_at").
		Order("id").
		Find(&mappings).Error
	return mappings, err
}

// ReplaceMappings swaps the version's whole mapping set in one transaction.
func (r *MappingRepository) ReplaceMappings(ctx context.Context, versionID uuid.UUID, mappings []models.FieldColumnMapping) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("quote_version_id = ?", versionID).
			Delete(&models.FieldColumnMapping{}).Error; err != nil {
			return err
		}
		if len(mappings) == 0 {
			return nil
		}
		for i := range mappings {
			if mappings[i].ID == uuid.Nil {
				mappings[i].ID = uuid.New()
			}
			mappings[i].QuoteVersionID = versionID
		}
		return tx.Create(&mappings).Error
	})
}

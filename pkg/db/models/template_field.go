package models

import (
	"time"

	"github.com/google/uuid"
)

// TemplateField is a named slot in the quote output template that imported
// columns are mapped onto (product_no, description, price, ...).
type TemplateField struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name   string    `gorm:"column:name;not null;uniqueIndex"`
	Header string    `gorm:"column:header;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// FieldColumnMapping binds a template field to an importable column for a
// specific quote version. The set is replaced during auto-mapping.
type FieldColumnMapping struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteVersionID     uuid.UUID `gorm:"column:quote_version_id;type:uuid;not null;index"`
	TemplateFieldID    uuid.UUID `gorm:"column:template_field_id;type:uuid;not null"`
	ImportableColumnID uuid.UUID `gorm:"column:importable_column_id;type:uuid;not null"`
	IsDefaultEnabled   bool      `gorm:"column:is_default_enabled;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

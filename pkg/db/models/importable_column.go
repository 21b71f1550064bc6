package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImportableColumn is a durable, deduplicated column identity shared by all
// quote files. Columns auto-created from unseen headers are flagged is_temp
// and rank below system columns during alias resolution.
type ImportableColumn struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Header   string    `gorm:"column:header;not null"`
	Name     string    `gorm:"column:name;not null"`
	IsSystem bool      `gorm:"column:is_system;not null;default:false"`
	IsTemp   bool      `gorm:"column:is_temp;not null;default:false"`

	Aliases []ImportableColumnAlias `gorm:"foreignKey:ImportableColumnID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// ImportableColumnAlias binds one normalized (trimmed, lowercased) header
// text to a column identity. The unique index on alias backs the
// create-on-first-use conflict retry.
type ImportableColumnAlias struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ImportableColumnID uuid.UUID `gorm:"column:importable_column_id;type:uuid;not null;index"`
	Alias              string    `gorm:"column:alias;not null;uniqueIndex:ux_importable_column_aliases_alias"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

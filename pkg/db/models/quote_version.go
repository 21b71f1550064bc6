package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/quotehub/quotehub-backend/pkg/db/types"
)

// QuoteVersion is one copy-on-write revision of a quote. Mapped rows, row
// groupings and field-column mappings all hang off a specific version.
//
// GroupDescription is intentionally NULL when the version was never grouped
// and reset to NULL again when the last group is deleted.
type QuoteVersion struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID       uuid.UUID `gorm:"column:quote_id;type:uuid;not null;index"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	VersionNumber int       `gorm:"column:version_number;not null;default:1"`

	GroupDescription     dbtypes.RowsGroups `gorm:"column:group_description;type:jsonb"`
	SortGroupDescription *string            `gorm:"column:sort_group_description"`

	PriceListFileID *uuid.UUID `gorm:"column:price_list_file_id;type:uuid"`
	ScheduleFileID  *uuid.UUID `gorm:"column:schedule_file_id;type:uuid"`

	FieldColumnMappings []FieldColumnMapping `gorm:"foreignKey:QuoteVersionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

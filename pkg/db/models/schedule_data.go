package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/quotehub/quotehub-backend/pkg/db/types"
)

// ScheduleData holds the payment schedule line items for one quote file,
// replaced wholesale on each reprocessing.
type ScheduleData struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteFileID uuid.UUID            `gorm:"column:quote_file_id;type:uuid;not null;uniqueIndex"`
	Value       dbtypes.ScheduleLines `gorm:"column:value;type:jsonb;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/quotehub/quotehub-backend/pkg/db/types"
)

// ImportedRow is one raw row lifted from a parsed document page. The full
// row set of a quote file is replaced wholesale on every reprocessing.
type ImportedRow struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	QuoteFileID uuid.UUID `gorm:"column:quote_file_id;type:uuid;not null;index"`
	Page        int       `gorm:"column:page;not null"`

	ColumnsData dbtypes.ColumnsData `gorm:"column:columns_data;type:jsonb;not null"`

	// IsOnePay marks single-upfront-payment lines detected by regex over
	// the flattened cell values.
	IsOnePay bool `gorm:"column:is_one_pay;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

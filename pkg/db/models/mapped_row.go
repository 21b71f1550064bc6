package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MappedRow is the typed projection of an imported row for one quote
// version, with unit conversion and pricing rules already applied.
type MappedRow struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	QuoteFileID    uuid.UUID `gorm:"column:quote_file_id;type:uuid;not null;index"`
	QuoteVersionID uuid.UUID `gorm:"column:quote_version_id;type:uuid;not null;index"`

	// ReplicatedRowID points at the ancestor row when the owning version
	// was forked, so group row-id references can be translated.
	ReplicatedRowID *uuid.UUID `gorm:"column:replicated_row_id;type:uuid;index"`

	ProductNo   *string `gorm:"column:product_no"`
	ServiceSKU  *string `gorm:"column:service_sku"`
	Description *string `gorm:"column:description"`
	SerialNo    *string `gorm:"column:serial_no"`

	DateFrom *time.Time `gorm:"column:date_from;type:date"`
	DateTo   *time.Time `gorm:"column:date_to;type:date"`

	Qty           int             `gorm:"column:qty;not null;default:1"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(16,4);not null"`
	OriginalPrice decimal.Decimal `gorm:"column:original_price;type:numeric(16,4);not null"`

	PricingDocument         *string `gorm:"column:pricing_document"`
	SystemHandle            *string `gorm:"column:system_handle"`
	Searchable              *string `gorm:"column:searchable"`
	ServiceLevelDescription *string `gorm:"column:service_level_description"`

	IsSelected bool `gorm:"column:is_selected;not null;default:false"`
	IsOnePay   bool `gorm:"column:is_one_pay;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

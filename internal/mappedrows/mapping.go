package mappedrows

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
)

// RowMapping addresses which importable column feeds each mapped-row field.
// A Nil id leaves the field unmapped.
type RowMapping struct {
	ProductNo               uuid.UUID
	ServiceSKU              uuid.UUID
	Description             uuid.UUID
	SerialNo                uuid.UUID
	DateFrom                uuid.UUID
	DateTo                  uuid.UUID
	Qty                     uuid.UUID
	Price                   uuid.UUID
	PricingDocument         uuid.UUID
	SystemHandle            uuid.UUID
	Searchable              uuid.UUID
	ServiceLevelDescription uuid.UUID
}

// BuildMapping assembles a RowMapping from the version's field-column
// mappings joined with their template fields.
func BuildMapping(mappings []models.FieldColumnMapping, fields []models.TemplateField) RowMapping {
	byID := make(map[uuid.UUID]string, len(fields))
	for _, field := range fields {
		byID[field.ID] = field.Name
	}

	var m RowMapping
	for _, mapping := range mappings {
		switch byID[mapping.TemplateFieldID] {
		case "product_no":
			m.ProductNo = mapping.ImportableColumnID
		case "service_sku":
			m.ServiceSKU = mapping.ImportableColumnID
		case "description":
			m.Description = mapping.ImportableColumnID
		case "serial_no":
			m.SerialNo = mapping.ImportableColumnID
		case "date_from":
			m.DateFrom = mapping.ImportableColumnID
		case "date_to":
			m.DateTo = mapping.ImportableColumnID
		case "qty":
			m.Qty = mapping.ImportableColumnID
		case "price":
			m.Price = mapping.ImportableColumnID
		case "pricing_document":
			m.PricingDocument = mapping.ImportableColumnID
		case "system_handle":
			m.SystemHandle = mapping.ImportableColumnID
		case "searchable":
			m.Searchable = mapping.ImportableColumnID
		case "service_level_description":
			m.ServiceLevelDescription = mapping.ImportableColumnID
		}
	}
	return m
}

// Settings carries the per-quote projection defaults and pricing switches.
type Settings struct {
	DefaultDateFrom    *time.Time
	DefaultDateTo      *time.Time
	DefaultQty         int
	CalculateListPrice bool
	ExchangeRate       decimal.Decimal
}

// normalized returns the settings with unset values defaulted.
func (s Settings) normalized() Settings {
	if s.DefaultQty <= 0 {
		s.DefaultQty = 1
	}
	if s.ExchangeRate.IsZero() {
		s.ExchangeRate = decimal.NewFromInt(1)
	}
	return s
}

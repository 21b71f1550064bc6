package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ColumnData is one cell of an imported row, keyed by the resolved
// importable column identity. Order inside ColumnsData mirrors the
// original column order of the source document.
type ColumnData struct {
	ImportableColumnID uuid.UUID `json:"importable_column_id"`
	Header             string    `json:"header"`
	Value              *string   `json:"value"`
}

// ColumnsData is the JSON column payload stored on imported_rows.
type ColumnsData []ColumnData

func (c ColumnsData) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal columns_data: %w", err)
	}
	return string(raw), nil
}

func (c *ColumnsData) Scan(value any) error {
	if value == nil {
		*c = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported columns_data source type %T", value)
	}
	return json.Unmarshal(raw, c)
}

// ValueFor returns the cell value for the given column id.
func (c ColumnsData) ValueFor(columnID uuid.UUID) (*string, bool) {
	for _, cell := range c {
		if cell.ImportableColumnID == columnID {
			return cell.Value, true
		}
	}
	return nil, false
}

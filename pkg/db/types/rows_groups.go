package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RowsGroup is one named partition of mapped row ids within a quote version.
type RowsGroup struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	SearchText string      `json:"search_text"`
	RowIDs     []uuid.UUID `json:"rows_ids"`
	IsSelected bool        `json:"is_selected"`
}

// RowsGroups is the ordered group_description JSON document stored on the
// quote version row. A NULL column means the version was never grouped;
// an emptied document is collapsed back to NULL by the group manager.
type RowsGroups []RowsGroup

func (g RowsGroups) Value() (driver.Value, error) {
	if g == nil {
		return nil, nil
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal group_description: %w", err)
	}
	return string(raw), nil
}

func (g *RowsGroups) Scan(value any) error {
	if value == nil {
		*g = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported group_description source type %T", value)
	}
	return json.Unmarshal(raw, g)
}

// FindByID returns the index of the group with the given id, or -1.
func (g RowsGroups) FindByID(id uuid.UUID) int {
	for i, group := range g {
		if group.ID == id {
			return i
		}
	}
	return -1
}

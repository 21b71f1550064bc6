package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ScheduleLine is one payment line extracted from a payment schedule file.
type ScheduleLine struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Price string `json:"price"`
}

// ScheduleLines is the JSON payload stored 1:1 with a payment schedule
// quote file and replaced wholesale on each reprocessing.
type ScheduleLines []ScheduleLine

func (s ScheduleLines) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule lines: %w", err)
	}
	return string(raw), nil
}

func (s *ScheduleLines) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported schedule lines source type %T", value)
	}
	return json.Unmarshal(raw, s)
}

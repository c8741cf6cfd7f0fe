package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONMap stores a free-form JSON object in a jsonb column. A nil map is
// persisted as an empty object so pass-through fields marshal as {} rather
// than null in outbound payloads.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("jsonmap: unsupported source type")
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

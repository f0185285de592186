package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is a free-form string map stored as a JSON document.
type Metadata map[string]string

func (Metadata) GormDataType() string {
	return "text"
}

func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported scan type %T", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*m = nil
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	*m = out
	return nil
}

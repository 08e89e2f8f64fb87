package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Tags is a string list stored as a JSON array.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Tags) Scan(src any) error {
	raw, err := textOf(src)
	if err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*t = out
	return nil
}

// Document is a free-form JSON column (workout exercises, travel itinerary).
type Document json.RawMessage

func (d Document) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "null", nil
	}
	if !json.Valid(d) {
		return nil, fmt.Errorf("document is not valid json")
	}
	return string(d), nil
}

func (d *Document) Scan(src any) error {
	raw, err := textOf(src)
	if err != nil {
		return fmt.Errorf("scan document: %w", err)
	}
	*d = append((*d)[:0], raw...)
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *Document) UnmarshalJSON(b []byte) error {
	*d = append((*d)[:0], b...)
	return nil
}

func textOf(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported source type %T", src)
	}
}

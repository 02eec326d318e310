package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONStrings stores a []string as a jsonb column.
type JSONStrings []string

func (j JSONStrings) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(j))
	return string(b), err
}

func (j *JSONStrings) Scan(src interface{}) error {
	return scanJSON(src, j)
}

// JSONAttachments stores []Attachment as a jsonb column.
type JSONAttachments []Attachment

func (j JSONAttachments) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Attachment(j))
	return string(b), err
}

func (j *JSONAttachments) Scan(src interface{}) error {
	return scanJSON(src, j)
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported jsonb source type")
	}
}

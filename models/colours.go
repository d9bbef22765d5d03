package models

import (
	"database/sql/driver"
	"errors"
	"strings"
)

// SerializedColors is a custom DB extension type that stores
// a string slice as a comma separate value in the database
// Example input: []string{"#020304", "#6581be"}
// Example DB value: #020304,#6581be
type SerializedColors []string

func (s SerializedColors) Value() (driver.Value, error) {
	return strings.Join(s, ","), nil
}

func (s *SerializedColors) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = SerializedColors{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return errors.New("incompatible type for SerializedColors")
	}
	if raw == "" {
		*s = SerializedColors{}
		return nil
	}
	*s = SerializedColors(strings.Split(raw, ","))
	return nil
}

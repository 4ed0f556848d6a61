package period

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Value serializes the set as a sorted JSON array for storage in a text
// column.
func (s Set) Value() (driver.Value, error) {
	b, err := json.Marshal(s.Sorted())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan restores a set from its stored JSON array form.
func (s *Set) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = NewSet()
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported period set source type %T", src)
	}
	if len(raw) == 0 {
		*s = NewSet()
		return nil
	}
	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return fmt.Errorf("decoding period set: %w", err)
	}
	*s = NewSet(tokens...)
	return nil
}

// MarshalJSON renders the set as a sorted token array in API responses.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON accepts a token array.
func (s *Set) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	*s = NewSet(tokens...)
	return nil
}

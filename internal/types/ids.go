package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies scenarios, simulations, and results. The zero ID is "unset"
// and marshals to JSON null so optional references stay absent from output.
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates s as a UUID and returns it as an ID.
func ParseID(s string) (ID, error) {
	id := ID(s)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate reports whether the ID holds a well-formed UUID.
func (id ID) Validate() error {
	if id.IsZero() {
		return fmt.Errorf("id is empty")
	}
	if err := uuid.Validate(string(id)); err != nil {
		return fmt.Errorf("malformed id %q: %w", id, err)
	}
	return nil
}

func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == "" }

// MarshalJSON renders the zero ID as null.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts null, the empty string, or a UUID string.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*id = ""
		return nil
	}

	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

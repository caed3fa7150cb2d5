package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies a backend record. The backend is not consistent about sending
// ids as strings or numbers, so both decode into the same string form.
type ID string

func (id ID) String() string { return string(id) }

// Empty reports whether the id is unset.
func (id ID) Empty() bool { return id == "" }

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Credential is the opaque bearer token paired with an Identity.
type Credential string

// Empty reports whether no credential is held.
func (c Credential) Empty() bool { return c == "" }

// String keeps tokens out of logs.
func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "[redacted]"
}

// Package table implements the deduplicating, field-encrypting table model
// that is the collection engine's sole persisted output.
package table

import (
	"encoding/json"
	"fmt"
	"maps"
)

// encryptedMarker is the reserved row field holding the encryption flag. It
// round-trips through the persisted JSON as a real boolean, never as a
// string-typed value.
const encryptedMarker = "encrypted"

// Row is a flat string-valued field map plus an encryption marker.
type Row struct {
	Fields    map[string]string
	Encrypted bool
}

// NewRow creates a raw, unencrypted row over a copy of the given fields.
func NewRow(fields map[string]string) Row {
	return Row{Fields: maps.Clone(fields)}
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	return Row{Fields: maps.Clone(r.Fields), Encrypted: r.Encrypted}
}

// Equal reports full deep equality, including the encryption marker.
func (r Row) Equal(other Row) bool {
	return r.Encrypted == other.Encrypted && maps.Equal(r.Fields, other.Fields)
}

// MarshalJSON flattens the row into a single JSON object with the encryption
// marker as a boolean member.
func (r Row) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Fields)+1)

	for k, v := range r.Fields {
		flat[k] = v
	}

	flat[encryptedMarker] = r.Encrypted

	data, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("marshal row: %w", err)
	}

	return data, nil
}

// UnmarshalJSON restores a row from its flat object form.
func (r *Row) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage

	err := json.Unmarshal(data, &flat)
	if err != nil {
		return fmt.Errorf("unmarshal row: %w", err)
	}

	r.Fields = make(map[string]string, len(flat))
	r.Encrypted = false

	for k, raw := range flat {
		if k == encryptedMarker {
			err = json.Unmarshal(raw, &r.Encrypted)
			if err != nil {
				return fmt.Errorf("unmarshal row marker: %w", err)
			}

			continue
		}

		var value string

		err = json.Unmarshal(raw, &value)
		if err != nil {
			return fmt.Errorf("unmarshal row field %q: %w", k, err)
		}

		r.Fields[k] = value
	}

	return nil
}

package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// LinkState enumerates the bind status carried by a link marker.
type LinkState int

const (
	// LinkUnlinked covers both an explicitly cleared marker and a record
	// where the marker field is entirely absent. Collapsing the two is a
	// deliberate permissiveness decision: older records predate the marker
	// column and must stay eligible for linking.
	LinkUnlinked LinkState = iota
	// LinkBound means the marker names a counterpart record id.
	LinkBound
	// LinkUnknown marks a payload the decoder could not interpret. Unknown
	// markers are never treated as eligible.
	LinkUnknown
)

// LinkMarker is the tri-state bind reference between a directory record and
// an account record.
type LinkMarker struct {
	State    LinkState
	TargetID string
}

// Unlinked returns an explicitly cleared marker.
func Unlinked() LinkMarker {
	return LinkMarker{State: LinkUnlinked}
}

// LinkedTo returns a marker bound to the given counterpart id.
func LinkedTo(id string) LinkMarker {
	id = strings.TrimSpace(id)
	if id == "" {
		return Unlinked()
	}
	return LinkMarker{State: LinkBound, TargetID: id}
}

// Bound reports whether the marker names a counterpart.
func (m LinkMarker) Bound() bool {
	return m.State == LinkBound
}

// Eligible reports whether the record may participate in a link operation.
func (m LinkMarker) Eligible() bool {
	return m.State == LinkUnlinked
}

// Scan implements sql.Scanner. A NULL column is an unlinked marker.
func (m *LinkMarker) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = Unlinked()
	case string:
		*m = LinkedTo(v)
	case []byte:
		*m = LinkedTo(string(v))
	default:
		*m = LinkMarker{State: LinkUnknown}
	}
	return nil
}

// Value implements driver.Valuer. Only bound markers persist a target.
func (m LinkMarker) Value() (driver.Value, error) {
	if m.State == LinkBound {
		return m.TargetID, nil
	}
	return nil, nil
}

// MarshalJSON renders the marker as the counterpart id or null.
func (m LinkMarker) MarshalJSON() ([]byte, error) {
	if m.State == LinkBound {
		return json.Marshal(m.TargetID)
	}
	return []byte("null"), nil
}

// UnmarshalJSON tolerates null, absent-equivalent empty strings, and
// malformed payloads without failing the surrounding decode.
func (m *LinkMarker) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = Unlinked()
		return nil
	}

	var id string
	if err := json.Unmarshal(trimmed, &id); err != nil {
		*m = LinkMarker{State: LinkUnknown}
		return nil
	}

	*m = LinkedTo(id)
	return nil
}

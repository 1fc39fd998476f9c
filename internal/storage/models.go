package storage

import (
	"encoding/json"
	"time"
)

// Bucket names for bbolt database
const (
	MapsBucket = "maps"
	MetaBucket = "meta"
)

// Meta keys
const (
	SchemaVersionKey = "schema"
)

// Current schema version
const CurrentSchemaVersion = 1

// MapRecord is a persisted mind map: its nodes with their icons.
type MapRecord struct {
	ID      string        `json:"id"`
	Nodes   []*NodeRecord `json:"nodes"`
	Rules   []RuleRecord  `json:"rules,omitempty"`
	Created time.Time     `json:"created"`
	Updated time.Time     `json:"updated"`
}

// NodeRecord stores icon names rather than icons; names are resolved
// against the icon store on load.
type NodeRecord struct {
	ID       string   `json:"id"`
	Icons    []string `json:"icons,omitempty"`
	IconSize string   `json:"icon_size,omitempty"` // e.g. "12 pt", empty when unset
}

// RuleRecord is a conditional style rule. Node is empty for rules that
// apply to the whole map.
type RuleRecord struct {
	Node      string `json:"node,omitempty"`
	Condition string `json:"condition"`
	Icon      string `json:"icon,omitempty"`
	Negate    bool   `json:"negate,omitempty"`
	Style     string `json:"style"`
}

// MarshalBinary implements encoding.BinaryMarshaler
func (r *MapRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (r *MapRecord) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}

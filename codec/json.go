package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable option for payloads that must be read by other
// tooling. Time values round-trip, but funcs, channels and complex numbers do
// not. For custom payload encodings implement Codec and pass it where
// snapshots are written.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// This affects newly-written snapshots only. Existing snapshots are
// self-describing and are opened by selecting their recorded codec by name.
var Default Codec = GoJSON{}

package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec, used for checkpoint snapshots.
// No third-party JSON encoder appears anywhere in
// the dependency pack, so this leaf stays on encoding/json rather than
// inventing a dependency that was never grounded.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used by internal/checkpoint when the caller
// doesn't specify one.
//
// NOTE: this affects newly-created checkpoints only. Existing files are
// self-describing (they store the codec name in their header) and are
// opened by selecting the matching codec via ByName.
var Default Codec = JSON{}

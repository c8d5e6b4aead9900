package gosdt

import (
	"encoding/json"
	"os"

	"github.com/BurntSushi/toml"
)

// Configuration controls every tunable of a solve: the complexity penalty,
// resource limits, and the behavioral flags that switch on reference-model
// bounding, look-ahead, similar-support tightening, cancellation, and
// rule-list mode. Zero value is a usable (if minimal) configuration:
// regularization 0, no limits, all behavioral flags off.
//
// Grounded on the original's configuration.hpp; JSON is the primary
// round-trip format (ConfigFromJSON/ToJSON), mirroring its own
// from_json/to_json pair.
type Configuration struct {
	// Regularization (lambda) is the per-leaf complexity penalty.
	Regularization float64 `json:"regularization" toml:"regularization"`

	// UpperboundGuess seeds the root's upper bound when positive, letting a
	// caller warm-start the search with a known-good tree's loss.
	UpperboundGuess float64 `json:"upperbound_guess" toml:"upperbound_guess"`

	// TimeLimitSeconds bounds wall-clock solve time. Zero means unlimited.
	TimeLimitSeconds uint32 `json:"time_limit" toml:"time_limit"`

	// WorkerLimit is the number of worker goroutines. Zero means
	// runtime.GOMAXPROCS(0) workers.
	WorkerLimit uint32 `json:"worker_limit" toml:"worker_limit"`

	// ModelLimit caps the number of optimal models extracted. Zero means
	// extraction is skipped entirely.
	ModelLimit uint32 `json:"model_limit" toml:"model_limit"`

	// DepthBudget caps tree depth. Zero means unlimited; a depth budget of
	// 1 means the tree is a single leaf (the budget counts the root).
	DepthBudget uint8 `json:"depth_budget" toml:"depth_budget"`

	Verbose          bool `json:"verbose" toml:"verbose"`
	Diagnostics      bool `json:"diagnostics" toml:"diagnostics"`
	ReferenceLB      bool `json:"reference_LB" toml:"reference_lb"`
	LookAhead        bool `json:"look_ahead" toml:"look_ahead"`
	SimilarSupport   bool `json:"similar_support" toml:"similar_support"`
	Cancellation     bool `json:"cancellation" toml:"cancellation"`
	FeatureTransform bool `json:"feature_transform" toml:"feature_transform"`
	RuleList         bool `json:"rule_list" toml:"rule_list"`
	NonBinary        bool `json:"non_binary" toml:"non_binary"`

	// Trace and Profile are output file paths written on every worker-0
	// tick, zstd-compressed as they're written: Profile as a CSV of
	// (ticks, elapsed, bounds, graph size, queue depth, explore/exploit
	// counts), Trace as the same fields, one JSON object per line. Empty
	// disables the corresponding writer.
	Trace   string `json:"trace" toml:"trace"`
	Profile string `json:"profile" toml:"profile"`

	// Tree is accepted for round-trip compatibility with the original's
	// configuration schema but no longer does anything: the original
	// itself deprecated diagnostic tree output (optimizer.cpp's iterate()
	// prints a warning and exits if it's set). Fit logs a warning instead
	// of writing anything when Tree is non-empty.
	Tree string `json:"tree" toml:"tree"`

	// CheckpointPath, when non-empty and Diagnostics is set, is where Fit
	// writes a compressed graph snapshot (see internal/checkpoint) every
	// CheckpointTicks worker-0 termination checks.
	CheckpointPath  string `json:"checkpoint_path" toml:"checkpoint_path"`
	CheckpointTicks uint64 `json:"checkpoint_ticks" toml:"checkpoint_ticks"`
}

// DefaultConfiguration returns the original's documented defaults:
// regularization 0.05, reference_LB/look_ahead/similar_support/cancellation/
// feature_transform all enabled, everything else off or unlimited.
func DefaultConfiguration() Configuration {
	return Configuration{
		Regularization:   0.05,
		ReferenceLB:      true,
		LookAhead:        true,
		SimilarSupport:   true,
		Cancellation:     true,
		FeatureTransform: true,
	}
}

// ToJSON marshals the configuration to JSON.
func (c Configuration) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ConfigFromJSON unmarshals a configuration from JSON, starting from
// DefaultConfiguration so that omitted fields keep their documented
// defaults rather than collapsing to the zero value.
func ConfigFromJSON(data []byte) (Configuration, error) {
	c := DefaultConfiguration()
	if err := json.Unmarshal(data, &c); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

// LoadConfigJSON reads and parses a config.json file.
func LoadConfigJSON(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, err
	}
	return ConfigFromJSON(data)
}

// LoadConfigTOML reads and parses a config.toml file, an alternative to
// config.json for the CLI driver.
func LoadConfigTOML(path string) (Configuration, error) {
	c := DefaultConfiguration()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

package gosdt

import "time"

// ConfigOption configures a Configuration built via NewConfiguration.
//
// Today options primarily exist to avoid forcing every caller to build a
// Configuration struct literal with every field named; the struct itself
// remains the authoritative, JSON/TOML-serializable representation.
type ConfigOption func(*Configuration)

// WithRegularization sets the per-leaf complexity penalty (lambda).
func WithRegularization(lambda float64) ConfigOption {
	return func(c *Configuration) {
		c.Regularization = lambda
	}
}

// WithUpperboundGuess seeds the root's upper bound with a known-good tree's
// loss, letting the search prune against it from the first exploration.
func WithUpperboundGuess(loss float64) ConfigOption {
	return func(c *Configuration) {
		c.UpperboundGuess = loss
	}
}

// WithTimeLimit bounds wall-clock solve time. A zero duration means
// unlimited.
func WithTimeLimit(d time.Duration) ConfigOption {
	return func(c *Configuration) {
		c.TimeLimitSeconds = uint32(d / time.Second)
	}
}

// WithWorkerLimit sets the number of worker goroutines.
func WithWorkerLimit(n uint32) ConfigOption {
	return func(c *Configuration) {
		c.WorkerLimit = n
	}
}

// WithModelLimit caps the number of optimal models extracted.
func WithModelLimit(n uint32) ConfigOption {
	return func(c *Configuration) {
		c.ModelLimit = n
	}
}

// WithDepthBudget caps tree depth (0 = unlimited, counts the root).
func WithDepthBudget(depth uint8) ConfigOption {
	return func(c *Configuration) {
		c.DepthBudget = depth
	}
}

// WithRuleList switches the search into rule-list mode, where every split
// forces one side to be a leaf.
func WithRuleList(enabled bool) ConfigOption {
	return func(c *Configuration) {
		c.RuleList = enabled
	}
}

// WithReferenceLB toggles reference-model lower-bounding.
func WithReferenceLB(enabled bool) ConfigOption {
	return func(c *Configuration) {
		c.ReferenceLB = enabled
	}
}

// WithDiagnostics enables structured non-convergence/false-convergence
// diagnosis logging and graph checkpointing.
func WithDiagnostics(enabled bool) ConfigOption {
	return func(c *Configuration) {
		c.Diagnostics = enabled
	}
}

// WithVerbose enables verbose tick logging.
func WithVerbose(enabled bool) ConfigOption {
	return func(c *Configuration) {
		c.Verbose = enabled
	}
}

// WithTracePath sets the diagnostic trace output path.
func WithTracePath(path string) ConfigOption {
	return func(c *Configuration) {
		c.Trace = path
	}
}

// WithProfilePath sets the profile CSV output path.
func WithProfilePath(path string) ConfigOption {
	return func(c *Configuration) {
		c.Profile = path
	}
}

// WithCheckpoint enables periodic lz4-compressed graph snapshots (see
// internal/checkpoint), written to path every interval worker-0
// termination checks. Has no effect unless Diagnostics is also enabled.
func WithCheckpoint(path string, interval uint64) ConfigOption {
	return func(c *Configuration) {
		c.CheckpointPath = path
		c.CheckpointTicks = interval
	}
}

// NewConfiguration builds a Configuration starting from
// DefaultConfiguration and applying opts in order.
func NewConfiguration(opts ...ConfigOption) Configuration {
	c := DefaultConfiguration()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

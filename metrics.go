package gosdt

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics
// from a running solve. Implement this interface to integrate with
// monitoring systems like Prometheus. It is in-memory only; the on-disk
// profile.csv and trace artifacts the original writes alongside its own
// metrics live behind Configuration.Profile/Trace instead (see
// diagnostics.go), independent of whatever MetricsCollector is passed in.
type MetricsCollector interface {
	// RecordExploration is called each time a worker dispatches an
	// exploration message.
	RecordExploration(workerID int, duration time.Duration)

	// RecordExploitation is called each time a worker dispatches an
	// exploitation message.
	RecordExploitation(workerID int, duration time.Duration)

	// RecordTick is called on each worker-0 termination tick with the
	// current graph size and queue depth.
	RecordTick(graphSize, queueDepth int)

	// RecordFit is called once when Fit returns, with the final status and
	// elapsed time.
	RecordFit(status Status, elapsed time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordExploration(int, time.Duration)  {}
func (NoopMetricsCollector) RecordExploitation(int, time.Duration) {}
func (NoopMetricsCollector) RecordTick(int, int)                   {}
func (NoopMetricsCollector) RecordFit(Status, time.Duration)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ExplorationCount     atomic.Int64
	ExplorationTotalNs   atomic.Int64
	ExploitationCount    atomic.Int64
	ExploitationTotalNs  atomic.Int64
	TickCount            atomic.Int64
	LastGraphSize        atomic.Int64
	LastQueueDepth       atomic.Int64
	FitCount             atomic.Int64
}

// RecordExploration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExploration(_ int, duration time.Duration) {
	b.ExplorationCount.Add(1)
	b.ExplorationTotalNs.Add(duration.Nanoseconds())
}

// RecordExploitation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExploitation(_ int, duration time.Duration) {
	b.ExploitationCount.Add(1)
	b.ExploitationTotalNs.Add(duration.Nanoseconds())
}

// RecordTick implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTick(graphSize, queueDepth int) {
	b.TickCount.Add(1)
	b.LastGraphSize.Store(int64(graphSize))
	b.LastQueueDepth.Store(int64(queueDepth))
}

// RecordFit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFit(_ Status, _ time.Duration) {
	b.FitCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ExplorationCount:  b.ExplorationCount.Load(),
		ExploitationCount: b.ExploitationCount.Load(),
		TickCount:         b.TickCount.Load(),
		LastGraphSize:     b.LastGraphSize.Load(),
		LastQueueDepth:    b.LastQueueDepth.Load(),
		FitCount:          b.FitCount.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ExplorationCount  int64
	ExploitationCount int64
	TickCount         int64
	LastGraphSize     int64
	LastQueueDepth    int64
	FitCount          int64
}

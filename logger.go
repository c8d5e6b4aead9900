package gosdt

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with solver-specific context. This provides
// structured logging with consistent field names across the Optimizer and
// Driver.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a copy of the logger. It does not read ctx and adds
// no fields.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{
		Logger: l.Logger.With(),
	}
}

// WithWorker adds a worker_id field to the logger.
func (l *Logger) WithWorker(id int) *Logger {
	return &Logger{
		Logger: l.Logger.With("worker_id", id),
	}
}

// LogTick logs a worker-0 termination tick, reporting the live graph size
// and current objective boundary. This is the structured-logging analogue
// of the original's verbose stdout progress line in optimizer.cpp.
func (l *Logger) LogTick(ctx context.Context, tick uint64, graphSize int, lower, upper float64) {
	l.DebugContext(ctx, "tick",
		"tick", tick,
		"graph_size", graphSize,
		"lower_bound", lower,
		"upper_bound", upper,
	)
}

// LogExploration logs the dispatch of an exploration message for a capture
// set identified by its content hash.
func (l *Logger) LogExploration(ctx context.Context, workerID int, captureHash uint32, depth int) {
	l.DebugContext(ctx, "exploration dispatched",
		"worker_id", workerID,
		"capture_hash", captureHash,
		"depth", depth,
	)
}

// LogExploitation logs the dispatch of an exploitation message for a vertex
// identified by its content hash.
func (l *Logger) LogExploitation(ctx context.Context, workerID int, vertexHash uint32) {
	l.DebugContext(ctx, "exploitation dispatched",
		"worker_id", workerID,
		"vertex_hash", vertexHash,
	)
}

// LogIntegrityViolation logs a worker-thread integrity violation before the
// shared status transitions to NON_CONVERGENCE.
func (l *Logger) LogIntegrityViolation(ctx context.Context, workerID int, err error) {
	l.ErrorContext(ctx, "integrity violation",
		"worker_id", workerID,
		"error", err,
	)
}

// LogFitComplete logs the final outcome of a Fit call.
func (l *Logger) LogFitComplete(ctx context.Context, status Status, graphSize int, lower, upper float64, elapsed float64) {
	l.InfoContext(ctx, "fit completed",
		"status", status,
		"graph_size", graphSize,
		"lower_bound", lower,
		"upper_bound", upper,
		"time_elapsed", elapsed,
	)
}

// LogNonConvergenceDiagnosis logs a structured diagnosis of why the root
// never converged, in place of the original's hard-coded capture-set
// strings (see DESIGN.md's Open Question decisions).
func (l *Logger) LogNonConvergenceDiagnosis(ctx context.Context, openVertices int, smallestGap float64) {
	l.WarnContext(ctx, "non-convergence diagnosis",
		"open_vertices", openVertices,
		"smallest_gap", smallestGap,
	)
}

// LogFalseConvergenceDiagnosis logs a structured diagnosis of why bounds
// converged but no model could be extracted.
func (l *Logger) LogFalseConvergenceDiagnosis(ctx context.Context, rootLower, rootUpper float64) {
	l.WarnContext(ctx, "false-convergence diagnosis",
		"root_lower", rootLower,
		"root_upper", rootUpper,
	)
}

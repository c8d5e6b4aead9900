package gosdt

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
	"github.com/vishalbelsare/gosdt-guesses/internal/checkpoint"
	"github.com/vishalbelsare/gosdt-guesses/internal/dataset"
	"github.com/vishalbelsare/gosdt-guesses/internal/model"
	"github.com/vishalbelsare/gosdt-guesses/internal/optimizer"
)

// defaultCheckpointTicks is used when Diagnostics and CheckpointPath are
// set but CheckpointTicks is left at its zero value.
const defaultCheckpointTicks = 50000

// Status classifies how a Fit call ended, mirroring the original's
// gosdt.cpp status derivation.
type Status string

const (
	// StatusUninitialized is the zero value of Status: a Result that was
	// never populated by a completed Fit call.
	StatusUninitialized Status = "UNINITIALIZED"

	// StatusConverged means the global bound closed (lower == upper) and,
	// when extraction was requested, at least one model was recovered.
	StatusConverged Status = "CONVERGED"

	// StatusTimeout means the search stopped with an open gap because the
	// time limit elapsed, the caller's context was cancelled, or the queue
	// still held unexplored work.
	StatusTimeout Status = "TIMEOUT"

	// StatusNonConvergence means the search stopped on a worker integrity
	// violation, or with an open gap for none of the above reasons.
	StatusNonConvergence Status = "NON_CONVERGENCE"

	// StatusFalseConvergence means the bound closed but model extraction
	// still returned nothing, an internal contradiction Fit surfaces
	// rather than hides.
	StatusFalseConvergence Status = "FALSE_CONVERGENCE"
)

// Result is the outcome of a Fit call.
type Result struct {
	// Model is the extracted model set rendered as a JSON array, per
	// spec.md's schema. Empty ("[]") when ModelLimit is zero or no model
	// could be extracted.
	Model string

	// Models is the same result set before JSON rendering, for callers
	// that want to walk the tree(s) directly.
	Models []*model.Model

	GraphSize   int
	NIterations uint64
	LowerBound  float64
	UpperBound  float64
	ModelLoss   float64
	TimeElapsed time.Duration
	Status      Status
}

// Fit runs the branch-and-bound solver to completion, timeout, or context
// cancellation, whichever comes first.
//
// Grounded on the original's gosdt.cpp: build the root, spawn
// cfg.WorkerLimit worker threads (goroutines here, coordinated with
// golang.org/x/sync/errgroup instead of raw std::thread + std::future),
// join them, then read out status, elapsed time, graph size, objective
// interval, and models.
func Fit(ctx context.Context, cfg Configuration, ds *dataset.Dataset, logger *Logger, metrics MetricsCollector) (Result, error) {
	if logger == nil {
		logger = NoopLogger()
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}

	workers := int(cfg.WorkerLimit)
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	optCfg := optimizer.Config{
		Regularization:   cfg.Regularization,
		UpperboundGuess:  cfg.UpperboundGuess,
		TimeLimitSeconds: uint(cfg.TimeLimitSeconds),
		WorkerLimit:      uint(workers),
		ModelLimit:       uint(cfg.ModelLimit),
		DepthBudget:      cfg.DepthBudget,
		ReferenceLB:      cfg.ReferenceLB,
		LookAhead:        cfg.LookAhead,
		SimilarSupport:   cfg.SimilarSupport,
		Cancellation:     cfg.Cancellation,
		FeatureTransform: cfg.FeatureTransform,
		RuleList:         cfg.RuleList,
	}

	if optCfg.UpperboundGuess <= 0 {
		// GreedyBaseline only needs a worker's scratch buffers, but those
		// live inside an Optimizer; build one throwaway instance purely to
		// borrow worker 0's LocalState before Initialize touches the graph
		// or queue at all.
		scout := optimizer.New(optCfg, ds, 1, optimizer.Hooks{})
		optCfg.UpperboundGuess = scout.GreedyBaseline(
			bitset.Full(ds.NumRows()), bitset.Full(ds.NumFeatures()), 0)
	}

	checkpointTicks := cfg.CheckpointTicks
	if checkpointTicks == 0 {
		checkpointTicks = defaultCheckpointTicks
	}

	if cfg.Tree != "" {
		// The original itself deprecated this artifact: iterate() prints
		// "Diagnostic tree is no longer supported" and exits rather than
		// writing anything when Configuration::tree is set. A library
		// can't call os.Exit on a caller; warn and otherwise ignore it.
		logger.WarnContext(ctx, "diagnostic tree output is no longer supported", "path", cfg.Tree)
	}

	var profile *profileWriter
	if cfg.Profile != "" {
		var err error
		profile, err = newProfileWriter(cfg.Profile)
		if err != nil {
			return Result{Status: StatusUninitialized}, fmt.Errorf("open profile: %w", err)
		}
		defer profile.Close()
	}
	var trace *traceWriter
	if cfg.Trace != "" {
		var err error
		trace, err = newTraceWriter(cfg.Trace)
		if err != nil {
			return Result{Status: StatusUninitialized}, fmt.Errorf("open trace: %w", err)
		}
		defer trace.Close()
	}

	// opt is assigned below; the closure only runs once Iterate starts
	// calling it, by which point opt is non-nil.
	var opt *optimizer.Optimizer
	hooks := optimizer.Hooks{
		OnTick: func(stats optimizer.TickStats) {
			metrics.RecordTick(stats.GraphSize, stats.QueueDepth)
			if cfg.Verbose {
				logger.LogTick(ctx, stats.Ticks, stats.GraphSize, stats.Lower, stats.Upper)
			}
			if cfg.Diagnostics && cfg.CheckpointPath != "" && stats.Ticks%checkpointTicks == 0 {
				snap := checkpoint.Capture(opt.Graph(), stats.Ticks, stats.QueueDepth, stats.Lower, stats.Upper)
				if err := checkpoint.Write(cfg.CheckpointPath, snap, nil); err != nil {
					logger.WarnContext(ctx, "checkpoint write failed", "error", err)
				}
			}
			if profile != nil || trace != nil {
				elapsed := time.Duration(opt.TimeElapsed() * float64(time.Second))
				tick := profileTick{
					Ticks:      stats.Ticks,
					GraphSize:  stats.GraphSize,
					QueueDepth: stats.QueueDepth,
					Lower:      stats.Lower,
					Upper:      stats.Upper,
					Explored:   stats.Explored,
					Exploited:  stats.Exploited,
				}
				if profile != nil {
					if err := profile.WriteTick(elapsed, tick); err != nil {
						logger.WarnContext(ctx, "profile write failed", "error", err)
					}
				}
				if trace != nil {
					if err := trace.WriteTick(elapsed, tick); err != nil {
						logger.WarnContext(ctx, "trace write failed", "error", err)
					}
				}
			}
		},
	}

	queueCapacity := 256 * workers
	opt = optimizer.New(optCfg, ds, queueCapacity, hooks)
	opt.Initialize()

	var iterations atomic.Uint64
	var integrityErr atomic.Pointer[error]
	group, groupCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		workerID := w
		group.Go(func() error {
			for {
				select {
				case <-groupCtx.Done():
					return nil
				default:
				}
				start := time.Now()
				active, err := opt.Iterate(workerID)
				iterations.Add(1)
				if err != nil {
					logger.LogIntegrityViolation(ctx, workerID, err)
					integrityErr.CompareAndSwap(nil, &err)
					return err
				}
				metrics.RecordExploration(workerID, time.Since(start))
				if !active {
					return nil
				}
			}
		})
	}
	waitErr := group.Wait()
	var storedErr error
	if p := integrityErr.Load(); p != nil {
		storedErr = *p
	}
	if waitErr != nil && storedErr == nil && ctx.Err() == nil {
		return Result{Status: StatusUninitialized}, waitErr
	}

	elapsed := opt.TimeElapsed()
	lower, upper := opt.ObjectiveBoundary()
	timedOut := (cfg.TimeLimitSeconds > 0 && elapsed > float64(cfg.TimeLimitSeconds)) || ctx.Err() != nil

	var models []*model.Model
	if cfg.ModelLimit > 0 && storedErr == nil {
		models = opt.Models()
		if uint32(len(models)) > cfg.ModelLimit {
			models = models[:cfg.ModelLimit]
		}
	}

	status := deriveStatus(lower, upper, cfg.ModelLimit, len(models), timedOut, opt.QueueLen(), storedErr)

	if cfg.Diagnostics && status == StatusNonConvergence && storedErr == nil {
		logger.LogNonConvergenceDiagnosis(ctx, opt.QueueLen(), upper-lower)
	}
	if cfg.Diagnostics && status == StatusFalseConvergence {
		logger.LogFalseConvergenceDiagnosis(ctx, lower, upper)
	}

	modelJSON := "[]"
	if raw, err := model.MarshalSet(models, featureNamer(ds)); err == nil {
		modelJSON = string(raw)
	}

	modelLoss := 0.0
	if len(models) > 0 {
		modelLoss = models[0].TotalLoss()
	}

	result := Result{
		Model:       modelJSON,
		Models:      models,
		GraphSize:   opt.Size(),
		NIterations: iterations.Load(),
		LowerBound:  lower,
		UpperBound:  upper,
		ModelLoss:   modelLoss,
		TimeElapsed: time.Duration(elapsed * float64(time.Second)),
		Status:      status,
	}
	logger.LogFitComplete(ctx, status, result.GraphSize, lower, upper, elapsed)
	metrics.RecordFit(status, result.TimeElapsed)

	if storedErr != nil {
		return result, translateError(storedErr)
	}
	return result, nil
}

// deriveStatus mirrors gosdt.cpp's post-join branching: a closed bound
// with an extracted model (or extraction disabled) is CONVERGED; a closed
// bound with requested-but-empty extraction is FALSE_CONVERGENCE; an open
// bound that ran out of time or still has queued work is TIMEOUT;
// anything else open is NON_CONVERGENCE.
func deriveStatus(lower, upper float64, modelLimit uint32, modelCount int, timedOut bool, queueLen int, integrityErr error) Status {
	if integrityErr != nil {
		return StatusNonConvergence
	}
	closed := upper-lower < 1e-7
	if closed {
		if modelLimit == 0 || modelCount > 0 {
			return StatusConverged
		}
		return StatusFalseConvergence
	}
	if timedOut || queueLen > 0 {
		return StatusTimeout
	}
	return StatusNonConvergence
}

// featureNamer returns nil for every dataset, so model.MarshalSet always
// uses its own numeric default; no feature names are looked up.
func featureNamer(ds *dataset.Dataset) func(uint) string {
	return nil
}

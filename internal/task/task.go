// Package task implements the per-subproblem branch-and-bound state: a
// capture set, the still-active feature set, cached loss/complexity
// scalars, bound tracking, and the look-ahead scope envelope.
//
// Grounded line-for-line on the original's task.cpp/task.hpp.
package task

import (
	"fmt"
	"math"
	"sync"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
	"github.com/vishalbelsare/gosdt-guesses/internal/dataset"
	"github.com/vishalbelsare/gosdt-guesses/internal/errs"
)

// Epsilon mirrors std::numeric_limits<float>::epsilon(), the tolerance used
// to collapse a near-zero uncertainty interval to zero.
const Epsilon = 1.1920929e-7

// Task represents one DP subproblem in the solver's DAG. Once a Task is
// published to the graph its pointer is shared across every worker that
// dispatches an exploration or exploitation touching its capture set, so
// every field mutated after construction (bounds, scope envelope, coverage,
// optimal feature, order) sits behind mu. This is the Go stand-in for the
// original's tbb::concurrent_hash_map accessor: there, a caller only ever
// touches a vertex's payload while holding that vertex's accessor lock; here
// the lock moves onto the payload itself so Graph's shard locks can stay
// scoped to the map lookup alone. captureSet, support, baseObjective,
// information and guaranteedLowerbound are set once in New and never
// written again, so reading them needs no lock.
type Task struct {
	captureSet *bitset.Bitset

	support              float64
	baseObjective        float64
	information          float64
	guaranteedLowerbound float64

	mu             sync.RWMutex
	featureSet     *bitset.Bitset
	order          []int
	lowerbound     float64
	upperbound     float64
	lowerscope     float64
	upperscope     float64
	coverage       float64
	optimalFeature int
}

// New constructs a Task from a capture set and its still-active feature
// set, classifying the subproblem as certainly-leaf, must-be-leaf, or open.
// work is scratch of size capture.Size(), reused across the call.
func New(capture, featureSet *bitset.Bitset, ds *dataset.Dataset, regularization float64, depthBudgetEnabled bool, work *bitset.Bitset) (*Task, error) {
	t := &Task{
		captureSet: capture,
		featureSet: featureSet.Clone(),
		support:    float64(capture.Popcount()) / float64(ds.NumRows()),
		lowerscope: math.Inf(-1),
		upperscope: math.Inf(1),
		coverage:   math.Inf(-1),
	}

	terminal := capture.Popcount() <= 1 || featureSet.Empty()

	stats := ds.SummaryStatistics(capture, work)
	t.information = stats.Information
	t.baseObjective = stats.MaxLoss + regularization

	lowerCandidate := math.Min(t.baseObjective, stats.MinLoss+2*regularization)
	t.guaranteedLowerbound = math.Min(t.baseObjective, stats.GuaranteedMinLoss+2*regularization)

	depthExhausted := depthBudgetEnabled && capture.DepthBudget() == 1

	switch {
	case (1.0-stats.MinLoss < regularization) ||
		(stats.Potential < 2*regularization && 1.0-stats.MaxLoss < regularization):
		// Certainly-leaf: provably not part of any optimal tree as an
		// internal node or as a leaf that could still be improved.
		t.lowerbound = t.baseObjective
		t.upperbound = t.baseObjective
		t.featureSet = bitset.New(featureSet.Size())

	case (stats.MaxLoss-stats.MinLoss < regularization) ||
		stats.Potential < 2*regularization ||
		terminal ||
		depthExhausted:
		// Must-be-leaf: provably not an internal node of any optimal tree.
		t.lowerbound = t.baseObjective
		t.upperbound = t.baseObjective
		t.featureSet = bitset.New(featureSet.Size())

	default:
		t.lowerbound = lowerCandidate
		t.upperbound = t.baseObjective
	}

	if t.lowerbound > t.upperbound {
		return nil, errs.NewBoundInvariant(fmt.Sprintf("lowerbound (%g) exceeds upperbound (%g)", t.lowerbound, t.upperbound))
	}

	return t, nil
}

// Support returns |capture_set| / N.
func (t *Task) Support() float64 { return t.support }

// Information returns the cached Akaike-style information value.
func (t *Task) Information() float64 { return t.information }

// BaseObjective returns max_loss(capture) + lambda.
func (t *Task) BaseObjective() float64 { return t.baseObjective }

// Lowerbound returns the current objective lower bound.
func (t *Task) Lowerbound() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lowerbound
}

// Upperbound returns the current objective upper bound.
func (t *Task) Upperbound() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.upperbound
}

// GuaranteedLowerbound returns the reference-free lower bound.
func (t *Task) GuaranteedLowerbound(referenceLB bool) float64 {
	if referenceLB {
		return t.guaranteedLowerbound
	}
	return t.Lowerbound()
}

// Uncertainty returns max(0, upper - lower).
func (t *Task) Uncertainty() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return math.Max(0, t.upperbound-t.lowerbound)
}

// CaptureSet returns the capture-set identifier.
func (t *Task) CaptureSet() *bitset.Bitset { return t.captureSet }

// FeatureSet returns the currently active (not-yet-pruned) feature set.
// The Bitset itself is mutated in place by PruneFeature under mu, so
// concurrent callers see a consistent view of the same bits, not a
// snapshot: iterate it (ForEachSet) while the vertex cannot be pruned
// concurrently, i.e. from the dispatch path only.
func (t *Task) FeatureSet() *bitset.Bitset {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.featureSet
}

// Order returns the feature permutation used for equivalence discovery.
func (t *Task) Order() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.order
}

// SetOrder replaces the feature permutation.
func (t *Task) SetOrder(order []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = order
}

// Lowerscope, Upperscope, and Coverage report the look-ahead scope
// envelope.
func (t *Task) Lowerscope() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lowerscope
}

func (t *Task) Upperscope() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.upperscope
}

func (t *Task) Coverage() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.coverage
}

// SetCoverage overwrites the coverage value.
func (t *Task) SetCoverage(c float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.coverage = c
}

// OptimalFeature returns the feature index of the currently best split,
// as last set by Update.
func (t *Task) OptimalFeature() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.optimalFeature
}

// Scope widens the look-ahead scope envelope with a newly observed scope
// value. A zero scope is a no-op (it carries no information). The whole
// read-modify-write runs under mu so two workers racing to widen the same
// vertex's scope can't clobber one another's contribution.
func (t *Task) Scope(newScope float64) {
	if newScope == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	newScope = math.Max(0, newScope)
	if math.IsInf(t.upperscope, 1) {
		t.upperscope = newScope
	} else {
		t.upperscope = math.Max(t.upperscope, newScope)
	}
	if math.IsInf(t.lowerscope, -1) {
		t.lowerscope = newScope
	} else {
		t.lowerscope = math.Min(t.lowerscope, newScope)
	}
}

// PruneFeature removes feature index from the active feature set. Callers
// that also hold a snapshot of FeatureSet() from before the prune may still
// observe the bit set; PruneFeature only ever narrows the set, so a stale
// read is conservative, never unsound.
func (t *Task) PruneFeature(index uint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.featureSet.Set(index, false)
}

// Update folds a new (lower, upper) bound pair and the feature that
// produced them into the task, clamping lower <= upper and collapsing the
// uncertainty interval to zero under cancellation or floating-point
// tolerance. Returns whether either bound actually changed. The max/min
// fold and the write both happen under mu, the single write-accessor for
// this vertex, so two workers dispatching the same capture set concurrently
// can't lose one another's update.
func (t *Task) Update(cancellation bool, lower, upper float64, optimalFeature int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := lower != t.lowerbound || upper != t.upperbound

	t.lowerbound = math.Max(t.lowerbound, lower)
	t.upperbound = math.Min(t.upperbound, upper)
	t.lowerbound = math.Min(t.upperbound, t.lowerbound)

	t.optimalFeature = optimalFeature

	if (cancellation && 1.0-t.lowerbound < 0.0) || t.upperbound-t.lowerbound <= Epsilon {
		t.lowerbound = t.upperbound
	}

	return changed
}

// CreateChildren builds, for every still-active feature, the two child
// subproblems (negative and positive side of the split) into
// neighbourhood[2*j] / neighbourhood[2*j+1]. neighbourhood must have
// capacity 2*FeatureSet().Size(). A feature is pruned from the active set
// if either side's split is empty or leaves the capture set unchanged.
// splitBuf and work are scratch bitsets of size CaptureSet().Size().
//
// CreateChildren always runs before the Task it's called on is published to
// the graph (dispatchExploration calls it on a freshly built, not-yet-shared
// tk), so it reads featureSet directly rather than through the locked
// accessor.
func (t *Task) CreateChildren(ds *dataset.Dataset, regularization float64, depthBudgetEnabled bool, neighbourhood []*Task, splitBuf, work *bitset.Bitset) error {
	var pruneList []uint
	var firstErr error

	t.featureSet.ForEachSet(func(j uint) {
		if firstErr != nil {
			return
		}
		skip := false
		for side := 0; side < 2; side++ {
			splitBuf.CopyFrom(t.captureSet)
			ds.SubsetInplace(splitBuf, j, side == 1)
			if depthBudgetEnabled {
				splitBuf.SetDepthBudget(splitBuf.DepthBudget() - 1)
			}
			if splitBuf.Empty() || splitBuf.Equal(t.captureSet) {
				skip = true
				continue
			}
			childCapture := splitBuf.Clone()
			child, err := New(childCapture, t.featureSet, ds, regularization, depthBudgetEnabled, work)
			if err != nil {
				firstErr = err
				return
			}
			neighbourhood[2*j+uint(side)] = child
		}
		if skip {
			pruneList = append(pruneList, j)
		}
	})
	if firstErr != nil {
		return firstErr
	}

	for _, j := range pruneList {
		t.PruneFeature(j)
	}
	return nil
}

// Inspect renders a human-readable debug summary, the Go analogue of the
// original's inspect().
func (t *Task) Inspect() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fmt.Sprintf("capture=%s base=%g bounds=[%g, %g] scope=[%g, %g] coverage=%g feature=%s",
		t.captureSet.String(), t.baseObjective, t.lowerbound, t.upperbound,
		t.lowerscope, t.upperscope, t.coverage, t.featureSet.String())
}

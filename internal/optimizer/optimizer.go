// Package optimizer implements the solver's branch-and-bound engine: it
// dispatches the two message kinds a worker can pop off the shared queue,
// maintains the global objective boundary, and extracts the final model
// set once the graph reaches quiescence.
//
// Grounded line-for-line on the original's optimizer.cpp (iterate, print,
// profile, cart, send_explorers, send_explorer, update_root) and
// dispatch/dispatch.cpp (dispatch, store_self/load_self, store_children/
// load_children, link_to_parent, signal_exploiters) and
// extraction/models.cpp (the recursive model-set combination). This
// package cannot import the root package (which must import it), so the
// configuration surface it needs is its own small Config struct, and
// logging/metrics observation is exposed through the optional Hooks
// struct rather than a direct dependency on the root package's Logger or
// MetricsCollector.
package optimizer

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
	"github.com/vishalbelsare/gosdt-guesses/internal/dataset"
	"github.com/vishalbelsare/gosdt-guesses/internal/errs"
	"github.com/vishalbelsare/gosdt-guesses/internal/graph"
	"github.com/vishalbelsare/gosdt-guesses/internal/model"
	"github.com/vishalbelsare/gosdt-guesses/internal/queue"
	"github.com/vishalbelsare/gosdt-guesses/internal/task"
)

// tickDuration mirrors optimizer.hpp's tick_duration: worker 0 force-checks
// termination at least this often even if no update occurred.
const tickDuration = 10000

// Config is the subset of the root package's Configuration the optimizer
// needs, translated once by the caller. WorkerLimit must already be
// resolved to a concrete worker count (a 0 meaning "match GOMAXPROCS" is a
// Driver-level concern, not this package's).
type Config struct {
	Regularization   float64
	UpperboundGuess  float64
	TimeLimitSeconds uint
	WorkerLimit      uint
	ModelLimit       uint
	DepthBudget      uint8

	ReferenceLB      bool
	LookAhead        bool
	SimilarSupport   bool
	Cancellation     bool
	FeatureTransform bool
	RuleList         bool
}

func (c Config) depthBudgetEnabled() bool { return c.DepthBudget != 0 }

// TickStats is passed to Hooks.OnTick at each worker-0 termination check.
type TickStats struct {
	Ticks      uint64
	GraphSize  int
	QueueDepth int
	Lower      float64
	Upper      float64
	Explored   uint64
	Exploited  uint64
}

// Hooks lets the caller (the root package's Fit) observe optimizer
// progress without this package depending on the root package's Logger
// or MetricsCollector types.
type Hooks struct {
	OnTick func(TickStats)
}

// LocalState is the per-worker scratch buffer, the Go analogue of
// local_state.hpp: a neighbourhood cache sized 2*numFeatures and two
// reusable scratch bitsets (ColumnBuffer, SplitBuffer).
type LocalState struct {
	Neighbourhood []*task.Task
	ColumnBuffer  *bitset.Bitset
	SplitBuffer   *bitset.Bitset
}

func newLocalState(numRows, numFeatures uint) *LocalState {
	return &LocalState{
		Neighbourhood: make([]*task.Task, 2*numFeatures),
		ColumnBuffer:  bitset.New(numRows),
		SplitBuffer:   bitset.New(numRows),
	}
}

// Optimizer holds all mutable solver state shared across workers: the
// dependency Graph, the message Queue, per-worker LocalStates, and the
// global objective boundary.
type Optimizer struct {
	cfg   Config
	ds    *dataset.Dataset
	graph *graph.Graph
	queue *queue.Queue
	hooks Hooks

	locals []*LocalState

	startTime time.Time

	ticks    atomic.Uint64
	explore  atomic.Uint64
	exploit  atomic.Uint64
	active   atomic.Bool

	mu          sync.RWMutex
	root        graph.Key
	rootOrder   []int
	globalLower float64
	globalUpper float64
}

// New constructs an Optimizer over ds. queueCapacity sizes the initial
// message queue allocation (a hint only).
func New(cfg Config, ds *dataset.Dataset, queueCapacity int, hooks Hooks) *Optimizer {
	workers := int(cfg.WorkerLimit)
	if workers < 1 {
		workers = 1
	}
	locals := make([]*LocalState, workers)
	for i := range locals {
		locals[i] = newLocalState(ds.NumRows(), ds.NumFeatures())
	}
	o := &Optimizer{
		cfg:         cfg,
		ds:          ds,
		graph:       graph.New(workers),
		queue:       queue.New(queueCapacity),
		hooks:       hooks,
		locals:      locals,
		globalLower: -math.MaxFloat64,
		globalUpper: math.MaxFloat64,
	}
	o.active.Store(true)
	return o
}

// Initialize enqueues the root exploration message and starts the wall
// clock. Must be called once before any worker calls Iterate.
func (o *Optimizer) Initialize() {
	o.startTime = time.Now()

	root := bitset.Full(o.ds.NumRows())
	root.SetDepthBudget(o.cfg.DepthBudget)
	featureSet := bitset.Full(o.ds.NumFeatures())

	o.queue.Push(queue.Message{
		Kind:                queue.Exploration,
		Priority:            math.MaxFloat64,
		RecipientCapture:    root,
		RecipientFeatureSet: featureSet,
		SignedFeature:       0,
		Scope:               math.MaxFloat64,
	})
}

// ObjectiveBoundary returns the current global (lower, upper) objective
// bound.
func (o *Optimizer) ObjectiveBoundary() (lower, upper float64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.globalLower, o.globalUpper
}

// Uncertainty returns the current global optimality gap, collapsed to
// zero within floating-point tolerance.
func (o *Optimizer) Uncertainty() float64 {
	lower, upper := o.ObjectiveBoundary()
	v := upper - lower
	if v < task.Epsilon {
		return 0
	}
	return v
}

func (o *Optimizer) complete() bool { return o.Uncertainty() == 0 }

// TimeElapsed returns the wall-clock time since Initialize, in seconds.
func (o *Optimizer) TimeElapsed() float64 { return time.Since(o.startTime).Seconds() }

func (o *Optimizer) timedOut() bool {
	return o.cfg.TimeLimitSeconds > 0 && o.TimeElapsed() > float64(o.cfg.TimeLimitSeconds)
}

// Size returns the number of vertices in the dependency graph.
func (o *Optimizer) Size() int { return o.graph.Size() }

// QueueLen returns the number of messages currently queued.
func (o *Optimizer) QueueLen() int { return o.queue.Len() }

// Graph exposes the dependency DAG for read-only diagnostic use (e.g.
// internal/checkpoint's periodic snapshots). Callers must not mutate
// vertices found through it outside of Iterate's own dispatch path.
func (o *Optimizer) Graph() *graph.Graph { return o.graph }

// Active reports whether workers should keep calling Iterate.
func (o *Optimizer) Active() bool { return o.active.Load() }

// RootOrder returns the feature permutation recorded against the root
// vertex the last time it was (re)stored, or nil before Initialize's
// message has been dispatched.
func (o *Optimizer) RootOrder() []int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.rootOrder
}

func (o *Optimizer) updateRoot(lower, upper float64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	changed := lower != o.globalLower || upper != o.globalUpper
	o.globalLower = lower
	o.globalUpper = upper
	if o.globalLower > o.globalUpper {
		o.globalLower = o.globalUpper
	}
	return changed
}

// Iterate pops and dispatches one message, and — for worker 0 — re-checks
// the termination condition. It returns whether the caller's worker loop
// should continue.
func (o *Optimizer) Iterate(workerID int) (bool, error) {
	update := false
	if msg, ok := o.queue.Pop(); ok {
		var err error
		update, err = o.dispatch(msg, workerID)
		if err != nil {
			return false, err
		}
		if msg.Kind == queue.Exploration {
			o.explore.Add(1)
		} else {
			o.exploit.Add(1)
		}
	}

	if workerID == 0 {
		ticks := o.ticks.Add(1)
		if update || o.complete() || ticks%tickDuration == 0 {
			active := !o.complete() && !o.timedOut() && (o.cfg.WorkerLimit > 1 || o.queue.Len() > 0)
			o.active.Store(active)
			if o.hooks.OnTick != nil {
				lower, upper := o.ObjectiveBoundary()
				o.hooks.OnTick(TickStats{
					Ticks:      ticks,
					GraphSize:  o.graph.Size(),
					QueueDepth: o.queue.Len(),
					Lower:      lower,
					Upper:      upper,
					Explored:   o.explore.Swap(0),
					Exploited:  o.exploit.Swap(0),
				})
			}
		}
	}
	return o.active.Load(), nil
}

func (o *Optimizer) dispatch(msg queue.Message, workerID int) (bool, error) {
	local := o.locals[workerID]
	switch msg.Kind {
	case queue.Exploration:
		return o.dispatchExploration(msg, local, workerID)
	case queue.Exploitation:
		return o.dispatchExploitation(msg, local, workerID)
	default:
		return false, errs.ErrUnknownMessageKind
	}
}

func (o *Optimizer) dispatchExploration(msg queue.Message, local *LocalState, workerID int) (bool, error) {
	captureSet := msg.RecipientCapture
	featureSet := msg.RecipientFeatureSet
	isRoot := captureSet.Full()

	tk, err := task.New(captureSet, featureSet, o.ds, o.cfg.Regularization, o.cfg.depthBudgetEnabled(), local.ColumnBuffer)
	if err != nil {
		return false, err
	}
	tk.Scope(msg.Scope)
	if err := tk.CreateChildren(o.ds, o.cfg.Regularization, o.cfg.depthBudgetEnabled(), local.Neighbourhood, local.SplitBuffer, local.ColumnBuffer); err != nil {
		return false, err
	}

	vertex, _ := o.graph.InsertVertex(graph.KeyOf(tk.CaptureSet()), tk)
	o.storeChildren(vertex, local)

	var globalUpdate bool
	if isRoot {
		rootUpper := 1.0
		if o.cfg.UpperboundGuess > 0 {
			rootUpper = math.Min(rootUpper, o.cfg.UpperboundGuess)
		}
		vertex.Update(o.cfg.Cancellation, vertex.Lowerbound(), rootUpper, -1)
		o.mu.Lock()
		o.root = graph.KeyOf(vertex.CaptureSet())
		o.rootOrder = vertex.Order()
		o.mu.Unlock()
		globalUpdate = o.updateRoot(vertex.Lowerbound(), vertex.Upperbound())
	} else {
		o.linkToParent(graph.KeyOf(msg.SenderCapture), msg.SignedFeature, msg.Scope, vertex)
		adjacency := o.graph.Edges(graph.KeyOf(vertex.CaptureSet()))
		o.signalExploiters(adjacency, vertex)
	}

	if o.cfg.ReferenceLB || msg.Scope >= vertex.Upperscope() {
		o.sendExplorers(vertex, msg.Scope, local)
	}

	return globalUpdate, nil
}

func (o *Optimizer) dispatchExploitation(msg queue.Message, local *LocalState, workerID int) (bool, error) {
	identifier := graph.KeyOf(msg.RecipientCapture)
	vertex, ok := o.graph.FindVertex(identifier)
	if !ok {
		return false, nil
	}

	if vertex.Uncertainty() == 0 ||
		(!o.cfg.ReferenceLB && vertex.Lowerbound() >= vertex.Upperscope()-task.Epsilon) {
		return false, nil
	}

	o.loadChildren(vertex, msg.RecipientFeatureSet, local)

	isRoot := vertex.CaptureSet().Full()
	if isRoot {
		return o.updateRoot(vertex.Lowerbound(), vertex.Upperbound()), nil
	}
	if adjacency, ok := o.graph.FindEdges(identifier); ok {
		o.signalExploiters(adjacency, vertex)
	}
	return false, nil
}

func combineBounds(left, right *task.Task, ruleList bool) (lower, upper float64) {
	if ruleList {
		lower = math.Min(left.Lowerbound()+right.BaseObjective(), left.BaseObjective()+right.Lowerbound())
		upper = math.Min(left.Upperbound()+right.BaseObjective(), left.BaseObjective()+right.Upperbound())
		return
	}
	return left.Lowerbound() + right.Lowerbound(), left.Upperbound() + right.Upperbound()
}

// storeChildren populates the bounds table for a freshly inserted vertex,
// the first time it is seen, from the already-computed neighbourhood.
// Grounded on dispatch.cpp's store_children, minus its feature_transform
// direct-lookup branch (see DESIGN.md's Open Question decision on
// feature-order translation for why that optimization is not ported).
func (o *Optimizer) storeChildren(vertex *task.Task, local *LocalState) {
	boundsList, created := o.graph.Bounds(graph.KeyOf(vertex.CaptureSet()))
	if !created {
		return
	}

	optimalFeature := -1
	lower, upper := vertex.BaseObjective(), vertex.BaseObjective()

	vertex.FeatureSet().ForEachSet(func(j uint) {
		left := local.Neighbourhood[2*j]
		right := local.Neighbourhood[2*j+1]
		if left == nil || right == nil {
			return
		}
		splitLower, splitUpper := combineBounds(left, right, o.cfg.RuleList)
		boundsList.Append(&graph.BoundEntry{Feature: j, Lower: splitLower, Upper: splitUpper})

		if splitLower > vertex.Upperscope() {
			return
		}
		if splitUpper < upper {
			optimalFeature = int(j)
		}
		lower = math.Min(lower, splitLower)
		upper = math.Min(upper, splitUpper)
	})

	vertex.Update(o.cfg.Cancellation, lower, upper, optimalFeature)
}

// loadChildren re-derives a vertex's bounds table after a child updated,
// tightening entries whose feature bit is signalled, applying the
// similar-support neighbour bound when enabled, then folding the result
// into the vertex via Task.Update. Grounded on dispatch.cpp's
// load_children.
func (o *Optimizer) loadChildren(vertex *task.Task, signals *bitset.Bitset, local *LocalState) {
	boundsList, created := o.graph.Bounds(graph.KeyOf(vertex.CaptureSet()))
	if created {
		return
	}

	lower, upper := vertex.BaseObjective(), vertex.BaseObjective()
	optimalFeature := -1

	boundsList.Do(func(entries []*graph.BoundEntry) {
		for i, e := range entries {
			if signals != nil && signals.Get(e.Feature) {
				leftKey, leftOK := o.graph.FindChild(graph.ChildKey{Parent: graph.KeyOf(vertex.CaptureSet()), SignedFeature: queue.EncodeSignedFeature(e.Feature, false)})
				rightKey, rightOK := o.graph.FindChild(graph.ChildKey{Parent: graph.KeyOf(vertex.CaptureSet()), SignedFeature: queue.EncodeSignedFeature(e.Feature, true)})
				if leftOK && rightOK {
					left, leftFound := o.graph.FindVertex(leftKey)
					right, rightFound := o.graph.FindVertex(rightKey)
					if leftFound && rightFound {
						local.Neighbourhood[2*e.Feature] = left
						local.Neighbourhood[2*e.Feature+1] = right
						splitLower, splitUpper := combineBounds(left, right, o.cfg.RuleList)
						e.Lower, e.Upper = splitLower, splitUpper
					}
				}
			}

			if o.cfg.SimilarSupport {
				if i > 0 {
					prev := entries[i-1]
					dist := o.ds.Distance(vertex.CaptureSet(), e.Feature, prev.Feature, local.ColumnBuffer)
					e.Lower = math.Max(e.Lower, prev.Lower-dist)
					e.Upper = math.Min(e.Upper, prev.Upper+dist)
				}
				if i < len(entries)-1 {
					next := entries[i+1]
					dist := o.ds.Distance(vertex.CaptureSet(), e.Feature, next.Feature, local.ColumnBuffer)
					e.Lower = math.Max(e.Lower, next.Lower-dist)
					e.Upper = math.Min(e.Upper, next.Upper+dist)
				}
			}

			if e.Lower > vertex.Upperscope() {
				continue
			}
			if e.Upper < upper {
				optimalFeature = int(e.Feature)
			}
			lower = math.Min(lower, e.Lower)
			upper = math.Min(upper, e.Upper)
		}
	})

	vertex.Update(o.cfg.Cancellation, lower, upper, optimalFeature)
}

// linkToParent records the forward edge, translation, and back-edge for a
// freshly dispatched child. Grounded on dispatch.cpp's link_to_parent,
// simplified to a single signed feature per call since every call site in
// the corpus passes exactly one.
func (o *Optimizer) linkToParent(parent graph.Key, signedFeature int, scope float64, self *task.Task) {
	feature, _ := queue.DecodeSignedFeature(signedFeature)
	ck := graph.ChildKey{Parent: parent, SignedFeature: signedFeature}
	o.graph.SetTranslation(ck, self.Order())
	o.graph.SetChild(ck, graph.KeyOf(self.CaptureSet()))
	adjacency := o.graph.Edges(graph.KeyOf(self.CaptureSet()))
	adjacency.Upsert(parent, feature, o.ds.NumFeatures(), scope)
}

// signalExploiters emits an exploitation message to every parent whose
// bound on self may now be stale. Grounded on dispatch.cpp's
// signal_exploiters.
func (o *Optimizer) signalExploiters(adjacency *graph.Adjacency, self *task.Task) {
	if self.Uncertainty() != 0 && self.Lowerbound() < self.Lowerscope()-task.Epsilon {
		return
	}
	adjacency.ForEach(func(parent graph.Key, edge *graph.BackEdge) {
		if edge.FeatureBits.Popcount() == 0 {
			return
		}
		if self.Lowerbound() < edge.Scope-task.Epsilon && self.Uncertainty() > 0 {
			return
		}
		parentTask, ok := o.graph.FindVertex(parent)
		if !ok {
			return
		}
		o.queue.Push(queue.Message{
			Kind:                queue.Exploitation,
			Priority:            self.Support() - self.Lowerbound(),
			RecipientCapture:    parentTask.CaptureSet(),
			RecipientFeatureSet: edge.FeatureBits,
		})
	})
}

// sendExplorers fans out exploration messages for a vertex's surviving
// split candidates after its scope envelope widens. Grounded on
// optimizer.cpp's send_explorers.
func (o *Optimizer) sendExplorers(parent *task.Task, newScope float64, local *LocalState) {
	if parent.Uncertainty() == 0 {
		return
	}
	parent.Scope(newScope)

	explorationBoundary := parent.Upperbound()
	if o.cfg.LookAhead {
		explorationBoundary = math.Min(explorationBoundary, parent.Upperscope())
	}

	parent.FeatureSet().ForEachSet(func(j uint) {
		left := local.Neighbourhood[2*j]
		right := local.Neighbourhood[2*j+1]
		if left == nil || right == nil {
			return
		}
		lower, upper := combineBounds(left, right, o.cfg.RuleList)
		if lower > explorationBoundary {
			return
		}
		if upper <= parent.Coverage() {
			return
		}

		if o.cfg.RuleList {
			o.sendExplorer(parent, left, explorationBoundary-right.BaseObjective(), queue.EncodeSignedFeature(j, false), local)
			o.sendExplorer(parent, right, explorationBoundary-left.BaseObjective(), queue.EncodeSignedFeature(j, true), local)
		} else {
			o.sendExplorer(parent, left, explorationBoundary-right.GuaranteedLowerbound(o.cfg.ReferenceLB), queue.EncodeSignedFeature(j, false), local)
			o.sendExplorer(parent, right, explorationBoundary-left.GuaranteedLowerbound(o.cfg.ReferenceLB), queue.EncodeSignedFeature(j, true), local)
		}
	})

	parent.SetCoverage(parent.Upperscope())
}

// sendExplorer enqueues one exploration edge, or — if the child is
// already known and no tighter scope is offered — merely tightens the
// existing back-edge. Grounded on optimizer.cpp's send_explorer.
func (o *Optimizer) sendExplorer(parent *task.Task, child *task.Task, scope float64, signedFeature int, local *LocalState) {
	parentKey := graph.KeyOf(parent.CaptureSet())
	ck := graph.ChildKey{Parent: parentKey, SignedFeature: signedFeature}

	send := true
	if existingKey, ok := o.graph.FindChild(ck); ok {
		if existingVertex, ok := o.graph.FindVertex(existingKey); ok {
			if scope < existingVertex.Upperscope() {
				feature, _ := queue.DecodeSignedFeature(signedFeature)
				adjacency := o.graph.Edges(existingKey)
				adjacency.Upsert(parentKey, feature, o.ds.NumFeatures(), scope)
				existingVertex.Scope(scope)
				send = false
			}
		}
	}

	if send {
		o.queue.Push(queue.Message{
			Kind:                queue.Exploration,
			Priority:            parent.Support() - parent.Lowerbound(),
			SenderCapture:       parent.CaptureSet(),
			RecipientCapture:    child.CaptureSet(),
			RecipientFeatureSet: parent.FeatureSet(),
			SignedFeature:       signedFeature,
			Scope:               scope,
		})
	}
}

// GreedyBaseline computes an information-gain-greedy CART tree's risk over
// capture/featureSet. Fit uses it to seed the root's upper bound when no
// positive upperbound_guess is configured. Grounded on optimizer.cpp's cart.
func (o *Optimizer) GreedyBaseline(capture, featureSet *bitset.Bitset, workerID int) float64 {
	local := o.locals[workerID]
	stats := o.ds.SummaryStatistics(capture, local.ColumnBuffer)
	baseRisk := stats.MaxLoss + o.cfg.Regularization

	if stats.MaxLoss-stats.MinLoss < o.cfg.Regularization ||
		1.0-stats.MinLoss < o.cfg.Regularization ||
		(stats.Potential < 2*o.cfg.Regularization && 1.0-stats.MaxLoss < o.cfg.Regularization) ||
		featureSet.Empty() {
		return baseRisk
	}

	informationMaximizer := -1
	informationGain := 0.0
	featureSet.ForEachSet(func(j uint) {
		left := capture.Clone()
		right := capture.Clone()
		o.ds.SubsetInplace(left, j, false)
		o.ds.SubsetInplace(right, j, true)
		if left.Empty() || right.Empty() {
			return
		}
		leftStats := o.ds.SummaryStatistics(left, local.ColumnBuffer)
		rightStats := o.ds.SummaryStatistics(right, local.ColumnBuffer)
		gain := leftStats.Information + rightStats.Information - stats.Information
		if gain > informationGain {
			informationMaximizer = int(j)
			informationGain = gain
		}
	})
	if informationMaximizer == -1 {
		return baseRisk
	}

	left := capture.Clone()
	right := capture.Clone()
	o.ds.SubsetInplace(left, uint(informationMaximizer), false)
	o.ds.SubsetInplace(right, uint(informationMaximizer), true)
	risk := o.GreedyBaseline(left, featureSet, workerID) + o.GreedyBaseline(right, featureSet, workerID)
	return math.Min(risk, baseRisk)
}

// modelCollector extracts the set of equally-optimal models rooted at a
// vertex, memoizing by capture-set identity: unlike extraction/models.cpp,
// which recomputes a subtree's model set on every path that reaches it,
// this caches by Key, which is sound because a vertex's bounds and
// upperbound no longer change once extraction begins (the graph has
// reached quiescence).
type modelCollector struct {
	o     *Optimizer
	limit int
	cache map[graph.Key][]*model.Model
}

// Models extracts up to ModelLimit equally-optimal models from the root.
// Returns nil if ModelLimit is 0 or Initialize has not yet produced
// a root. Grounded on extraction/models.cpp's two-argument models().
func (o *Optimizer) Models() []*model.Model {
	if o.cfg.ModelLimit == 0 {
		return nil
	}
	o.mu.RLock()
	root := o.root
	o.mu.RUnlock()
	if root == "" {
		return nil
	}
	mc := &modelCollector{o: o, limit: int(o.cfg.ModelLimit), cache: make(map[graph.Key][]*model.Model)}
	return mc.collect(root)
}

func (mc *modelCollector) collect(identifier graph.Key) []*model.Model {
	if cached, ok := mc.cache[identifier]; ok {
		return cached
	}

	vertex, ok := mc.o.graph.FindVertex(identifier)
	if !ok {
		return nil
	}
	local := mc.o.locals[0]

	var results []*model.Model
	if vertex.BaseObjective() <= vertex.Upperbound()+task.Epsilon {
		results = append(results, model.NewLeaf(mc.o.ds, vertex.CaptureSet(), local.ColumnBuffer, mc.o.cfg.Regularization))
	}

	boundsList, created := mc.o.graph.Bounds(identifier)
	if created {
		mc.cache[identifier] = results
		return results
	}

	for _, e := range boundsList.Entries() {
		if e.Upper > vertex.Upperbound()+task.Epsilon {
			continue
		}
		feature := e.Feature

		negatives := mc.sideModels(identifier, vertex, feature, false, local)
		positives := mc.sideModels(identifier, vertex, feature, true, local)
		if len(negatives) == 0 || len(positives) == 0 {
			continue
		}

		originalFeature, ok := mc.o.ds.OriginalFeature(feature)
		if !ok {
			originalFeature = feature
		}

		if mc.o.cfg.RuleList {
			negLeaf := mc.leafForSplit(vertex, feature, false, local)
			posLeaf := mc.leafForSplit(vertex, feature, true, local)
			for _, neg := range negatives {
				risk := posLeaf.Objective() + neg.TotalLoss() + neg.TotalComplexity()
				if risk <= vertex.Upperbound()+task.Epsilon && (mc.limit == 0 || len(results) < mc.limit) {
					results = append(results, model.NewSplit(originalFeature, neg, posLeaf))
				}
			}
			for _, pos := range positives {
				risk := negLeaf.Objective() + pos.TotalLoss() + pos.TotalComplexity()
				if risk <= vertex.Upperbound()+task.Epsilon && (mc.limit == 0 || len(results) < mc.limit) {
					results = append(results, model.NewSplit(originalFeature, negLeaf, pos))
				}
			}
		} else {
			for _, neg := range negatives {
				for _, pos := range positives {
					if mc.limit > 0 && len(results) >= mc.limit {
						continue
					}
					results = append(results, model.NewSplit(originalFeature, neg, pos))
				}
			}
		}
	}

	mc.cache[identifier] = results
	return results
}

func (mc *modelCollector) sideModels(parent graph.Key, vertex *task.Task, feature uint, positive bool, local *LocalState) []*model.Model {
	ck := graph.ChildKey{Parent: parent, SignedFeature: queue.EncodeSignedFeature(feature, positive)}
	if childKey, ok := mc.o.graph.FindChild(ck); ok {
		return mc.collect(childKey)
	}
	return []*model.Model{mc.leafForSplit(vertex, feature, positive, local)}
}

func (mc *modelCollector) leafForSplit(vertex *task.Task, feature uint, positive bool, local *LocalState) *model.Model {
	subset := vertex.CaptureSet().Clone()
	mc.o.ds.SubsetInplace(subset, feature, positive)
	if mc.o.cfg.depthBudgetEnabled() {
		subset.SetDepthBudget(subset.DepthBudget() - 1)
	}
	return model.NewLeaf(mc.o.ds, subset, local.ColumnBuffer, mc.o.cfg.Regularization)
}

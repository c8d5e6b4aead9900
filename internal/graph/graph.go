// Package graph implements the solver's shared dependency DAG: a set of
// concurrent associative containers keyed by capture-set identity, with
// point-locking accessors so many workers can read and update disjoint
// vertices without contending on a single global lock.
//
// Grounded on the original's dispatch.cpp (the five maps it drives through
// vertex_accessor/adjacency_accessor/bound_accessor/child_accessor handles:
// vertices, edges, children, translations, bounds) and graph.cpp (clear,
// size). The sharded-mutex concurrency shape is carried over from the
// teacher's internal/hnsw.HNSW, which guards its adjacency structures with a
// fixed-size []sync.RWMutex indexed by a hash of the node id instead of tbb's
// concurrent_hash_map.
package graph

import (
	"hash/fnv"
	"runtime"
	"sync"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
	"github.com/vishalbelsare/gosdt-guesses/internal/task"
)

// Key identifies a vertex by the exact content of its capture set. Content
// (not the 32-bit hash alone) is used as the map key so that two distinct
// capture sets which happen to collide under Hash never alias each other;
// the shard is picked by an FNV-64a hash of the Key string itself.
type Key string

// KeyOf derives the Key for a capture set.
func KeyOf(capture *bitset.Bitset) Key {
	return Key(capture.String())
}

// ChildKey identifies one forward edge: a parent vertex and the signed
// feature (positive: feature+1, negative: -(feature+1)) that produced it.
type ChildKey struct {
	Parent        Key
	SignedFeature int
}

// BoundEntry is one row of a vertex's per-feature split-bound table,
// tracking the tightest known [lower, upper] objective interval achievable
// by splitting on Feature.
type BoundEntry struct {
	Feature uint
	Lower   float64
	Upper   float64
}

// BoundList is the mutex-guarded, insertion-ordered table of BoundEntry rows
// for one vertex. The optimizer both appends to it once (store_children) and
// repeatedly mutates existing entries in place (load_children), so it needs
// its own lock independent of the shard lock that guards table membership.
type BoundList struct {
	mu      sync.Mutex
	entries []*BoundEntry
}

// Entries returns the bound rows in insertion order. Callers must hold no
// assumption of stability across concurrent mutation; use Do for
// read-modify-write access.
func (b *BoundList) Entries() []*BoundEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*BoundEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Append adds a new row. Used once, by store_children.
func (b *BoundList) Append(e *BoundEntry) {
	b.mu.Lock()
	b.entries = append(b.entries, e)
	b.mu.Unlock()
}

// Do runs fn with exclusive access to the entry slice, for the in-place
// tightening load_children performs (including its similar-support
// neighbour comparisons, which need index-adjacent entries).
func (b *BoundList) Do(fn func(entries []*BoundEntry)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.entries)
}

// BackEdge is one row of a vertex's back-edge table: the split-feature bits
// of the parent that this child satisfies, and the minimum scope under
// which any of those edges was created.
type BackEdge struct {
	FeatureBits *bitset.Bitset
	Scope       float64
}

// Adjacency is the mutex-guarded back-edge table for one child vertex,
// mapping each parent Key to the BackEdge describing that relationship.
type Adjacency struct {
	mu      sync.Mutex
	parents map[Key]*BackEdge
}

// ForEach visits every (parent, edge) pair under the table's lock.
func (a *Adjacency) ForEach(fn func(parent Key, edge *BackEdge)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range a.parents {
		fn(k, v)
	}
}

// Upsert inserts the parent->BackEdge row if absent, or folds featureBit and
// scope into the existing row (bit OR, scope min) if present.
func (a *Adjacency) Upsert(parent Key, featureBit uint, numFeatures uint, scope float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	edge, ok := a.parents[parent]
	if !ok {
		edge = &BackEdge{FeatureBits: bitset.New(numFeatures), Scope: scope}
		a.parents[parent] = edge
	}
	edge.FeatureBits.Set(featureBit, true)
	if scope < edge.Scope {
		edge.Scope = scope
	}
}

// shardCount rounds workerHint*4 up to the next power of two, the sharding
// rule the expanded specification settles on for bounding lock contention
// without over-allocating for small worker counts.
func shardCount(workerHint int) int {
	if workerHint <= 0 {
		workerHint = runtime.GOMAXPROCS(0)
	}
	n := workerHint * 4
	p := 1
	for p < n {
		p <<= 1
	}
	if p < 1 {
		p = 1
	}
	return p
}

func shardIndex(b []byte, numShards int) int {
	h := fnv.New64a()
	h.Write(b)
	return int(h.Sum64() & uint64(numShards-1))
}

type vertexShard struct {
	mu sync.RWMutex
	m  map[Key]*task.Task
}

type boundShard struct {
	mu sync.Mutex
	m  map[Key]*BoundList
}

type childShard struct {
	mu sync.RWMutex
	m  map[ChildKey]Key
}

type translationShard struct {
	mu sync.RWMutex
	m  map[ChildKey][]int
}

type adjacencyShard struct {
	mu sync.RWMutex
	m  map[Key]*Adjacency
}

// Graph is the solver's shared dependency DAG. All methods are safe for
// concurrent use by multiple workers.
type Graph struct {
	vertices     []*vertexShard
	bounds       []*boundShard
	children     []*childShard
	translations []*translationShard
	edges        []*adjacencyShard

	size atomicCounter
}

// New returns an empty Graph sharded for workerHint concurrent workers (see
// shardCount). A workerHint of 0 uses runtime.GOMAXPROCS(0).
func New(workerHint int) *Graph {
	n := shardCount(workerHint)
	g := &Graph{
		vertices:     make([]*vertexShard, n),
		bounds:       make([]*boundShard, n),
		children:     make([]*childShard, n),
		translations: make([]*translationShard, n),
		edges:        make([]*adjacencyShard, n),
	}
	for i := 0; i < n; i++ {
		g.vertices[i] = &vertexShard{m: make(map[Key]*task.Task)}
		g.bounds[i] = &boundShard{m: make(map[Key]*BoundList)}
		g.children[i] = &childShard{m: make(map[ChildKey]Key)}
		g.translations[i] = &translationShard{m: make(map[ChildKey][]int)}
		g.edges[i] = &adjacencyShard{m: make(map[Key]*Adjacency)}
	}
	return g
}

func (g *Graph) vertexShardFor(k Key) *vertexShard {
	return g.vertices[shardIndex([]byte(k), len(g.vertices))]
}

func (g *Graph) boundShardFor(k Key) *boundShard {
	return g.bounds[shardIndex([]byte(k), len(g.bounds))]
}

func (g *Graph) edgeShardFor(k Key) *adjacencyShard {
	return g.edges[shardIndex([]byte(k), len(g.edges))]
}

func childKeyBytes(ck ChildKey) []byte {
	buf := make([]byte, 0, len(ck.Parent)+8)
	buf = append(buf, ck.Parent...)
	buf = append(buf, byte(ck.SignedFeature), byte(ck.SignedFeature>>8), byte(ck.SignedFeature>>16), byte(ck.SignedFeature>>24))
	return buf
}

func (g *Graph) childShardFor(ck ChildKey) *childShard {
	return g.children[shardIndex(childKeyBytes(ck), len(g.children))]
}

func (g *Graph) translationShardFor(ck ChildKey) *translationShard {
	return g.translations[shardIndex(childKeyBytes(ck), len(g.translations))]
}

// FindVertex looks up the Task stored under k. The shard lock guards only
// map membership: it is released before FindVertex returns, so the *Task it
// hands back is a pointer shared with every other worker that has looked up
// or will look up the same key. Task guards its own mutable fields with an
// internal mutex, so callers may call its accessors and Update/Scope/
// SetCoverage without holding any lock of their own.
func (g *Graph) FindVertex(k Key) (*task.Task, bool) {
	s := g.vertexShardFor(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.m[k]
	return t, ok
}

// InsertVertex idempotently inserts t under k: if a vertex already exists
// under k, it is returned unchanged and inserted is false; otherwise t is
// stored and inserted is true. This mirrors tbb::concurrent_hash_map::insert
// returning an accessor to whichever value ends up resident.
func (g *Graph) InsertVertex(k Key, t *task.Task) (existing *task.Task, inserted bool) {
	s := g.vertexShardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.m[k]; ok {
		return cur, false
	}
	s.m[k] = t
	g.size.add(1)
	return t, true
}

// Bounds returns the BoundList for k, creating an empty one if absent.
// created reports whether this call created it, mirroring store_children's
// guard against re-deriving bounds for a vertex that already has them.
func (g *Graph) Bounds(k Key) (list *BoundList, created bool) {
	s := g.boundShardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.m[k]; ok {
		return l, false
	}
	l := &BoundList{}
	s.m[k] = l
	return l, true
}

// FindChild looks up the forward edge (parent, signedFeature) -> child.
func (g *Graph) FindChild(ck ChildKey) (Key, bool) {
	s := g.childShardFor(ck)
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.m[ck]
	return k, ok
}

// SetChild records the forward edge (parent, signedFeature) -> child.
func (g *Graph) SetChild(ck ChildKey, child Key) {
	s := g.childShardFor(ck)
	s.mu.Lock()
	s.m[ck] = child
	s.mu.Unlock()
}

// FindTranslation looks up the feature-permutation recorded for a
// (parent, signedFeature) edge.
func (g *Graph) FindTranslation(ck ChildKey) ([]int, bool) {
	s := g.translationShardFor(ck)
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.m[ck]
	return order, ok
}

// SetTranslation records the feature-permutation for a (parent,
// signedFeature) edge.
func (g *Graph) SetTranslation(ck ChildKey, order []int) {
	s := g.translationShardFor(ck)
	s.mu.Lock()
	s.m[ck] = order
	s.mu.Unlock()
}

// Edges returns the back-edge Adjacency table for child vertex k, creating
// an empty one if absent.
func (g *Graph) Edges(k Key) *Adjacency {
	s := g.edgeShardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.m[k]
	if !ok {
		a = &Adjacency{parents: make(map[Key]*BackEdge)}
		s.m[k] = a
	}
	return a
}

// FindEdges looks up the back-edge Adjacency table for k without creating
// one, reporting whether it exists.
func (g *Graph) FindEdges(k Key) (*Adjacency, bool) {
	s := g.edgeShardFor(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.m[k]
	return a, ok
}

// Size returns the number of vertices currently stored.
func (g *Graph) Size() int { return g.size.load() }

// ForEachVertex visits every (Key, Task) pair currently stored, shard by
// shard. Each shard is visited under its own read lock, so a concurrent
// InsertVertex on another shard is never blocked; a vertex inserted mid-walk
// may or may not be observed, the same weak consistency store_children's
// snapshotting offers in the original.
func (g *Graph) ForEachVertex(fn func(Key, *task.Task)) {
	for _, s := range g.vertices {
		s.mu.RLock()
		for k, t := range s.m {
			fn(k, t)
		}
		s.mu.RUnlock()
	}
}

// Clear empties every table. Not safe to call concurrently with any other
// method; intended for reuse between independent Fit calls sharing a Graph.
func (g *Graph) Clear() {
	for _, s := range g.vertices {
		s.mu.Lock()
		s.m = make(map[Key]*task.Task)
		s.mu.Unlock()
	}
	for _, s := range g.bounds {
		s.mu.Lock()
		s.m = make(map[Key]*BoundList)
		s.mu.Unlock()
	}
	for _, s := range g.children {
		s.mu.Lock()
		s.m = make(map[ChildKey]Key)
		s.mu.Unlock()
	}
	for _, s := range g.translations {
		s.mu.Lock()
		s.m = make(map[ChildKey][]int)
		s.mu.Unlock()
	}
	for _, s := range g.edges {
		s.mu.Lock()
		s.m = make(map[Key]*Adjacency)
		s.mu.Unlock()
	}
	g.size.store(0)
}

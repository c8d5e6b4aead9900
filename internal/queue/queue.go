// Package queue implements the solver's shared message queue: a
// thread-safe max-priority heap of Exploration/Exploitation messages.
//
// The heap mechanics (value-based storage, explicit sift up/down, Len/Less/
// Swap/Push/Pop satisfying container/heap.Interface) are carried over
// directly from the teacher's internal/queue/queue.go, generalized from a
// single numeric PriorityQueueItem to the tagged Message type spec.md §4.5
// calls for.
package queue

import (
	"container/heap"
	"sync"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
)

// Kind distinguishes the two message variants.
type Kind uint8

const (
	// Exploration is a downward edge that spawns or revisits a child
	// subproblem.
	Exploration Kind = iota
	// Exploitation is an upward edge signalling that the sender's bounds
	// may have tightened one of the recipient's split-feature bounds.
	Exploitation
)

func (k Kind) String() string {
	if k == Exploitation {
		return "exploitation"
	}
	return "exploration"
}

// Message is a single queue entry. Fields are interpreted according to
// Kind: Exploration carries the parent's own capture set plus the freshly
// computed child capture set and feature set; Exploitation carries only
// the recipient's identity and the set of features whose bounds may need
// tightening.
type Message struct {
	Kind     Kind
	Priority float64

	// SenderCapture is the capture set of the Task that produced this
	// message: the parent, for Exploration. Unused for Exploitation, whose
	// sender is recovered from the Graph's back-edges instead.
	SenderCapture *bitset.Bitset

	// RecipientCapture is the child capture set (Exploration), or the
	// existing vertex to reload (Exploitation).
	RecipientCapture *bitset.Bitset

	// RecipientFeatureSet is the feature set to classify the new child with
	// (Exploration), or the signaled-features bitmask whose bounds may have
	// tightened (Exploitation).
	RecipientFeatureSet *bitset.Bitset

	// SignedFeature encodes the feature index and split side that produced
	// this edge: positive values are feature+1 on the positive side,
	// negative values are -(feature+1) on the negative side. Exploration
	// only.
	SignedFeature int

	// Scope is the look-ahead scope value carried by an exploration edge.
	Scope float64
}

// EncodeSignedFeature packs a feature index and split side into the
// SignedFeature convention used by Message and the Graph's children map.
func EncodeSignedFeature(feature uint, positive bool) int {
	if positive {
		return int(feature) + 1
	}
	return -(int(feature) + 1)
}

// DecodeSignedFeature unpacks a SignedFeature value.
func DecodeSignedFeature(signed int) (feature uint, positive bool) {
	if signed > 0 {
		return uint(signed - 1), true
	}
	return uint(-signed - 1), false
}

// messageHeap implements heap.Interface over Messages ordered by Priority,
// max-first.
type messageHeap struct {
	items []Message
}

var _ heap.Interface = (*messageHeap)(nil)

func (h *messageHeap) Len() int            { return len(h.items) }
func (h *messageHeap) Less(i, j int) bool  { return h.items[i].Priority > h.items[j].Priority }
func (h *messageHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *messageHeap) Push(x any) {
	h.items = append(h.items, x.(Message))
}

func (h *messageHeap) Pop() any {
	n := len(h.items)
	item := h.items[n-1]
	h.items[n-1] = Message{}
	h.items = h.items[:n-1]
	return item
}

// Queue is a thread-safe max-priority queue of Messages. Push and Pop hold
// an internal mutex for the duration of the heap operation; this is the
// concurrency-safe counterpart of the teacher's internal/queue.PriorityQueue,
// which is itself used only under a caller-held lock.
type Queue struct {
	mu   sync.Mutex
	heap messageHeap
}

// New returns an empty Queue with the given initial capacity hint.
func New(capacity int) *Queue {
	return &Queue{heap: messageHeap{items: make([]Message, 0, capacity)}}
}

// Push inserts a message, maintaining the heap invariant.
func (q *Queue) Push(m Message) {
	q.mu.Lock()
	heap.Push(&q.heap, m)
	q.mu.Unlock()
}

// Pop removes and returns the highest-priority message. ok is false if the
// queue was empty.
func (q *Queue) Pop() (m Message, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.heap.Len() == 0 {
		return Message{}, false
	}
	return heap.Pop(&q.heap).(Message), true
}

// Len returns the current number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// Empty reports whether the queue currently holds no messages.
func (q *Queue) Empty() bool { return q.Len() == 0 }

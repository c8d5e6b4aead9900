// Package bitset implements the fixed-size, value-typed bit vector used as
// the capture-set and feature-set identifier throughout the solver.
//
// Unlike the teacher's own internal/bitset (a lock-free, dynamically
// growing, atomic bitset meant to be mutated concurrently in place), this
// Bitset is built once and never mutated again after it is published as a
// dependency-graph key: equality, ordering, and hashing are all by content,
// exactly as required by the branch-and-bound memo.
package bitset

import (
	"math/bits"

	extbitset "github.com/bits-and-blooms/bitset"

	"github.com/vishalbelsare/gosdt-guesses/internal/hash"
)

// Bitset is a fixed-length bit vector with an auxiliary depth-budget byte
// that participates in equality and hashing.
type Bitset struct {
	words       *extbitset.BitSet
	size        uint
	depthBudget uint8
}

// New creates an all-zero Bitset of the given size.
func New(size uint) *Bitset {
	return &Bitset{words: extbitset.New(size), size: size}
}

// Full creates an all-one Bitset of the given size.
func Full(size uint) *Bitset {
	b := New(size)
	for i := uint(0); i < size; i++ {
		b.words.Set(i)
	}
	return b
}

// FromBools builds a Bitset from a slice of booleans, one bit per entry.
func FromBools(values []bool) *Bitset {
	b := New(uint(len(values)))
	for i, v := range values {
		if v {
			b.words.Set(uint(i))
		}
	}
	return b
}

// Clone returns a deep, independent copy.
func (b *Bitset) Clone() *Bitset {
	return &Bitset{words: b.words.Clone(), size: b.size, depthBudget: b.depthBudget}
}

// CopyFrom overwrites the receiver's bits and depth budget with other's.
// Both Bitsets must share the same size; this is the Go analogue of the
// original's `Bitmask::operator=`, used to avoid allocation on hot paths
// (summary_statistics, distance) that reuse a scratch Bitset.
func (b *Bitset) CopyFrom(other *Bitset) {
	other.words.Copy(b.words)
	b.depthBudget = other.depthBudget
}

// Size returns the fixed number of addressable bits.
func (b *Bitset) Size() uint { return b.size }

// Get returns the bit at index i.
func (b *Bitset) Get(i uint) bool { return b.words.Test(i) }

// Set sets the bit at index i to v.
func (b *Bitset) Set(i uint, v bool) {
	if v {
		b.words.Set(i)
	} else {
		b.words.Clear(i)
	}
}

// Popcount returns the number of set bits.
func (b *Bitset) Popcount() uint { return b.words.Count() }

// Empty reports whether no bits are set.
func (b *Bitset) Empty() bool { return b.words.None() }

// Full reports whether every bit is set.
func (b *Bitset) Full() bool { return b.words.Count() == b.size }

// DepthBudget returns the auxiliary depth-budget byte.
func (b *Bitset) DepthBudget() uint8 { return b.depthBudget }

// SetDepthBudget sets the auxiliary depth-budget byte.
func (b *Bitset) SetDepthBudget(d uint8) { b.depthBudget = d }

// AndInPlace sets the receiver to receiver AND other.
func (b *Bitset) AndInPlace(other *Bitset) { b.words.InPlaceIntersection(other.words) }

// OrInPlace sets the receiver to receiver OR other.
func (b *Bitset) OrInPlace(other *Bitset) { b.words.InPlaceUnion(other.words) }

// XorInPlace sets the receiver to receiver XOR other.
func (b *Bitset) XorInPlace(other *Bitset) { b.words.InPlaceSymmetricDifference(other.words) }

// XnorInPlace sets the receiver to NOT(receiver XOR other).
func (b *Bitset) XnorInPlace(other *Bitset) {
	b.words.InPlaceSymmetricDifference(other.words)
	b.flipAndClean()
}

// NotInPlace sets the receiver to its bitwise complement.
func (b *Bitset) NotInPlace() { b.flipAndClean() }

func (b *Bitset) flipAndClean() {
	words := b.words.Bytes()
	for i := range words {
		words[i] = ^words[i]
	}
	b.cleanTail(words)
}

// cleanTail masks off any bits beyond size in the final word. Every mutating
// bulk op that can introduce tail garbage (NOT, XNOR) must call this so that
// callers can rely on Popcount/Equal/Hash never seeing bits beyond size.
func (b *Bitset) cleanTail(words []uint64) {
	if b.size == 0 || len(words) == 0 {
		return
	}
	if b.size%64 == 0 {
		return
	}
	last := (b.size - 1) / 64
	if last >= uint(len(words)) {
		return
	}
	mask := uint64(1)<<(b.size%64) - 1
	words[last] &= mask
}

// And stores left AND right into result.
func And(left, right, result *Bitset) {
	result.CopyFrom(left)
	result.AndInPlace(right)
}

// Or stores left OR right into result.
func Or(left, right, result *Bitset) {
	result.CopyFrom(left)
	result.OrInPlace(right)
}

// Xor stores left XOR right into result.
func Xor(left, right, result *Bitset) {
	result.CopyFrom(left)
	result.XorInPlace(right)
}

// Xnor stores NOT(left XOR right) into result.
func Xnor(left, right, result *Bitset) {
	result.CopyFrom(left)
	result.XnorInPlace(right)
}

// Not stores the complement of left into result.
func Not(left, result *Bitset) {
	result.CopyFrom(left)
	result.NotInPlace()
}

// Equal reports whether two Bitsets have identical bits, size, and depth
// budget.
func (b *Bitset) Equal(other *Bitset) bool {
	if other == nil {
		return false
	}
	return b.size == other.size && b.depthBudget == other.depthBudget && b.words.Equal(other.words)
}

// Compare orders two same-size Bitsets lexicographically on their underlying
// words, most-significant word first.
func (b *Bitset) Compare(other *Bitset) int {
	lw, rw := b.words.Bytes(), other.words.Bytes()
	for i := len(lw) - 1; i >= 0; i-- {
		var r uint64
		if i < len(rw) {
			r = rw[i]
		}
		if lw[i] != r {
			if lw[i] < r {
				return -1
			}
			return 1
		}
	}
	if len(rw) > len(lw) {
		for i := len(lw); i < len(rw); i++ {
			if rw[i] != 0 {
				return -1
			}
		}
	}
	return 0
}

// Hash returns a stable content hash folded over the underlying words, the
// size, and the depth budget.
func (b *Bitset) Hash() uint32 {
	return hash.Bitmask(b.words.Bytes(), b.size, b.depthBudget)
}

// Scan returns the first index >= start holding value, or Size() if none
// exists.
func (b *Bitset) Scan(start uint, value bool) uint {
	if start >= b.size {
		return b.size
	}
	var (
		idx uint
		ok  bool
	)
	if value {
		idx, ok = b.words.NextSet(start)
	} else {
		idx, ok = b.words.NextClear(start)
	}
	if !ok || idx >= b.size {
		return b.size
	}
	return idx
}

// Rscan returns the last index <= start holding value, or -1 if none exists.
func (b *Bitset) Rscan(start int, value bool) int {
	if start < 0 {
		return -1
	}
	if uint(start) >= b.size {
		start = int(b.size) - 1
	}
	words := b.words.Bytes()
	wordIdx := start / 64
	bitIdx := uint(start % 64)

	word := words[wordIdx]
	if !value {
		word = ^word
	}
	var mask uint64
	if bitIdx == 63 {
		mask = ^uint64(0)
	} else {
		mask = uint64(1)<<(bitIdx+1) - 1
	}
	word &= mask

	for word == 0 {
		wordIdx--
		if wordIdx < 0 {
			return -1
		}
		word = words[wordIdx]
		if !value {
			word = ^word
		}
	}
	high := 63 - bits.LeadingZeros64(word)
	return wordIdx*64 + high
}

// ScanRange finds the next maximal run of value starting the search at
// *begin, writing the run's [begin, end) back through the pointers. It
// reports false once no further run exists.
func (b *Bitset) ScanRange(value bool, begin, end *int) bool {
	if *begin >= int(b.size) {
		return false
	}
	nb := b.Scan(uint(*begin), value)
	if nb >= b.size {
		return false
	}
	*begin = int(nb)
	ne := b.Scan(uint(*begin), !value)
	*end = int(ne)
	return true
}

// ForEachSet yields each set-bit index in ascending order.
func (b *Bitset) ForEachSet(fn func(i uint)) {
	for i, ok := b.words.NextSet(0); ok && i < b.size; i, ok = b.words.NextSet(i + 1) {
		fn(i)
	}
}

// String renders the bitset as a '0'/'1' string, most significant (highest
// index) bit first, mirroring the original's to_string(reverse=true).
func (b *Bitset) String() string {
	out := make([]byte, b.size)
	for i := uint(0); i < b.size; i++ {
		if b.Get(b.size - 1 - i) {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}

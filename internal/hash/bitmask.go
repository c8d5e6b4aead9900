package hash

import (
	"encoding/binary"
	"hash/crc32"
)

// castagnoliTable is computed once at package init instead of on every
// Bitmask call, since a capture set's identity is hashed on nearly every
// vertex lookup.
var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// Bitmask computes a stable content hash over a packed bit vector's raw
// words, its bit length, and its depth-budget byte.
//
// Two Bitmasks that differ in any of those three inputs must (with
// overwhelming probability) hash differently. Bitset.Hash exposes it; the
// Graph does not use it (internal/graph shards by an FNV-64a hash of the
// capture set's Key string).
func Bitmask(words []uint64, size uint, depthBudget uint8) uint32 {
	buf := make([]byte, 8*len(words)+9)
	for i, w := range words {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	off := 8 * len(words)
	binary.LittleEndian.PutUint64(buf[off:], uint64(size))
	buf[off+8] = depthBudget

	return crc32.Checksum(buf, castagnoliTable)
}

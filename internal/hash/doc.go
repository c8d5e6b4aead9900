// Package hash computes a capture set's content hash (Bitset.Hash). The
// dependency graph does not shard by it; see internal/graph.
//
// # CRC32-Castagnoli (CRC32C)
//
// Bitmask hashes a capture set with CRC32-Castagnoli rather than plain
// CRC32-IEEE:
//
//   - hardware acceleration on x86 (SSE4.2) and ARM (CRC extension)
//   - better error detection than CRC32-IEEE
//   - the same polynomial iSCSI, Btrfs, and RocksDB use for the same reason
//
// # Usage
//
//	sum := hash.Bitmask(words, size, depthBudget)
package hash

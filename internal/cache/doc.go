// Package cache provides LRU caching for block data read through
// blobstore.CachingStore: fixed-size ranges of a `.bfg_colors` blob fetched
// from a remote backend.
//
// # Block Cache (RAM)
//
// The ShardedLRUBlockCache stores recently accessed blob blocks.
// It uses 64-way sharding for high concurrency (~18ns access under parallel load).
//
// Key features:
//   - Lock-free shard selection using a seeded hash/maphash
//   - Per-shard mutex for minimal contention
//
// # Disk Cache (L2)
//
// For cloud storage backends, DiskBlockCache provides a persistent L2 cache:
//   - Async writes to keep the read path unblocked
//   - LRU eviction with configurable size limits
//   - Rebuilds index from disk on startup
package cache

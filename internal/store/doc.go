// Package store provides SQLite-backed durable storage for materialization
// records.
//
// Each record describes one lowered tree:
//   - Identity: a UUIDv7 id and a store-assigned seq
//   - Origin: the document name and source path
//   - Shape: root kind, result type, node and variable counts
//   - Content: the canonical JSON encoding and its hash
//
// # Ordering
//
// Queries order by seq, a logical clock assigned on insert, never by wall
// time. Two stores fed the same documents in the same order hold the same
// seq values.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Hashes are produced by internal/expr.Hash over the canonical encoding.
package store

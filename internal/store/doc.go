// Package store provides SQLite-backed durable storage for the bake log.
//
// The store is an append-only log with:
//   - Bakes: one row per recipe run (recipe, hashes, status, output)
//   - Bake steps: one row per executed step, in event order
//
// # Critical Patterns
//
// Logical Identity and Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - The CLI seeds the engine clock from MaxSeq so seqs stay unique
//
// Atomic Bakes
//   - A bake row and its step rows are written in one transaction
//   - Writing the same bake ID twice is a no-op
//
// Deterministic Query Results
//   - All queries MUST include: ORDER BY seq ASC, id COLLATE BINARY ASC
//   - History filters are compiled through queryir/querysql
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - Schema migrations run under a file lock (path + ".lock") so two
//     processes opening a fresh log do not race
//
// Recipe and input hashes are computed in internal/ir/hash.go using RFC 8785
// canonical JSON and SHA-256 with domain separation.
package store

// Package store keeps a SQLite catalogue of compiled DynamoDB requests.
//
// Each record holds the compiled expressions and the side table in wire
// JSON, together with:
//   - ID: a UUIDv7, so ids sort roughly by creation time
//   - Fingerprint: SHA-256 over canonical JSON with a domain prefix
//   - Seq: the insertion order used by List
//
// Saving is idempotent on the fingerprint. Compiling the same document
// twice yields the same placeholders and values, so the second Save returns
// the first record instead of adding another.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - Schema version tracked in PRAGMA user_version
package store

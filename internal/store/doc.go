// Package store provides SQLite-backed storage for engine checkpoints.
//
// A checkpoint is the latest transition of one engine: its sequence number,
// current active set and previous active set. Checkpoints are keyed by the
// hash of the definitions the engine watches, so a restarted process with the
// same definitions finds its predecessor's state. Only the latest pair is
// kept; older transitions are overwritten, never appended.
//
// # Critical Patterns
//
// Logical Identity and Time
//   - Ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - A write from the same engine with a lower or equal seq is ignored
//
// Deterministic Serialization
//   - Active sets and definitions are stored as canonical JSON TEXT
//   - List queries ORDER BY definitions_hash COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s on lock contention
//   - Single connection: one writer, no SQLITE_BUSY
//   - user_version: schema version; Open refuses a newer one (ErrSchemaTooNew)
package store

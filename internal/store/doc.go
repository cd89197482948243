// Package store provides SQLite-backed durable storage for circles.
//
// Four tables:
//   - circles: latest snapshot of each circle plus the seq that produced it
//   - events: append-only log of accepted operations, one row per seq
//   - activity_records: completed-circle summaries, one per (member, circle)
//   - trust_profiles: each member's current trust profile
//
// # Ordering
//
// All ordering uses the per-circle seq column, never wall-clock timestamps.
// Event reads use ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// # Atomicity
//
// Commit writes a snapshot, its event and any activity records in one
// transaction and refuses an event whose seq does not follow the stored
// one. Event IDs are content-addressed (model.EventID), so re-committing
// the same event is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

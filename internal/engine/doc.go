// Package engine applies operations to savings circles and persists them.
//
// # Serialization
//
// Each circle is the unit of serialization: the engine keeps one mutex per
// circle and holds it for the whole of an operation (load, apply, commit).
// Operations on different circles run in parallel. There is no engine-wide
// lock on the operation path; the circles map lock is held only to look up
// or insert an entry.
//
// # All-or-nothing
//
// An operation is applied to a clone of the cached circle. The clone is
// committed (snapshot + event + activity records in one transaction) and
// only then swapped in. A rejected operation or a failed commit leaves the
// cached circle and the store untouched.
//
// # Logical Clock
//
// Each circle's events carry a seq from its own Clock, starting at 1 with
// circle.created. Event IDs are content-addressed from (circle, seq, kind,
// payload), so the log is idempotent under retries.
//
// # Trust hand-off
//
// When an operation completes a circle the emitted ActivityRecords are
// committed with it and then submitted to the trust.Tracker, whose worker
// applies them asynchronously under per-member locks. Circle locks and
// trust locks are never held together.
package engine

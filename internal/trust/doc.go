// Package trust implements the trust tier engine.
//
// A member's tier is a pure function of cumulative stats (circles joined,
// circles completed, on-time contribution rate, verification level).
// Stats only grow through ActivityRecords, which are produced once per member
// when a circle completes, and through verification changes.
//
// CONCURRENCY:
//
// Each member profile has its own lock. The Tracker never shares a lock with
// circle mutation: circles hand completed ActivityRecords to Submit, which
// enqueues them, and a single worker goroutine (Run) applies them. Readers
// see eventually-consistent profiles.
//
// MONOTONICITY:
//
// Applying an ActivityRecord never lowers a member's tier, even when the new
// record drags the on-time rate below a tier's threshold. Verification
// changes recompute the tier from scratch and may lower it (pillar requires
// premium verification regardless of circle counts).
package trust

// Package circle implements the savings-circle aggregate and its five
// variant engines.
//
// A Circle holds the fields every variant shares (members, contribution
// amount, frequency, cycle counters, pot) plus exactly one variant payload:
//
//   - *RotationState  (rosca)             fixed-position rotation, rosca.go
//   - *AuctionState   (chit_fund)         lowest-discount bidding, auction.go
//   - *ChallengeState (savings_challenge) individual goal racing, challenge.go
//   - *FundState      (emergency_fund)    withdrawal governance, fund.go
//   - *GoalState      (goal_based)        collective target, goal.go
//
// The payload is a sealed interface, so code holding a Circle can only reach
// variant fields through a type switch on Payload().
//
// # Operations
//
// Every mutating method validates first and mutates second: it either
// applies its whole state transition or returns an *Error and leaves the
// circle exactly as before. Methods are not safe for concurrent use; the
// engine package serializes access per circle.
//
// Pure helpers (Recipient, TurnsUntilPayout, NetPayout, Rank, Milestones,
// MajorityOutcome, ...) are exported so callers and tests can use the
// arithmetic without building a circle.
package circle

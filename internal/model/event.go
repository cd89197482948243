package model

import "time"

// Event kinds written to the circle event log.
const (
	EventCircleCreated       = "circle.created"
	EventCircleStarted       = "circle.started"
	EventContributionMade    = "contribution.recorded"
	EventPayoutRecorded      = "payout.recorded"
	EventBidSubmitted        = "bid.submitted"
	EventAuctionResolved     = "auction.resolved"
	EventCycleAdvanced       = "cycle.advanced"
	EventWithdrawalRequested = "withdrawal.requested"
	EventVoteCast            = "vote.cast"
	EventWithdrawalDecided   = "withdrawal.decided"
)

// Event is one accepted operation on a circle. Rejected operations are
// never logged.
type Event struct {
	// ID is content-addressed: see EventID.
	ID       string
	CircleID string

	// Seq orders events within a circle, starting at 1.
	Seq  int64
	Kind string

	// Payload is the canonical JSON encoding of the operation arguments.
	Payload []byte

	At            time.Time
	EngineVersion string
}

package circle

import (
	"time"

	"github.com/roach88/kitty/internal/model"
)

// Payload is the variant-specific state of a circle. The set of
// implementations is closed: *RotationState, *AuctionState,
// *ChallengeState, *FundState and *GoalState.
type Payload interface {
	// Type returns the circle type this payload belongs to.
	Type() model.CircleType

	clone() Payload

	// validateContribution runs variant checks after the shared ones passed.
	validateContribution(c *Circle, memberID string, amount model.Money, at time.Time) *Error

	// applyContribution updates variant state and reports whether the
	// circle reached its terminal condition.
	applyContribution(c *Circle, ct Contribution) bool

	// readyToAdvance reports why the current cycle cannot close yet.
	readyToAdvance(c *Circle) *Error

	// closeCycle performs the variant work of closing the current cycle.
	closeCycle(c *Circle, at time.Time)

	// terminal reports whether the circle completes at this advance even
	// though cycles remain.
	terminal(c *Circle, at time.Time) bool

	// openCycle runs after the cycle counter moved forward.
	openCycle(c *Circle)
}

// base supplies no-op hooks for variants that do not need them.
type base struct{}

func (base) validateContribution(*Circle, string, model.Money, time.Time) *Error { return nil }
func (base) applyContribution(*Circle, Contribution) bool                     { return false }
func (base) readyToAdvance(*Circle) *Error                                    { return nil }
func (base) closeCycle(*Circle, time.Time)                                    {}
func (base) terminal(*Circle, time.Time) bool                                 { return false }
func (base) openCycle(*Circle)                                                {}

// fixedShare rejects contributions that differ from the configured amount.
func fixedShare(c *Circle, memberID string, amount model.Money) *Error {
	if amount != c.state.ContributionAmount {
		return c.memberErrorf(ErrCodeInvalidAmount, memberID,
			"contribution must equal %s, got %s", c.state.ContributionAmount, amount)
	}
	return nil
}

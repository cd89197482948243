package circle

import (
	"time"

	"github.com/roach88/kitty/internal/model"
)

// RotationState is the rosca payload: the payout ledger of a fixed-position
// rotation.
type RotationState struct {
	base
	Payouts []Payout `json:"payouts"`
}

// Payout is one disbursement of the pot to a cycle's recipient.
type Payout struct {
	Cycle    int         `json:"cycle"`
	MemberID string      `json:"member_id"`
	Amount   model.Money `json:"amount"`
	At       time.Time   `json:"at"`
}

func (*RotationState) Type() model.CircleType { return model.CircleROSCA }

func (r *RotationState) clone() Payload {
	cp := *r
	cp.Payouts = append([]Payout(nil), r.Payouts...)
	return &cp
}

func (*RotationState) validateContribution(c *Circle, memberID string, amount model.Money, _ time.Time) *Error {
	return fixedShare(c, memberID, amount)
}

func (r *RotationState) readyToAdvance(c *Circle) *Error {
	if p, ok := r.payoutFor(c.state.CurrentCycle); !ok {
		return c.errorf(ErrCodePayoutNotRecorded, "no payout recorded for cycle %d", c.state.CurrentCycle)
	} else if m, _ := c.Member(p.MemberID); !m.HasReceivedPayout {
		return c.memberErrorf(ErrCodePayoutNotRecorded, p.MemberID, "recipient payout flag not set for cycle %d", p.Cycle)
	}
	return nil
}

// openCycle starts a new rotation on multi-pass circles.
func (*RotationState) openCycle(c *Circle) {
	n := len(c.state.Members)
	if (c.state.CurrentCycle-1)%n != 0 {
		return
	}
	for i := range c.state.Members {
		c.state.Members[i].HasReceivedPayout = false
		c.state.Members[i].PayoutAmount = 0
	}
}

func (r *RotationState) payoutFor(cycle int) (Payout, bool) {
	for _, p := range r.Payouts {
		if p.Cycle == cycle {
			return p, true
		}
	}
	return Payout{}, false
}

// RecipientPosition returns the rotation slot that receives the pot in
// cycle, for n members.
func RecipientPosition(cycle, n int) int {
	return ((cycle-1)%n+n)%n + 1
}

// Recipient returns the member whose position receives the pot in cycle.
func Recipient(members []Member, cycle int) (Member, bool) {
	if len(members) == 0 {
		return Member{}, false
	}
	pos := RecipientPosition(cycle, len(members))
	for _, m := range members {
		if m.Position == pos {
			return m, true
		}
	}
	return Member{}, false
}

// TurnsUntilPayout returns how many cycles the member at position waits,
// counted from cycle, in 1..n. The current recipient is quoted a full
// rotation.
func TurnsUntilPayout(position, cycle, n int) int {
	raw := ((position-cycle)%n + n) % n
	if raw == 0 {
		return n
	}
	return raw
}

// Recipient returns the designated recipient of the current cycle.
func (c *Circle) Recipient() (Member, error) {
	if err := c.requireType(model.CircleROSCA); err != nil {
		return Member{}, err
	}
	m, _ := Recipient(c.state.Members, c.state.CurrentCycle)
	return m, nil
}

// TurnsUntilPayout quotes memberID's wait from the current cycle.
func (c *Circle) TurnsUntilPayout(memberID string) (int, error) {
	if err := c.requireType(model.CircleROSCA); err != nil {
		return 0, err
	}
	m, ok := c.Member(memberID)
	if !ok {
		return 0, c.memberErrorf(ErrCodeUnknownMember, memberID, "%q is not a member of this circle", memberID)
	}
	return TurnsUntilPayout(m.Position, c.state.CurrentCycle, len(c.state.Members)), nil
}

// RecordPayout disburses the pot to the current cycle's recipient. Every
// member must have contributed for the cycle first.
func (c *Circle) RecordPayout(memberID string, at time.Time) (Payout, error) {
	if err := c.requireType(model.CircleROSCA); err != nil {
		return Payout{}, err
	}
	if err := c.requireActive(); err != nil {
		return Payout{}, err
	}
	if err := c.requireMember(memberID); err != nil {
		return Payout{}, err
	}
	r := c.payload.(*RotationState)
	cycle := c.state.CurrentCycle
	if _, done := r.payoutFor(cycle); done {
		return Payout{}, c.memberErrorf(ErrCodeDuplicatePayout, memberID, "cycle %d has already been paid out", cycle)
	}
	recipient, _ := Recipient(c.state.Members, cycle)
	if recipient.ID != memberID {
		return Payout{}, c.memberErrorf(ErrCodeNotRecipient, memberID,
			"cycle %d pays position %d (%s)", cycle, recipient.Position, recipient.ID)
	}
	if !c.allContributed(cycle) {
		return Payout{}, c.errorf(ErrCodeCycleIncomplete, "not every member has contributed for cycle %d", cycle)
	}

	p := Payout{Cycle: cycle, MemberID: memberID, Amount: c.state.TotalPot, At: at}
	i := c.memberIndex(memberID)
	c.state.Members[i].HasReceivedPayout = true
	c.state.Members[i].PayoutAmount = p.Amount
	r.Payouts = append(r.Payouts, p)
	c.state.TotalPot = 0
	return p, nil
}

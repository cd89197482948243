package circle

import (
	"time"

	"github.com/roach88/kitty/internal/model"
)

// AuctionState is the chit_fund payload.
type AuctionState struct {
	base
	PotValue            model.Money   `json:"pot_value"`
	MinBidDiscount      model.Percent `json:"min_bid_discount"`
	OrganizerCommission model.Percent `json:"organizer_commission"`

	// CurrentBid is the lowest bid of the open cycle, nil before any bid.
	CurrentBid *Bid `json:"current_bid,omitempty"`

	// Bids holds every accepted bid of the open cycle in submission order.
	Bids []Bid `json:"bids"`

	// BidHistory has one entry per resolved cycle.
	BidHistory       []AuctionResult `json:"bid_history"`
	CommissionEarned model.Money     `json:"commission_earned"`

	// RoundWinners lists members who already won in the current round.
	RoundWinners []string `json:"round_winners"`
	Round        int      `json:"round"`
}

// Bid is a discount a member accepts to take the pot this cycle.
type Bid struct {
	MemberID string        `json:"member_id"`
	Discount model.Percent `json:"discount"`
	Cycle    int           `json:"cycle"`
	Seq      int           `json:"seq"`
	At       time.Time     `json:"at"`
}

// AuctionResult records the resolution of one cycle.
type AuctionResult struct {
	Cycle      int           `json:"cycle"`
	WinnerID   string        `json:"winner_id"`
	Discount   model.Percent `json:"discount"`
	NetPayout  model.Money   `json:"net_payout"`
	Commission model.Money   `json:"commission"`

	// Received is the net payout less commission.
	Received model.Money `json:"received"`

	// Dividend is the discount shared among the other members.
	Dividend          model.Money `json:"dividend"`
	DividendPerMember model.Money `json:"dividend_per_member"`
	At                time.Time   `json:"at"`
}

func (*AuctionState) Type() model.CircleType { return model.CircleChitFund }

func (a *AuctionState) clone() Payload {
	cp := *a
	if a.CurrentBid != nil {
		b := *a.CurrentBid
		cp.CurrentBid = &b
	}
	cp.Bids = append([]Bid(nil), a.Bids...)
	cp.BidHistory = append([]AuctionResult(nil), a.BidHistory...)
	cp.RoundWinners = append([]string(nil), a.RoundWinners...)
	return &cp
}

// BidCeiling is the highest discount a bid may carry.
func (a *AuctionState) BidCeiling() model.Percent {
	return a.OrganizerCommission.Complement()
}

func (a *AuctionState) hasWon(memberID string) bool {
	for _, id := range a.RoundWinners {
		if id == memberID {
			return true
		}
	}
	return false
}

func (*AuctionState) validateContribution(c *Circle, memberID string, amount model.Money, _ time.Time) *Error {
	return fixedShare(c, memberID, amount)
}

func (a *AuctionState) readyToAdvance(c *Circle) *Error {
	if a.CurrentBid == nil {
		return c.errorf(ErrCodeNoBidsSubmitted, "no bids submitted for cycle %d", c.state.CurrentCycle)
	}
	if !c.allContributed(c.state.CurrentCycle) {
		return c.errorf(ErrCodeCycleIncomplete, "not every member has contributed for cycle %d", c.state.CurrentCycle)
	}
	return nil
}

func (a *AuctionState) closeCycle(c *Circle, at time.Time) {
	bid := *a.CurrentBid
	n := len(c.state.Members)
	net := NetPayout(a.PotValue, bid.Discount)
	fee := a.OrganizerCommission.Of(a.PotValue)
	dividend := a.PotValue - net
	res := AuctionResult{
		Cycle:      c.state.CurrentCycle,
		WinnerID:   bid.MemberID,
		Discount:   bid.Discount,
		NetPayout:  net,
		Commission: fee,
		Received:   net - fee,
		Dividend:   dividend,
		At:         at,
	}
	if n > 1 {
		res.DividendPerMember = dividend / model.Money(n-1)
	}

	i := c.memberIndex(bid.MemberID)
	c.state.Members[i].HasReceivedPayout = true
	c.state.Members[i].PayoutAmount = res.Received

	a.BidHistory = append(a.BidHistory, res)
	a.CommissionEarned += fee
	a.RoundWinners = append(a.RoundWinners, bid.MemberID)
	a.CurrentBid = nil
	a.Bids = nil
	c.state.TotalPot -= min(c.state.TotalPot, a.PotValue)
}

// openCycle starts a new round once every member has won.
func (a *AuctionState) openCycle(c *Circle) {
	if len(a.RoundWinners) < len(c.state.Members) {
		return
	}
	a.RoundWinners = nil
	a.Round++
	for i := range c.state.Members {
		c.state.Members[i].HasReceivedPayout = false
		c.state.Members[i].PayoutAmount = 0
	}
}

// NetPayout is the pot less the winning discount, rounded down.
func NetPayout(pot model.Money, discount model.Percent) model.Money {
	return discount.Complement().Of(pot)
}

// LowestBid returns the bid with the smallest discount. Ties go to the
// earliest bid in the slice.
func LowestBid(bids []Bid) (Bid, bool) {
	if len(bids) == 0 {
		return Bid{}, false
	}
	best := bids[0]
	for _, b := range bids[1:] {
		if b.Discount < best.Discount {
			best = b
		}
	}
	return best, true
}

// SubmitBid records a bid for the current cycle. It reports whether the bid
// became the new leader.
func (c *Circle) SubmitBid(memberID string, discount model.Percent, at time.Time) (Bid, bool, error) {
	if err := c.requireType(model.CircleChitFund); err != nil {
		return Bid{}, false, err
	}
	if err := c.requireActive(); err != nil {
		return Bid{}, false, err
	}
	if err := c.requireMember(memberID); err != nil {
		return Bid{}, false, err
	}
	a := c.payload.(*AuctionState)
	if a.hasWon(memberID) {
		return Bid{}, false, c.memberErrorf(ErrCodeMemberAlreadyWon, memberID,
			"already won in round %d", a.Round)
	}
	if discount < a.MinBidDiscount {
		return Bid{}, false, c.memberErrorf(ErrCodeBidBelowFloor, memberID,
			"discount %s is below the minimum %s", discount, a.MinBidDiscount)
	}
	if discount > a.BidCeiling() {
		return Bid{}, false, c.memberErrorf(ErrCodeBidTooHigh, memberID,
			"discount %s exceeds the maximum %s", discount, a.BidCeiling())
	}

	b := Bid{
		MemberID: memberID,
		Discount: discount,
		Cycle:    c.state.CurrentCycle,
		Seq:      len(a.Bids) + 1,
		At:       at,
	}
	a.Bids = append(a.Bids, b)
	lead := a.CurrentBid == nil || discount < a.CurrentBid.Discount
	if lead {
		a.CurrentBid = &b
	}
	return b, lead, nil
}

// ResolveAuction awards the pot to the lowest bid and advances the cycle.
func (c *Circle) ResolveAuction(at time.Time) (AuctionResult, Advance, error) {
	if err := c.requireType(model.CircleChitFund); err != nil {
		return AuctionResult{}, Advance{}, err
	}
	adv, err := c.advance(at)
	if err != nil {
		return AuctionResult{}, Advance{}, err
	}
	a := c.payload.(*AuctionState)
	return a.BidHistory[len(a.BidHistory)-1], adv, nil
}

package circle

import (
	"time"

	"github.com/roach88/kitty/internal/model"
	"github.com/roach88/kitty/internal/trust"
)

// View is a read-only rendering of a circle from one member's point of
// view. Exactly one of the variant sections is set.
type View struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	Type               model.CircleType `json:"type"`
	Status             model.Status     `json:"status"`
	Admin              string           `json:"admin"`
	ContributionAmount model.Money      `json:"contribution_amount"`
	Frequency          model.Frequency  `json:"frequency"`
	TotalCycles        int              `json:"total_cycles"`
	CurrentCycle       int              `json:"current_cycle"`
	TotalPot           model.Money      `json:"total_pot"`
	TotalContributed   model.Money      `json:"total_contributed"`
	Members            []Member         `json:"members"`
	PeriodStart        time.Time        `json:"period_start"`
	PeriodEnd          time.Time        `json:"period_end"`

	// Contributed lists the members who paid into the current cycle.
	Contributed []string `json:"contributed"`

	MatchingFundEligible bool        `json:"matching_fund_eligible"`
	MatchingFundAmount   model.Money `json:"matching_fund_amount,omitempty"`

	Member    *MemberView    `json:"member,omitempty"`
	Rotation  *RotationView  `json:"rotation,omitempty"`
	Auction   *AuctionView   `json:"auction,omitempty"`
	Challenge *ChallengeView `json:"challenge,omitempty"`
	Fund      *FundView      `json:"fund,omitempty"`
	Goal      *GoalView      `json:"goal,omitempty"`
}

// MemberView is the viewing member's own standing.
type MemberView struct {
	ID                string      `json:"id"`
	Position          int         `json:"position"`
	ContributedCycle  bool        `json:"contributed_this_cycle"`
	HasReceivedPayout bool        `json:"has_received_payout"`
	TotalContributed  model.Money `json:"total_contributed"`
	OnTimePercentage  int         `json:"on_time_percentage"`
}

type RotationView struct {
	RecipientID       string   `json:"recipient_id"`
	RecipientPosition int      `json:"recipient_position"`
	TurnsUntilPayout  int      `json:"turns_until_payout,omitempty"`
	Payouts           []Payout `json:"payouts"`
}

type AuctionView struct {
	PotValue            model.Money     `json:"pot_value"`
	MinBidDiscount      model.Percent   `json:"min_bid_discount"`
	OrganizerCommission model.Percent   `json:"organizer_commission"`
	BidCeiling          model.Percent   `json:"bid_ceiling"`
	CurrentBid          *Bid            `json:"current_bid,omitempty"`
	BidCount            int             `json:"bid_count"`
	BidHistory          []AuctionResult `json:"bid_history"`
	CommissionEarned    model.Money     `json:"commission_earned"`
	Round               int             `json:"round"`
	RoundWinners        []string        `json:"round_winners"`

	// CanBid is false when the viewing member already won this round.
	CanBid bool `json:"can_bid"`
}

type ChallengeView struct {
	SavingsGoalPerMember model.Money `json:"savings_goal_per_member"`
	ChallengeEndDate     time.Time   `json:"challenge_end_date"`
	Leaderboard          []Standing  `json:"leaderboard"`
	Standing             *Standing   `json:"standing,omitempty"`
}

type FundView struct {
	TargetFundSize     model.Money          `json:"target_fund_size"`
	CurrentFundBalance model.Money          `json:"current_fund_balance"`
	PercentOfTarget    model.Percent        `json:"percent_of_target"`
	MaxWithdrawal      model.Money          `json:"max_withdrawal"`
	ApprovalMethod     model.ApprovalMethod `json:"approval_method"`
	Requests           []WithdrawalRequest  `json:"requests"`
	PendingRequests    int                  `json:"pending_requests"`
}

type GoalView struct {
	GoalDescription string        `json:"goal_description"`
	TargetAmount    model.Money   `json:"target_amount"`
	CurrentAmount   model.Money   `json:"current_amount"`
	Remaining       model.Money   `json:"remaining"`
	Progress        model.Percent `json:"progress"`
	DisplayProgress model.Percent `json:"display_progress"`
	OnTrack         bool          `json:"on_track"`
	DaysLeft        int           `json:"days_left"`
	Contributors    int           `json:"contributors"`
	Milestones      []int         `json:"milestones"`
}

// View renders the circle for memberID at now. An empty memberID renders
// the circle without a member section.
func (c *Circle) View(memberID string, now time.Time) (View, error) {
	if memberID != "" {
		if err := c.requireMember(memberID); err != nil {
			return View{}, err
		}
	}

	sched := c.Schedule()
	cycle := c.state.CurrentCycle
	v := View{
		ID:                   c.state.ID,
		Name:                 c.state.Name,
		Description:          c.state.Description,
		Type:                 c.state.Type,
		Status:               c.state.Status,
		Admin:                c.state.Admin,
		ContributionAmount:   c.state.ContributionAmount,
		Frequency:            c.state.Frequency,
		TotalCycles:          c.state.TotalCycles,
		CurrentCycle:         cycle,
		TotalPot:             c.state.TotalPot,
		TotalContributed:     c.state.TotalContributed,
		Members:              c.Members(),
		PeriodStart:          sched.PeriodStart(cycle),
		PeriodEnd:            sched.PeriodEnd(cycle),
		Contributed:          []string{},
		MatchingFundEligible: c.state.MatchingFundEligible,
		MatchingFundAmount:   c.state.MatchingFundAmount,
	}
	for _, m := range c.state.Members {
		if c.HasContributed(m.ID, cycle) {
			v.Contributed = append(v.Contributed, m.ID)
		}
	}
	if memberID != "" {
		v.Member = c.memberView(memberID)
	}

	switch p := c.payload.(type) {
	case *RotationState:
		rv := &RotationView{Payouts: append([]Payout{}, p.Payouts...)}
		if r, ok := Recipient(c.state.Members, cycle); ok {
			rv.RecipientID = r.ID
			rv.RecipientPosition = r.Position
		}
		if v.Member != nil {
			rv.TurnsUntilPayout = TurnsUntilPayout(v.Member.Position, cycle, len(c.state.Members))
		}
		v.Rotation = rv
	case *AuctionState:
		av := &AuctionView{
			PotValue:            p.PotValue,
			MinBidDiscount:      p.MinBidDiscount,
			OrganizerCommission: p.OrganizerCommission,
			BidCeiling:          p.BidCeiling(),
			BidCount:            len(p.Bids),
			BidHistory:          append([]AuctionResult{}, p.BidHistory...),
			CommissionEarned:    p.CommissionEarned,
			Round:               p.Round,
			RoundWinners:        append([]string{}, p.RoundWinners...),
			CanBid:              memberID != "" && !p.hasWon(memberID),
		}
		if p.CurrentBid != nil {
			b := *p.CurrentBid
			av.CurrentBid = &b
		}
		v.Auction = av
	case *ChallengeState:
		board, _ := c.Leaderboard()
		cv := &ChallengeView{
			SavingsGoalPerMember: p.SavingsGoalPerMember,
			ChallengeEndDate:     p.ChallengeEndDate,
			Leaderboard:          board,
		}
		for i := range board {
			if board[i].MemberID == memberID {
				s := board[i]
				cv.Standing = &s
			}
		}
		v.Challenge = cv
	case *FundState:
		fv := &FundView{
			TargetFundSize:     p.TargetFundSize,
			CurrentFundBalance: p.CurrentFundBalance,
			PercentOfTarget:    model.Ratio(int64(p.CurrentFundBalance), int64(p.TargetFundSize)),
			MaxWithdrawal:      p.MaxWithdrawal,
			ApprovalMethod:     p.ApprovalMethod,
			Requests:           make([]WithdrawalRequest, len(p.WithdrawalRequests)),
		}
		for i, r := range p.WithdrawalRequests {
			fv.Requests[i] = copyRequest(r)
			if !r.Status.Resolved() {
				fv.PendingRequests++
			}
		}
		v.Fund = fv
	case *GoalState:
		v.Goal = &GoalView{
			GoalDescription: p.GoalDescription,
			TargetAmount:    p.TargetAmount,
			CurrentAmount:   p.CurrentAmount,
			Remaining:       p.Remaining(),
			Progress:        p.Progress(),
			DisplayProgress: ClampPercent(p.Progress()),
			OnTrack:         p.OnTrack(cycle, c.state.TotalCycles),
			DaysLeft:        p.DaysLeft(now),
			Contributors:    c.contributorCount(),
			Milestones:      Milestones(p.CurrentAmount, p.TargetAmount),
		}
	}
	return v, nil
}

func (c *Circle) memberView(memberID string) *MemberView {
	m, _ := c.Member(memberID)
	mv := &MemberView{
		ID:                m.ID,
		Position:          m.Position,
		ContributedCycle:  c.HasContributed(m.ID, c.state.CurrentCycle),
		HasReceivedPayout: m.HasReceivedPayout,
	}
	onTime := 0
	for _, ct := range c.contributions {
		if ct.MemberID != memberID {
			continue
		}
		mv.TotalContributed += ct.Amount
		if ct.OnTime {
			onTime++
		}
	}
	mv.OnTimePercentage = trust.OnTimePercentage(onTime, c.cyclesDue())
	return mv
}

// cyclesDue counts cycles a member was expected to pay so far: closed cycles
// plus the open one once the circle is running.
func (c *Circle) cyclesDue() int {
	if c.state.Status == model.StatusPending {
		return 0
	}
	return c.state.CurrentCycle
}

func (c *Circle) contributorCount() int {
	seen := make(map[string]bool)
	for _, ct := range c.contributions {
		seen[ct.MemberID] = true
	}
	return len(seen)
}

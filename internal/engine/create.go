package engine

import (
	"fmt"
	"time"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/model"
)

// createPayload is the circle.created event payload: the full Config in a
// JSON form without nulls.
type createPayload struct {
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	Type                 model.CircleType `json:"type"`
	Members              []memberPayload  `json:"members"`
	Admin                string           `json:"admin"`
	ContributionAmount   model.Money      `json:"contribution_amount"`
	Frequency            model.Frequency  `json:"frequency"`
	TotalCycles          int              `json:"total_cycles"`
	MatchingFundEligible bool             `json:"matching_fund_eligible"`
	MatchingFundAmount   model.Money      `json:"matching_fund_amount"`

	Auction   *auctionPayload   `json:"auction,omitempty"`
	Challenge *challengePayload `json:"challenge,omitempty"`
	Fund      *fundPayload      `json:"fund,omitempty"`
	Goal      *goalPayload      `json:"goal,omitempty"`
}

type memberPayload struct {
	ID       string    `json:"id"`
	Position int       `json:"position"`
	JoinedAt time.Time `json:"joined_at"`
}

type auctionPayload struct {
	PotValue            model.Money   `json:"pot_value"`
	MinBidDiscount      model.Percent `json:"min_bid_discount"`
	OrganizerCommission model.Percent `json:"organizer_commission"`
}

type challengePayload struct {
	SavingsGoalPerMember model.Money `json:"savings_goal_per_member"`
	EndDate              time.Time   `json:"end_date"`
}

type fundPayload struct {
	TargetFundSize model.Money          `json:"target_fund_size"`
	MaxWithdrawal  model.Money          `json:"max_withdrawal"`
	ApprovalMethod model.ApprovalMethod `json:"approval_method"`
}

type goalPayload struct {
	Description  string      `json:"description"`
	TargetAmount model.Money `json:"target_amount"`
	TargetDate   time.Time   `json:"target_date"`
}

func encodeConfig(cfg circle.Config) createPayload {
	p := createPayload{
		Name:                 cfg.Name,
		Description:          cfg.Description,
		Type:                 cfg.Type,
		Members:              make([]memberPayload, len(cfg.Members)),
		Admin:                cfg.Admin,
		ContributionAmount:   cfg.ContributionAmount,
		Frequency:            cfg.Frequency,
		TotalCycles:          cfg.TotalCycles,
		MatchingFundEligible: cfg.MatchingFundEligible,
		MatchingFundAmount:   cfg.MatchingFundAmount,
	}
	for i, m := range cfg.Members {
		p.Members[i] = memberPayload{ID: m.ID, Position: m.Position, JoinedAt: m.JoinedAt}
	}
	switch s := cfg.Settings.(type) {
	case circle.AuctionSettings:
		p.Auction = &auctionPayload{s.PotValue, s.MinBidDiscount, s.OrganizerCommission}
	case circle.ChallengeSettings:
		p.Challenge = &challengePayload{s.SavingsGoalPerMember, s.EndDate}
	case circle.FundSettings:
		p.Fund = &fundPayload{s.TargetFundSize, s.MaxWithdrawal, s.ApprovalMethod}
	case circle.GoalSettings:
		p.Goal = &goalPayload{s.Description, s.TargetAmount, s.TargetDate}
	}
	return p
}

func (p createPayload) config(id string) (circle.Config, error) {
	cfg := circle.Config{
		ID:                   id,
		Name:                 p.Name,
		Description:          p.Description,
		Type:                 p.Type,
		Members:              make([]circle.MemberSpec, len(p.Members)),
		Admin:                p.Admin,
		ContributionAmount:   p.ContributionAmount,
		Frequency:            p.Frequency,
		TotalCycles:          p.TotalCycles,
		MatchingFundEligible: p.MatchingFundEligible,
		MatchingFundAmount:   p.MatchingFundAmount,
	}
	for i, m := range p.Members {
		cfg.Members[i] = circle.MemberSpec{ID: m.ID, Position: m.Position, JoinedAt: m.JoinedAt}
	}

	set := 0
	if s := p.Auction; s != nil {
		cfg.Settings = circle.AuctionSettings{PotValue: s.PotValue, MinBidDiscount: s.MinBidDiscount, OrganizerCommission: s.OrganizerCommission}
		set++
	}
	if s := p.Challenge; s != nil {
		cfg.Settings = circle.ChallengeSettings{SavingsGoalPerMember: s.SavingsGoalPerMember, EndDate: s.EndDate}
		set++
	}
	if s := p.Fund; s != nil {
		cfg.Settings = circle.FundSettings{TargetFundSize: s.TargetFundSize, MaxWithdrawal: s.MaxWithdrawal, ApprovalMethod: s.ApprovalMethod}
		set++
	}
	if s := p.Goal; s != nil {
		cfg.Settings = circle.GoalSettings{Description: s.Description, TargetAmount: s.TargetAmount, TargetDate: s.TargetDate}
		set++
	}
	if set > 1 {
		return circle.Config{}, fmt.Errorf("create payload carries %d settings blocks", set)
	}
	return cfg, nil
}

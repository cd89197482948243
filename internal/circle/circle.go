package circle

import (
	"time"

	"github.com/roach88/kitty/internal/model"
	"github.com/roach88/kitty/internal/trust"
)

// Member is one participant of a circle.
type Member struct {
	ID                string      `json:"id"`
	JoinedAt          time.Time   `json:"joined_at"`
	Position          int         `json:"position"`
	HasReceivedPayout bool        `json:"has_received_payout"`
	PayoutAmount      model.Money `json:"payout_amount"`
}

// Contribution is one recorded contribution. Contributions are never
// modified once recorded.
type Contribution struct {
	MemberID string      `json:"member_id"`
	Cycle    int         `json:"cycle"`
	Amount   model.Money `json:"amount"`
	At       time.Time   `json:"at"`

	// OnTime is false when the contribution was recorded for a cycle that
	// had already been closed.
	OnTime bool `json:"on_time"`
}

// State holds the fields every variant shares.
type State struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	Type                 model.CircleType `json:"type"`
	Members              []Member         `json:"members"`
	Admin                string           `json:"admin"`
	ContributionAmount   model.Money      `json:"contribution_amount"`
	Frequency            model.Frequency  `json:"frequency"`
	TotalCycles          int              `json:"total_cycles"`
	CurrentCycle         int              `json:"current_cycle"`
	TotalPot             model.Money      `json:"total_pot"`
	TotalContributed     model.Money      `json:"total_contributed"`
	Status               model.Status     `json:"status"`
	MatchingFundEligible bool             `json:"matching_fund_eligible"`
	MatchingFundAmount   model.Money      `json:"matching_fund_amount"`
	CreatedAt            time.Time        `json:"created_at"`
	StartedAt            time.Time        `json:"started_at"`
	CompletedAt          time.Time        `json:"completed_at"`
}

// Circle is the savings-circle aggregate.
type Circle struct {
	state         State
	contributions []Contribution
	payload       Payload
}

// Advance describes a successful cycle advance.
type Advance struct {
	From      int  `json:"from"`
	To        int  `json:"to"`
	Completed bool `json:"completed"`
}

// New creates a pending circle from cfg.
func New(cfg Config, at time.Time) (*Circle, error) {
	if err := cfg.validate(); err != nil {
		err.CircleID = cfg.ID
		return nil, err
	}

	members := make([]Member, len(cfg.Members))
	for i, spec := range cfg.Members {
		pos := spec.Position
		if pos == 0 {
			pos = i + 1
		}
		joined := spec.JoinedAt
		if joined.IsZero() {
			joined = at
		}
		members[i] = Member{ID: spec.ID, JoinedAt: joined, Position: pos}
	}

	admin := cfg.Admin
	if admin == "" {
		admin = members[0].ID
	}

	return &Circle{
		state: State{
			ID:                   cfg.ID,
			Name:                 cfg.Name,
			Description:          cfg.Description,
			Type:                 cfg.Type,
			Members:              members,
			Admin:                admin,
			ContributionAmount:   cfg.ContributionAmount,
			Frequency:            cfg.Frequency,
			TotalCycles:          cfg.TotalCycles,
			CurrentCycle:         1,
			Status:               model.StatusPending,
			MatchingFundEligible: cfg.MatchingFundEligible,
			MatchingFundAmount:   cfg.MatchingFundAmount,
			CreatedAt:            at,
		},
		payload: newPayload(cfg, members),
	}, nil
}

func (c *Circle) ID() string             { return c.state.ID }
func (c *Circle) Name() string           { return c.state.Name }
func (c *Circle) Type() model.CircleType { return c.state.Type }
func (c *Circle) Status() model.Status   { return c.state.Status }
func (c *Circle) CurrentCycle() int      { return c.state.CurrentCycle }
func (c *Circle) TotalCycles() int       { return c.state.TotalCycles }
func (c *Circle) TotalPot() model.Money  { return c.state.TotalPot }
func (c *Circle) Admin() string          { return c.state.Admin }

// Payload returns the variant payload. Callers type-switch on it to reach
// variant fields; the returned pointer must not be modified.
func (c *Circle) Payload() Payload { return c.payload }

// State returns a copy of the shared fields.
func (c *Circle) State() State {
	s := c.state
	s.Members = append([]Member(nil), c.state.Members...)
	return s
}

// Members returns the members in declaration order.
func (c *Circle) Members() []Member {
	return append([]Member(nil), c.state.Members...)
}

// Member looks up a member by ID.
func (c *Circle) Member(id string) (Member, bool) {
	if i := c.memberIndex(id); i >= 0 {
		return c.state.Members[i], true
	}
	return Member{}, false
}

// Contributions returns every recorded contribution in recording order.
func (c *Circle) Contributions() []Contribution {
	return append([]Contribution(nil), c.contributions...)
}

// HasContributed reports whether memberID contributed for cycle.
func (c *Circle) HasContributed(memberID string, cycle int) bool {
	for _, ct := range c.contributions {
		if ct.MemberID == memberID && ct.Cycle == cycle {
			return true
		}
	}
	return false
}

// Schedule maps cycles onto calendar periods starting at the start time.
func (c *Circle) Schedule() model.Schedule {
	start := c.state.StartedAt
	if start.IsZero() {
		start = c.state.CreatedAt
	}
	return model.Schedule{Start: start, Frequency: c.state.Frequency}
}

func (c *Circle) memberIndex(id string) int {
	for i, m := range c.state.Members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (c *Circle) requireMember(id string) *Error {
	if c.memberIndex(id) < 0 {
		return c.memberErrorf(ErrCodeUnknownMember, id, "%q is not a member of this circle", id)
	}
	return nil
}

func (c *Circle) requireActive() *Error {
	if c.state.Status != model.StatusActive {
		return c.errorf(ErrCodeCircleNotActive, "circle is %s", c.state.Status)
	}
	return nil
}

func (c *Circle) requireType(t model.CircleType) *Error {
	if c.state.Type != t {
		return c.errorf(ErrCodeWrongVariant, "operation requires a %s circle, this is %s", t, c.state.Type)
	}
	return nil
}

func (c *Circle) allContributed(cycle int) bool {
	for _, m := range c.state.Members {
		if !c.HasContributed(m.ID, cycle) {
			return false
		}
	}
	return true
}

// Start moves a pending circle to active.
func (c *Circle) Start(at time.Time) error {
	if c.state.Status != model.StatusPending {
		return c.errorf(ErrCodeAlreadyStarted, "circle is %s", c.state.Status)
	}
	c.state.Status = model.StatusActive
	c.state.StartedAt = at
	return nil
}

// RecordContribution records memberID's contribution for cycle. A cycle
// earlier than the current one is accepted as a late contribution.
func (c *Circle) RecordContribution(memberID string, amount model.Money, cycle int, at time.Time) (Contribution, error) {
	if err := c.requireActive(); err != nil {
		return Contribution{}, err
	}
	if err := c.requireMember(memberID); err != nil {
		return Contribution{}, err
	}
	if !amount.IsPositive() {
		return Contribution{}, c.memberErrorf(ErrCodeInvalidAmount, memberID, "contribution must be positive, got %s", amount)
	}
	if cycle < 1 || cycle > c.state.CurrentCycle {
		return Contribution{}, c.memberErrorf(ErrCodeCycleMismatch, memberID,
			"cannot contribute for cycle %d, current cycle is %d", cycle, c.state.CurrentCycle)
	}
	if c.HasContributed(memberID, cycle) {
		return Contribution{}, c.memberErrorf(ErrCodeDuplicateContribution, memberID,
			"already contributed for cycle %d", cycle)
	}
	if err := c.payload.validateContribution(c, memberID, amount, at); err != nil {
		return Contribution{}, err
	}

	ct := Contribution{
		MemberID: memberID,
		Cycle:    cycle,
		Amount:   amount,
		At:       at,
		OnTime:   cycle == c.state.CurrentCycle,
	}
	c.contributions = append(c.contributions, ct)
	c.state.TotalPot += amount
	c.state.TotalContributed += amount
	if c.payload.applyContribution(c, ct) {
		c.complete(at)
	}
	return ct, nil
}

// AdvanceCycle closes the current cycle. The circle completes instead of
// moving past TotalCycles, or earlier when the variant reaches its
// terminal condition. Chit funds advance only through ResolveAuction.
func (c *Circle) AdvanceCycle(at time.Time) (Advance, error) {
	if c.state.Type == model.CircleChitFund {
		return Advance{}, c.errorf(ErrCodeWrongVariant, "chit_fund cycles advance by resolving the auction")
	}
	return c.advance(at)
}

func (c *Circle) advance(at time.Time) (Advance, error) {
	if err := c.requireActive(); err != nil {
		return Advance{}, err
	}
	if err := c.payload.readyToAdvance(c); err != nil {
		return Advance{}, err
	}

	from := c.state.CurrentCycle
	c.payload.closeCycle(c, at)
	if from >= c.state.TotalCycles || c.payload.terminal(c, at) {
		c.complete(at)
		return Advance{From: from, To: from, Completed: true}, nil
	}
	c.state.CurrentCycle++
	c.payload.openCycle(c)
	return Advance{From: from, To: c.state.CurrentCycle}, nil
}

func (c *Circle) complete(at time.Time) {
	c.state.Status = model.StatusCompleted
	c.state.CompletedAt = at
}

// ActivityRecords summarizes every member's participation. It returns nil
// until the circle has completed.
func (c *Circle) ActivityRecords() []trust.ActivityRecord {
	if c.state.Status != model.StatusCompleted {
		return nil
	}
	records := make([]trust.ActivityRecord, 0, len(c.state.Members))
	for _, m := range c.state.Members {
		var total model.Money
		onTime := 0
		for _, ct := range c.contributions {
			if ct.MemberID != m.ID {
				continue
			}
			total += ct.Amount
			if ct.OnTime {
				onTime++
			}
		}
		records = append(records, trust.NewActivityRecord(
			m.ID, c.state.ID, c.state.Name, c.state.Type,
			c.state.ContributionAmount, total,
			c.state.CurrentCycle, onTime, c.state.CompletedAt,
		))
	}
	return records
}

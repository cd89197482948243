package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/model"
)

// command is one circle operation. Its JSON form is the event payload, and
// the same apply runs for live operations and for replay.
type command interface {
	kind() string
	apply(c *circle.Circle, at time.Time) (any, error)
}

type startCommand struct{}

func (startCommand) kind() string { return model.EventCircleStarted }

func (startCommand) apply(c *circle.Circle, at time.Time) (any, error) {
	return nil, c.Start(at)
}

type contributeCommand struct {
	MemberID string      `json:"member_id"`
	Amount   model.Money `json:"amount"`

	// Cycle 0 resolves to the circle's current cycle when applied.
	Cycle int `json:"cycle"`
}

func (contributeCommand) kind() string { return model.EventContributionMade }

func (cmd contributeCommand) apply(c *circle.Circle, at time.Time) (any, error) {
	cycle := cmd.Cycle
	if cycle == 0 {
		cycle = c.CurrentCycle()
	}
	return c.RecordContribution(cmd.MemberID, cmd.Amount, cycle, at)
}

type payoutCommand struct {
	MemberID string `json:"member_id"`
}

func (payoutCommand) kind() string { return model.EventPayoutRecorded }

func (cmd payoutCommand) apply(c *circle.Circle, at time.Time) (any, error) {
	return c.RecordPayout(cmd.MemberID, at)
}

type bidCommand struct {
	MemberID string        `json:"member_id"`
	Discount model.Percent `json:"discount"`
}

func (bidCommand) kind() string { return model.EventBidSubmitted }

func (cmd bidCommand) apply(c *circle.Circle, at time.Time) (any, error) {
	bid, lead, err := c.SubmitBid(cmd.MemberID, cmd.Discount, at)
	if err != nil {
		return nil, err
	}
	return BidOutcome{Bid: bid, Leading: lead}, nil
}

type resolveCommand struct{}

func (resolveCommand) kind() string { return model.EventAuctionResolved }

func (resolveCommand) apply(c *circle.Circle, at time.Time) (any, error) {
	res, adv, err := c.ResolveAuction(at)
	if err != nil {
		return nil, err
	}
	return Resolution{Result: res, Advance: adv}, nil
}

type advanceCommand struct{}

func (advanceCommand) kind() string { return model.EventCycleAdvanced }

func (advanceCommand) apply(c *circle.Circle, at time.Time) (any, error) {
	return c.AdvanceCycle(at)
}

type withdrawCommand struct {
	RequestID string      `json:"request_id"`
	MemberID  string      `json:"member_id"`
	Amount    model.Money `json:"amount"`
	Reason    string      `json:"reason"`
}

func (withdrawCommand) kind() string { return model.EventWithdrawalRequested }

func (cmd withdrawCommand) apply(c *circle.Circle, at time.Time) (any, error) {
	return c.RequestWithdrawal(cmd.RequestID, cmd.MemberID, cmd.Amount, cmd.Reason, at)
}

type voteCommand struct {
	RequestID string `json:"request_id"`
	MemberID  string `json:"member_id"`
	Approve   bool   `json:"approve"`
}

func (voteCommand) kind() string { return model.EventVoteCast }

func (cmd voteCommand) apply(c *circle.Circle, at time.Time) (any, error) {
	return c.CastVote(cmd.RequestID, cmd.MemberID, cmd.Approve, at)
}

type decideCommand struct {
	RequestID  string `json:"request_id"`
	ApproverID string `json:"approver_id"`
	Approve    bool   `json:"approve"`
}

func (decideCommand) kind() string { return model.EventWithdrawalDecided }

func (cmd decideCommand) apply(c *circle.Circle, at time.Time) (any, error) {
	return c.Decide(cmd.RequestID, cmd.ApproverID, cmd.Approve, at)
}

// BidOutcome is the result of SubmitBid.
type BidOutcome struct {
	Bid     circle.Bid `json:"bid"`
	Leading bool       `json:"leading"`
}

// Resolution is the result of ResolveAuction.
type Resolution struct {
	Result  circle.AuctionResult `json:"result"`
	Advance circle.Advance       `json:"advance"`
}

// decodeCommand rebuilds the command stored in an event payload.
func decodeCommand(kind string, payload []byte) (command, error) {
	var cmd command
	switch kind {
	case model.EventCircleStarted:
		cmd = &startCommand{}
	case model.EventContributionMade:
		cmd = &contributeCommand{}
	case model.EventPayoutRecorded:
		cmd = &payoutCommand{}
	case model.EventBidSubmitted:
		cmd = &bidCommand{}
	case model.EventAuctionResolved:
		cmd = &resolveCommand{}
	case model.EventCycleAdvanced:
		cmd = &advanceCommand{}
	case model.EventWithdrawalRequested:
		cmd = &withdrawCommand{}
	case model.EventVoteCast:
		cmd = &voteCommand{}
	case model.EventWithdrawalDecided:
		cmd = &decideCommand{}
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	if err := json.Unmarshal(payload, cmd); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return cmd, nil
}

// toPayload converts a JSON-tagged struct to the generic map form hashed by
// model.EventID. Numbers stay json.Number so integers are exact.
func toPayload(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

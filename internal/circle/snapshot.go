package circle

import (
	"fmt"

	"github.com/roach88/kitty/internal/model"
)

// Snapshot is the lossless serializable form of a circle. Exactly one of
// the payload fields is set, matching State.Type.
type Snapshot struct {
	Version       string          `json:"version"`
	State         State           `json:"state"`
	Contributions []Contribution  `json:"contributions"`
	Rotation      *RotationState  `json:"rotation,omitempty"`
	Auction       *AuctionState   `json:"auction,omitempty"`
	Challenge     *ChallengeState `json:"challenge,omitempty"`
	Fund          *FundState      `json:"fund,omitempty"`
	Goal          *GoalState      `json:"goal,omitempty"`
}

// Snapshot returns a deep copy of the circle in serializable form.
func (c *Circle) Snapshot() Snapshot {
	s := Snapshot{
		Version:       model.SnapshotVersion,
		State:         c.State(),
		Contributions: append([]Contribution{}, c.contributions...),
	}
	switch p := c.payload.clone().(type) {
	case *RotationState:
		s.Rotation = p
	case *AuctionState:
		s.Auction = p
	case *ChallengeState:
		s.Challenge = p
	case *FundState:
		s.Fund = p
	case *GoalState:
		s.Goal = p
	}
	return s
}

// Restore rebuilds a circle from a snapshot.
func Restore(s Snapshot) (*Circle, error) {
	if s.Version != model.SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %q", s.Version)
	}

	var payloads []Payload
	for _, p := range []Payload{s.Rotation, s.Auction, s.Challenge, s.Fund, s.Goal} {
		if !isNilPayload(p) {
			payloads = append(payloads, p)
		}
	}
	if len(payloads) != 1 {
		return nil, fmt.Errorf("snapshot of circle %s carries %d variant payloads, want 1", s.State.ID, len(payloads))
	}
	if payloads[0].Type() != s.State.Type {
		return nil, fmt.Errorf("snapshot of circle %s: %s payload on a %s circle",
			s.State.ID, payloads[0].Type(), s.State.Type)
	}

	c := &Circle{
		state:         s.State,
		contributions: append([]Contribution(nil), s.Contributions...),
		payload:       payloads[0].clone(),
	}
	c.state.Members = append([]Member(nil), s.State.Members...)
	return c, nil
}

// Clone returns an independent deep copy.
func (c *Circle) Clone() *Circle {
	cp := &Circle{
		state:         c.State(),
		contributions: append([]Contribution(nil), c.contributions...),
		payload:       c.payload.clone(),
	}
	return cp
}

func isNilPayload(p Payload) bool {
	switch v := p.(type) {
	case *RotationState:
		return v == nil
	case *AuctionState:
		return v == nil
	case *ChallengeState:
		return v == nil
	case *FundState:
		return v == nil
	case *GoalState:
		return v == nil
	default:
		return p == nil
	}
}

package circle

import (
	"time"

	"github.com/roach88/kitty/internal/model"
)

// GoalState is the goal_based payload.
type GoalState struct {
	base
	GoalDescription string      `json:"goal_description"`
	TargetAmount    model.Money `json:"target_amount"`
	CurrentAmount   model.Money `json:"current_amount"`
	TargetDate      time.Time   `json:"target_date"`
}

func (*GoalState) Type() model.CircleType { return model.CircleGoalBased }

func (g *GoalState) clone() Payload {
	cp := *g
	return &cp
}

func (g *GoalState) applyContribution(_ *Circle, ct Contribution) bool {
	g.CurrentAmount += ct.Amount
	return false
}

func (g *GoalState) terminal(_ *Circle, at time.Time) bool {
	return !g.TargetDate.IsZero() && !at.Before(g.TargetDate)
}

// Progress is CurrentAmount / TargetAmount. It exceeds 100% once the goal
// is overfunded.
func (g *GoalState) Progress() model.Percent {
	return model.Ratio(int64(g.CurrentAmount), int64(g.TargetAmount))
}

// Remaining is the amount still missing, never negative.
func (g *GoalState) Remaining() model.Money {
	return max(g.TargetAmount-g.CurrentAmount, 0)
}

// OnTrack compares progress against the share of cycles elapsed. The
// target date plays no part.
func (g *GoalState) OnTrack(cycle, total int) bool {
	return OnPace(g.CurrentAmount, g.TargetAmount, cycle, total)
}

// DaysLeft counts whole days until the target date, rounding up and
// stopping at zero. It returns -1 when no target date is set.
func (g *GoalState) DaysLeft(now time.Time) int {
	if g.TargetDate.IsZero() {
		return -1
	}
	d := g.TargetDate.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// ClampPercent limits p to [0%, 100%] for display.
func ClampPercent(p model.Percent) model.Percent {
	return min(max(p, 0), model.FullPercent)
}

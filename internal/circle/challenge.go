package circle

import (
	"sort"
	"time"

	"github.com/roach88/kitty/internal/model"
)

// MilestoneThresholds are the percent-of-goal marks members are credited
// with reaching.
var MilestoneThresholds = []int{25, 50, 75, 100}

// ChallengeState is the savings_challenge payload.
type ChallengeState struct {
	base
	SavingsGoalPerMember model.Money      `json:"savings_goal_per_member"`
	ChallengeEndDate     time.Time        `json:"challenge_end_date"`
	MemberProgress       []MemberProgress `json:"member_progress"`
}

// MemberProgress tracks one member's race toward the goal.
type MemberProgress struct {
	MemberID    string      `json:"member_id"`
	AmountSaved model.Money `json:"amount_saved"`

	// Streak counts consecutive cycles with an on-time contribution.
	Streak          int `json:"streak"`
	LastOnTimeCycle int `json:"last_on_time_cycle"`
}

// Standing is a member's place on the leaderboard.
type Standing struct {
	Rank          int           `json:"rank"`
	MemberID      string        `json:"member_id"`
	AmountSaved   model.Money   `json:"amount_saved"`
	Streak        int           `json:"streak"`
	PercentOfGoal model.Percent `json:"percent_of_goal"`
	Milestones    []int         `json:"milestones"`
	ReachedGoal   bool          `json:"reached_goal"`
	OnTrack       bool          `json:"on_track"`
}

func (*ChallengeState) Type() model.CircleType { return model.CircleSavingsChallenge }

func (s *ChallengeState) clone() Payload {
	cp := *s
	cp.MemberProgress = append([]MemberProgress(nil), s.MemberProgress...)
	return &cp
}

func (s *ChallengeState) progressOf(memberID string) *MemberProgress {
	for i := range s.MemberProgress {
		if s.MemberProgress[i].MemberID == memberID {
			return &s.MemberProgress[i]
		}
	}
	return nil
}

func (s *ChallengeState) allReached() bool {
	for _, p := range s.MemberProgress {
		if p.AmountSaved < s.SavingsGoalPerMember {
			return false
		}
	}
	return true
}

func (s *ChallengeState) validateContribution(c *Circle, memberID string, _ model.Money, at time.Time) *Error {
	if at.After(s.ChallengeEndDate) {
		return c.memberErrorf(ErrCodeChallengeEnded, memberID,
			"challenge ended %s", s.ChallengeEndDate.Format(time.DateOnly))
	}
	return nil
}

func (s *ChallengeState) applyContribution(_ *Circle, ct Contribution) bool {
	p := s.progressOf(ct.MemberID)
	p.AmountSaved += ct.Amount
	if ct.OnTime {
		if p.LastOnTimeCycle == ct.Cycle-1 {
			p.Streak++
		} else {
			p.Streak = 1
		}
		p.LastOnTimeCycle = ct.Cycle
	}
	return s.allReached()
}

func (s *ChallengeState) terminal(_ *Circle, at time.Time) bool {
	return !at.Before(s.ChallengeEndDate) || s.allReached()
}

// Milestones returns the thresholds saved has reached against goal.
func Milestones(saved, goal model.Money) []int {
	reached := []int{}
	if goal <= 0 {
		return reached
	}
	for _, t := range MilestoneThresholds {
		if int64(saved)*100 >= int64(goal)*int64(t) {
			reached = append(reached, t)
		}
	}
	return reached
}

// OnPace reports whether saved/goal >= cycle/total.
func OnPace(saved, goal model.Money, cycle, total int) bool {
	if total <= 0 {
		return true
	}
	return int64(saved)*int64(total) >= int64(goal)*int64(cycle)
}

// Rank orders progress by amount saved, then streak, then earlier join
// time. joined maps member IDs to join times. The input is not modified.
func Rank(progress []MemberProgress, joined map[string]time.Time) []MemberProgress {
	ranked := append([]MemberProgress(nil), progress...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.AmountSaved != b.AmountSaved {
			return a.AmountSaved > b.AmountSaved
		}
		if a.Streak != b.Streak {
			return a.Streak > b.Streak
		}
		return joined[a.MemberID].Before(joined[b.MemberID])
	})
	return ranked
}

// Leaderboard returns every member's standing, best first.
func (c *Circle) Leaderboard() ([]Standing, error) {
	if err := c.requireType(model.CircleSavingsChallenge); err != nil {
		return nil, err
	}
	s := c.payload.(*ChallengeState)
	joined := make(map[string]time.Time, len(c.state.Members))
	for _, m := range c.state.Members {
		joined[m.ID] = m.JoinedAt
	}

	ranked := Rank(s.MemberProgress, joined)
	out := make([]Standing, len(ranked))
	for i, p := range ranked {
		out[i] = Standing{
			Rank:          i + 1,
			MemberID:      p.MemberID,
			AmountSaved:   p.AmountSaved,
			Streak:        p.Streak,
			PercentOfGoal: model.Ratio(int64(p.AmountSaved), int64(s.SavingsGoalPerMember)),
			Milestones:    Milestones(p.AmountSaved, s.SavingsGoalPerMember),
			ReachedGoal:   p.AmountSaved >= s.SavingsGoalPerMember,
			OnTrack:       OnPace(p.AmountSaved, s.SavingsGoalPerMember, c.state.CurrentCycle, c.state.TotalCycles),
		}
	}
	return out, nil
}

package trust

import "github.com/roach88/kitty/internal/model"

// Stats are the cumulative inputs to tier evaluation.
type Stats struct {
	CirclesJoined    int
	CirclesCompleted int
	CyclesDue        int
	CyclesOnTime     int
	Verification     model.VerificationLevel
}

// OnTimePercentage aggregates on-time contributions across every completed circle.
// A member with no history has 0%.
func (s Stats) OnTimePercentage() int {
	if s.CyclesDue == 0 {
		return 0
	}
	return s.CyclesOnTime * 100 / s.CyclesDue
}

// Requirement lists the minimums a member must meet to hold a tier.
type Requirement struct {
	Tier                model.TrustTier
	MinCirclesJoined    int
	MinCirclesCompleted int
	MinOnTime           int
	MinVerification     model.VerificationLevel
	Unlocks             []string
}

// Requirements is the tier ladder in ascending rank order.
var Requirements = []Requirement{
	{
		Tier:    model.TierNewcomer,
		Unlocks: []string{"Join savings circles", "Basic contributions"},
	},
	{
		Tier:             model.TierContributor,
		MinCirclesJoined: 1,
		Unlocks:          []string{"Join more circles", "View community profiles"},
	},
	{
		Tier:                model.TierReliable,
		MinCirclesJoined:    1,
		MinCirclesCompleted: 1,
		MinOnTime:           80,
		MinVerification:     model.VerificationVerified,
		Unlocks:             []string{"Matching fund eligibility", "Priority circle invites"},
	},
	{
		Tier:                model.TierTrusted,
		MinCirclesJoined:    3,
		MinCirclesCompleted: 3,
		MinOnTime:           90,
		MinVerification:     model.VerificationVerified,
		Unlocks:             []string{"Loan access", "Higher circle limits", "Create unlimited circles"},
	},
	{
		Tier:                model.TierPillar,
		MinCirclesJoined:    5,
		MinCirclesCompleted: 5,
		MinOnTime:           95,
		MinVerification:     model.VerificationPremium,
		Unlocks: []string{
			"Maximum matching funds", "Priority access to new features",
			"Community leader badge", "Mentorship program",
		},
	},
}

// RequirementFor returns the requirement row for tier.
func RequirementFor(tier model.TrustTier) (Requirement, bool) {
	for _, r := range Requirements {
		if r.Tier == tier {
			return r, true
		}
	}
	return Requirement{}, false
}

// Satisfied reports whether s meets every minimum of r.
func (r Requirement) Satisfied(s Stats) bool {
	return s.CirclesJoined >= r.MinCirclesJoined &&
		s.CirclesCompleted >= r.MinCirclesCompleted &&
		s.OnTimePercentage() >= r.MinOnTime &&
		s.Verification.Rank() >= r.MinVerification.Rank()
}

// Standing is the result of evaluating stats against the ladder.
type Standing struct {
	Tier     model.TrustTier
	Progress int // 0-100 toward the next tier
}

// Evaluate returns the highest tier whose requirements are all satisfied and
// the progress toward the tier above it.
func Evaluate(s Stats) Standing {
	tier := model.TierNewcomer
	for _, r := range Requirements {
		if r.Satisfied(s) {
			tier = r.Tier
		}
	}
	return Standing{Tier: tier, Progress: ProgressFrom(s, tier)}
}

// ProgressFrom returns progress toward the tier above current.
// Holders of the top tier are at 100.
func ProgressFrom(s Stats, current model.TrustTier) int {
	next, ok := current.Next()
	if !ok {
		return 100
	}
	r, _ := RequirementFor(next)
	return progressToward(s, r)
}

// progressToward is the satisfied fraction of the hardest unmet requirement
// of r, as a whole percentage.
func progressToward(s Stats, r Requirement) int {
	lowest := 100
	consider := func(have, need int) {
		if need <= 0 || have >= need {
			return
		}
		if have < 0 {
			have = 0
		}
		if pct := have * 100 / need; pct < lowest {
			lowest = pct
		}
	}
	consider(s.CirclesJoined, r.MinCirclesJoined)
	consider(s.CirclesCompleted, r.MinCirclesCompleted)
	consider(s.OnTimePercentage(), r.MinOnTime)
	consider(s.Verification.Rank(), r.MinVerification.Rank())
	return lowest
}

// MatchingFundEligible reports whether tier unlocks matching funds.
func MatchingFundEligible(tier model.TrustTier) bool {
	return tier.Rank() >= model.TierReliable.Rank()
}

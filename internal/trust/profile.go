package trust

import (
	"time"

	"github.com/roach88/kitty/internal/model"
)

// Profile is a member's trust state plus the activity history that built it.
type Profile struct {
	MemberID         string                  `json:"member_id"`
	Tier             model.TrustTier         `json:"trust_tier"`
	Progress         int                     `json:"trust_progress"`
	CirclesJoined    int                     `json:"circles_joined"`
	CirclesCompleted int                     `json:"circles_completed"`
	CyclesDue        int                     `json:"cycles_due"`
	CyclesOnTime     int                     `json:"cycles_on_time"`
	TotalSaved       model.Money             `json:"total_saved"`
	TrustPoints      int                     `json:"trust_points"`
	Verification     model.VerificationLevel `json:"verification_level"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	History          []ActivityRecord        `json:"history"`
}

// NewProfile creates the profile a member gets at account creation.
func NewProfile(memberID string, at time.Time) Profile {
	p := Profile{
		MemberID:     memberID,
		Tier:         model.TierNewcomer,
		Verification: model.VerificationBasic,
		CreatedAt:    at,
		UpdatedAt:    at,
		History:      []ActivityRecord{},
	}
	p.Progress = ProgressFrom(p.Stats(), p.Tier)
	return p
}

// Stats extracts the tier-evaluation inputs from the profile.
func (p Profile) Stats() Stats {
	return Stats{
		CirclesJoined:    p.CirclesJoined,
		CirclesCompleted: p.CirclesCompleted,
		CyclesDue:        p.CyclesDue,
		CyclesOnTime:     p.CyclesOnTime,
		Verification:     p.Verification,
	}
}

// OnTimePercentage is the aggregate on-time rate across the history.
func (p Profile) OnTimePercentage() int {
	return p.Stats().OnTimePercentage()
}

// MatchingFundEligible reports whether the member's tier unlocks matching funds.
func (p Profile) MatchingFundEligible() bool {
	return MatchingFundEligible(p.Tier)
}

// hasRecord reports whether rec was already applied.
func (p Profile) hasRecord(id string) bool {
	for _, r := range p.History {
		if r.ID == id {
			return true
		}
	}
	return false
}

// apply folds rec into the profile. Returns false if the record was
// already applied. The tier never decreases here.
func (p *Profile) apply(rec ActivityRecord, at time.Time) bool {
	if p.hasRecord(rec.ID) {
		return false
	}
	p.History = append(p.History, rec)
	p.CirclesJoined++
	p.CirclesCompleted++
	p.CyclesDue += rec.CyclesDue
	p.CyclesOnTime += rec.CyclesOnTime
	p.TotalSaved += rec.TotalContributions
	p.TrustPoints += rec.TrustPoints
	p.UpdatedAt = at

	standing := Evaluate(p.Stats())
	if standing.Tier.Rank() > p.Tier.Rank() {
		p.Tier = standing.Tier
	}
	p.Progress = ProgressFrom(p.Stats(), p.Tier)
	return true
}

// setVerification changes the verification level. Raising or repeating the
// level never lowers the tier. Lowering it caps the tier at the highest rung
// the new level still qualifies for.
func (p *Profile) setVerification(level model.VerificationLevel, at time.Time) {
	lowered := level.Rank() < p.Verification.Rank()
	p.Verification = level
	p.UpdatedAt = at

	tier := p.Tier
	if lowered {
		tier = capForVerification(tier, level)
	}
	if eval := Evaluate(p.Stats()).Tier; eval.Rank() > tier.Rank() {
		tier = eval
	}
	p.Tier = tier
	p.Progress = ProgressFrom(p.Stats(), p.Tier)
}

// capForVerification returns the highest tier at or below tier whose
// verification minimum level meets.
func capForVerification(tier model.TrustTier, level model.VerificationLevel) model.TrustTier {
	capped := model.TierNewcomer
	for _, r := range Requirements {
		if r.Tier.Rank() > tier.Rank() {
			break
		}
		if r.MinVerification.Rank() <= level.Rank() {
			capped = r.Tier
		}
	}
	return capped
}

// clone returns a deep copy safe to hand to callers.
func (p Profile) clone() Profile {
	out := p
	out.History = append([]ActivityRecord(nil), p.History...)
	if out.History == nil {
		out.History = []ActivityRecord{}
	}
	return out
}

package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/kitty/internal/model"
)

func TestEvaluate_Ladder(t *testing.T) {
	tests := []struct {
		name     string
		stats    Stats
		tier     model.TrustTier
		progress int
	}{
		{
			name:     "fresh account",
			stats:    Stats{Verification: model.VerificationBasic},
			tier:     model.TierNewcomer,
			progress: 0,
		},
		{
			name:     "joined one circle",
			stats:    Stats{CirclesJoined: 1, Verification: model.VerificationBasic},
			tier:     model.TierContributor,
			progress: 0, // nothing completed toward reliable
		},
		{
			name: "one completion but unverified",
			stats: Stats{CirclesJoined: 1, CirclesCompleted: 1, CyclesDue: 10, CyclesOnTime: 10,
				Verification: model.VerificationBasic},
			tier:     model.TierContributor,
			progress: 50, // verification rank 1 of 2 is the hardest unmet
		},
		{
			name: "reliable",
			stats: Stats{CirclesJoined: 2, CirclesCompleted: 2, CyclesDue: 10, CyclesOnTime: 9,
				Verification: model.VerificationVerified},
			tier:     model.TierReliable,
			progress: 66, // 2 of 3 circles completed
		},
		{
			name: "trusted",
			stats: Stats{CirclesJoined: 3, CirclesCompleted: 3, CyclesDue: 20, CyclesOnTime: 19,
				Verification: model.VerificationVerified},
			tier:     model.TierTrusted,
			progress: 60, // 3 of 5 completed; 95% on time already met
		},
		{
			name: "pillar counts without premium",
			stats: Stats{CirclesJoined: 6, CirclesCompleted: 6, CyclesDue: 20, CyclesOnTime: 20,
				Verification: model.VerificationVerified},
			tier:     model.TierTrusted,
			progress: 66, // verification 2 of 3
		},
		{
			name: "pillar",
			stats: Stats{CirclesJoined: 5, CirclesCompleted: 5, CyclesDue: 20, CyclesOnTime: 19,
				Verification: model.VerificationPremium},
			tier:     model.TierPillar,
			progress: 100,
		},
		{
			name: "on time too low for reliable",
			stats: Stats{CirclesJoined: 2, CirclesCompleted: 2, CyclesDue: 10, CyclesOnTime: 6,
				Verification: model.VerificationVerified},
			tier:     model.TierContributor,
			progress: 75, // 60 of 80
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.stats)
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.progress, got.Progress)
		})
	}
}

func TestEvaluate_MonotonicInCompletions(t *testing.T) {
	// For a fixed verification level and perfect attendance, adding
	// completions never lowers the tier.
	prev := 0
	for n := 0; n <= 8; n++ {
		s := Stats{CirclesJoined: n, CirclesCompleted: n, CyclesDue: 4 * n, CyclesOnTime: 4 * n,
			Verification: model.VerificationPremium}
		rank := Evaluate(s).Tier.Rank()
		assert.GreaterOrEqual(t, rank, prev, "completions=%d", n)
		prev = rank
	}
	assert.Equal(t, model.TierPillar.Rank(), prev)
}

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 25, PointsFor(100))
	assert.Equal(t, 20, PointsFor(95))
	assert.Equal(t, 17, PointsFor(92))
	assert.Equal(t, 5, PointsFor(40))
}

func TestOnTimePercentage(t *testing.T) {
	assert.Equal(t, 100, OnTimePercentage(0, 0))
	assert.Equal(t, 75, OnTimePercentage(3, 4))
	assert.Equal(t, 66, OnTimePercentage(2, 3))
}

func TestNewActivityRecord(t *testing.T) {
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := NewActivityRecord("alice", "c1", "Family", model.CircleROSCA, 5000, 20000, 4, 3, at)

	assert.Equal(t, model.ActivityID("alice", "c1"), rec.ID)
	assert.Equal(t, 75, rec.OnTimePercentage)
	assert.Equal(t, 5, rec.TrustPoints)
	assert.Equal(t, model.Money(20000), rec.TotalContributions)
}

func TestMatchingFundEligible(t *testing.T) {
	assert.False(t, MatchingFundEligible(model.TierContributor))
	assert.True(t, MatchingFundEligible(model.TierReliable))
	assert.True(t, MatchingFundEligible(model.TierPillar))
}

package circle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kitty/internal/model"
)

func TestView_RoscaForMember(t *testing.T) {
	c := newActive(t, roscaConfig("p1", "p2", "p3", "p4"))
	_, err := c.RecordContribution("p4", 10000, 1, t0)
	require.NoError(t, err)

	v, err := c.View("p4", t0)
	require.NoError(t, err)

	assert.Equal(t, model.StatusActive, v.Status)
	assert.Equal(t, []string{"p4"}, v.Contributed)
	assert.Equal(t, t0, v.PeriodStart)
	assert.Equal(t, t0.AddDate(0, 1, 0), v.PeriodEnd)
	require.NotNil(t, v.Member)
	assert.True(t, v.Member.ContributedCycle)
	assert.Equal(t, 100, v.Member.OnTimePercentage)
	require.NotNil(t, v.Rotation)
	assert.Equal(t, "p1", v.Rotation.RecipientID)
	assert.Equal(t, 3, v.Rotation.TurnsUntilPayout)
	assert.Nil(t, v.Auction)
	assert.Nil(t, v.Goal)
}

func TestView_UnknownMember(t *testing.T) {
	c := newActive(t, roscaConfig("a", "b"))
	_, err := c.View("zed", t0)
	assert.True(t, IsCode(err, ErrCodeUnknownMember))
}

func TestView_Anonymous(t *testing.T) {
	c := newActive(t, chitConfig(nil, "a", "b"))
	v, err := c.View("", t0)
	require.NoError(t, err)
	assert.Nil(t, v.Member)
	require.NotNil(t, v.Auction)
	assert.False(t, v.Auction.CanBid)
}

func TestView_Goal(t *testing.T) {
	c := newActive(t, goalConfig("a", "b", "c"))
	_, err := c.RecordContribution("a", 20000, 1, t0)
	require.NoError(t, err)

	v, err := c.View("b", t0)
	require.NoError(t, err)
	require.NotNil(t, v.Goal)
	assert.Equal(t, model.Pct(50), v.Goal.Progress)
	assert.Equal(t, 1, v.Goal.Contributors)
	assert.Equal(t, []int{25, 50}, v.Goal.Milestones)
	assert.True(t, v.Goal.OnTrack)
	assert.Equal(t, 0, v.Member.OnTimePercentage)
}

func TestView_FundAndChallenge(t *testing.T) {
	c := fundedCircle(t, "majority_vote")
	_, err := c.RequestWithdrawal("r1", "a", 1000, "", t0)
	require.NoError(t, err)
	v, err := c.View("a", t0)
	require.NoError(t, err)
	require.NotNil(t, v.Fund)
	assert.Equal(t, 1, v.Fund.PendingRequests)
	assert.Equal(t, model.Pct(15), v.Fund.PercentOfTarget)

	ch := newActive(t, challengeConfig("a", "b"))
	_, err = ch.RecordContribution("b", 5000, 1, t0)
	require.NoError(t, err)
	v, err = ch.View("a", t0)
	require.NoError(t, err)
	require.NotNil(t, v.Challenge)
	require.NotNil(t, v.Challenge.Standing)
	assert.Equal(t, 2, v.Challenge.Standing.Rank)
}

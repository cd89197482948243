package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kitty/internal/model"
	"github.com/roach88/kitty/internal/trust"
)

func TestCommit_RoundTripsSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestCircle(t, "c1")

	require.NoError(t, s.Commit(ctx, c.Snapshot(), createTestEvent(t, "c1", 1, model.EventCircleCreated), nil))

	_, err := c.RecordContribution("alice", 2500, 1, testTime)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, c.Snapshot(), createTestEvent(t, "c1", 2, model.EventContributionMade), nil))

	snap, seq, err := s.LoadCircle(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, seq)
	assert.Equal(t, c.Snapshot(), snap)
}

func TestCommit_RejectsSeqGap(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestCircle(t, "c1")

	err := s.Commit(ctx, c.Snapshot(), createTestEvent(t, "c1", 2, model.EventCircleCreated), nil)
	assert.True(t, errors.Is(err, ErrSeqConflict))

	_, _, err = s.LoadCircle(ctx, "c1")
	assert.True(t, errors.Is(err, ErrNotFound), "failed commit must not leave a circle row")
}

func TestCommit_SameEventTwiceIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestCircle(t, "c1")
	ev := createTestEvent(t, "c1", 1, model.EventCircleCreated)

	require.NoError(t, s.Commit(ctx, c.Snapshot(), ev, nil))
	require.NoError(t, s.Commit(ctx, c.Snapshot(), ev, nil))

	events, err := s.ReadEvents(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCommit_WritesActivity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestCircle(t, "c1")

	rec := trust.NewActivityRecord("alice", "c1", "Test c1", model.CircleROSCA, 2500, 5000, 2, 2, testTime)
	require.NoError(t, s.Commit(ctx, c.Snapshot(), createTestEvent(t, "c1", 1, model.EventCircleCreated), []trust.ActivityRecord{rec}))

	got, err := s.ReadActivity(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])

	none, err := s.ReadActivity(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSaveProfile_Upserts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	p, err := s.LoadProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, p)

	profile := trust.NewProfile("alice", testTime)
	require.NoError(t, s.SaveProfile(ctx, profile))

	profile.Verification = model.VerificationVerified
	profile.UpdatedAt = testTime.Add(1)
	require.NoError(t, s.SaveProfile(ctx, profile))

	got, err := s.LoadProfile(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, profile, *got)
}

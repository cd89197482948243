package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/model"
	"github.com/roach88/kitty/internal/store"
	"github.com/roach88/kitty/internal/testutil"
	"github.com/roach88/kitty/internal/trust"
)

var t0 = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Store) {
	t.Helper()
	s := testutil.OpenStore(t)
	clock := testutil.NewFakeClock(t0)
	base := []Option{
		WithLogger(quiet),
		WithClock(clock.Now),
		WithIDGenerator(NewSequenceGenerator("req")),
	}
	return New(s, append(base, opts...)...), s
}

func members(ids ...string) []circle.MemberSpec {
	out := make([]circle.MemberSpec, len(ids))
	for i, id := range ids {
		out[i] = circle.MemberSpec{ID: id}
	}
	return out
}

func roscaConfig(id string, ids ...string) circle.Config {
	return circle.Config{
		ID:                 id,
		Name:               "Block Club",
		Type:               model.CircleROSCA,
		Members:            members(ids...),
		ContributionAmount: 10000,
		Frequency:          model.Monthly,
		TotalCycles:        len(ids),
	}
}

func createStarted(t *testing.T, e *Engine, cfg circle.Config) string {
	t.Helper()
	ctx := context.Background()
	id, err := e.Create(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, e.Start(ctx, id))
	return id
}

// runRotation drives a rosca circle through every cycle to completion.
func runRotation(ctx context.Context, e *Engine, id string) error {
	for {
		snap, err := e.Snapshot(ctx, id)
		if err != nil {
			return err
		}
		if snap.State.Status == model.StatusCompleted {
			return nil
		}
		for _, m := range snap.State.Members {
			if _, err := e.Contribute(ctx, id, m.ID, snap.State.ContributionAmount, 0); err != nil {
				return err
			}
		}
		rec, ok := circle.Recipient(snap.State.Members, snap.State.CurrentCycle)
		if !ok {
			return fmt.Errorf("no recipient for cycle %d", snap.State.CurrentCycle)
		}
		if _, err := e.RecordPayout(ctx, id, rec.ID); err != nil {
			return err
		}
		if _, err := e.AdvanceCycle(ctx, id); err != nil {
			return err
		}
	}
}

func TestEngine_CreateAndStart(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	id, err := e.Create(ctx, roscaConfig("c1", "ana", "ben", "cy"))
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	snap, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, snap.State.Status)

	require.NoError(t, e.Start(ctx, id))
	err = e.Start(ctx, id)
	assert.True(t, circle.IsCode(err, circle.ErrCodeAlreadyStarted))

	seq, err := s.LastSeq(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, seq)

	events, err := s.ReadEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventCircleCreated, events[0].Kind)
	assert.Equal(t, model.EventCircleStarted, events[1].Kind)
	assert.Equal(t, model.EngineVersion, events[1].EngineVersion)
}

func TestEngine_CreateGeneratesID(t *testing.T) {
	e, _ := newTestEngine(t, WithIDGenerator(NewSequenceGenerator("circle")))
	id, err := e.Create(context.Background(), roscaConfig("", "ana", "ben"))
	require.NoError(t, err)
	assert.Equal(t, "circle-1", id)
}

func TestEngine_CreateDuplicate(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Create(ctx, roscaConfig("c1", "ana", "ben"))
	require.NoError(t, err)
	_, err = e.Create(ctx, roscaConfig("c1", "ana", "ben"))
	assert.ErrorIs(t, err, ErrCircleExists)
}

func TestEngine_CreateInvalidConfigStoresNothing(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Create(ctx, roscaConfig("c1", "solo"))
	assert.True(t, circle.IsCode(err, circle.ErrCodeInvalidConfiguration))

	_, _, err = s.LoadCircle(ctx, "c1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEngine_UnknownCircle(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Contribute(ctx, "nope", "ana", 100, 0)
	assert.ErrorIs(t, err, ErrCircleNotFound)
	_, err = e.View(ctx, "nope", "")
	assert.ErrorIs(t, err, ErrCircleNotFound)
}

func TestEngine_RejectedOperationLeavesNoTrace(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()
	id := createStarted(t, e, roscaConfig("c1", "ana", "ben", "cy"))

	_, err := e.Contribute(ctx, id, "ana", 10000, 0)
	require.NoError(t, err)
	before, err := e.Snapshot(ctx, id)
	require.NoError(t, err)

	_, err = e.Contribute(ctx, id, "ana", 10000, 0)
	assert.True(t, circle.IsCode(err, circle.ErrCodeDuplicateContribution))
	_, err = e.Contribute(ctx, id, "ben", 999, 0)
	assert.True(t, circle.IsCode(err, circle.ErrCodeInvalidAmount))
	_, err = e.RecordPayout(ctx, id, "ana")
	assert.True(t, circle.IsCode(err, circle.ErrCodeCycleIncomplete))
	_, err = e.SubmitBid(ctx, id, "ana", model.Pct(10))
	assert.True(t, circle.IsCode(err, circle.ErrCodeWrongVariant))

	after, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	seq, err := s.LastSeq(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 3, seq)
}

func TestEngine_RotationToCompletion(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	s := testutil.OpenStore(t)
	clock := testutil.NewFakeClock(t0)
	tracker := trust.NewTracker(s, trust.WithLogger(quiet), trust.WithClock(clock.Now))
	e := New(s, WithLogger(quiet), WithClock(clock.Now), WithTracker(tracker))

	ctx := context.Background()
	var g errgroup.Group
	g.Go(func() error { return tracker.Run(ctx) })

	id := createStarted(t, e, roscaConfig("c1", "ana", "ben", "cy"))
	require.NoError(t, runRotation(ctx, e, id))

	tracker.Close()
	require.NoError(t, g.Wait())

	snap, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, snap.State.Status)
	assert.Equal(t, 3, snap.State.CurrentCycle)
	for _, m := range snap.State.Members {
		assert.True(t, m.HasReceivedPayout, m.ID)
		assert.EqualValues(t, 30000, m.PayoutAmount, m.ID)
	}

	recs, err := s.ReadActivity(ctx, "ben")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].CyclesDue)
	assert.Equal(t, 100, recs[0].OnTimePercentage)
	assert.Equal(t, 25, recs[0].TrustPoints)

	p, err := tracker.Profile(ctx, "ben")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CirclesCompleted)
	assert.Equal(t, 25, p.TrustPoints)

	_, err = e.Contribute(ctx, id, "ana", 10000, 0)
	assert.True(t, circle.IsCode(err, circle.ErrCodeCircleNotActive))
}

func TestEngine_UnappliedActivityReachesProfileOnReload(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	s := testutil.OpenStore(t)
	clock := testutil.NewFakeClock(t0)
	tracker := trust.NewTracker(s, trust.WithLogger(quiet), trust.WithClock(clock.Now))
	e := New(s, WithLogger(quiet), WithClock(clock.Now), WithTracker(tracker))

	// The worker is interrupted before it applies anything.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, tracker.Run(cancelled), context.Canceled)

	ctx := context.Background()
	id := createStarted(t, e, roscaConfig("c1", "ana", "ben"))
	require.NoError(t, runRotation(ctx, e, id))
	tracker.Close()
	assert.Equal(t, 2, tracker.Pending())

	recs, err := s.ReadActivity(ctx, "ben")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	fresh := trust.NewTracker(s, trust.WithLogger(quiet), trust.WithClock(clock.Now))
	p, err := fresh.Profile(ctx, "ben")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CirclesCompleted)
	assert.Equal(t, model.TierContributor, p.Tier)
	assert.Equal(t, 25, p.TrustPoints)
}

func TestEngine_ReloadsFromStore(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()

	first := New(s, WithLogger(quiet))
	id := createStarted(t, first, roscaConfig("c1", "ana", "ben"))
	_, err := first.Contribute(ctx, id, "ana", 10000, 0)
	require.NoError(t, err)

	second := New(s, WithLogger(quiet))
	_, err = second.Contribute(ctx, id, "ana", 10000, 0)
	assert.True(t, circle.IsCode(err, circle.ErrCodeDuplicateContribution))
	_, err = second.Contribute(ctx, id, "ben", 10000, 0)
	require.NoError(t, err)

	seq, err := s.LastSeq(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 4, seq)
	require.NoError(t, second.Verify(ctx, id))
}

func TestEngine_AuctionCycle(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	id := createStarted(t, e, circle.Config{
		ID:                 "chit",
		Name:               "Market Chit",
		Type:               model.CircleChitFund,
		Members:            members("a", "b", "c"),
		ContributionAmount: 10000,
		Frequency:          model.Monthly,
		TotalCycles:        3,
		Settings:           circle.AuctionSettings{PotValue: 500000, MinBidDiscount: model.Pct(5), OrganizerCommission: model.Pct(3)},
	})

	for _, m := range []string{"a", "b", "c"} {
		_, err := e.Contribute(ctx, id, m, 10000, 0)
		require.NoError(t, err)
	}

	out, err := e.SubmitBid(ctx, id, "a", model.Pct(12))
	require.NoError(t, err)
	assert.True(t, out.Leading)
	out, err = e.SubmitBid(ctx, id, "b", model.Pct(18))
	require.NoError(t, err)
	assert.False(t, out.Leading)

	res, err := e.ResolveAuction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a", res.Result.WinnerID)
	assert.EqualValues(t, 440000, res.Result.NetPayout)
	assert.EqualValues(t, 15000, res.Result.Commission)
	assert.EqualValues(t, 425000, res.Result.Received)
	assert.Equal(t, 2, res.Advance.To)

	v, err := e.View(ctx, id, "a")
	require.NoError(t, err)
	require.NotNil(t, v.Auction)
	assert.False(t, v.Auction.CanBid)
	assert.Equal(t, []string{"a"}, v.Auction.RoundWinners)

	require.NoError(t, e.Verify(ctx, id))
}

func TestEngine_WithdrawalVote(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	id := createStarted(t, e, circle.Config{
		ID:                 "fund",
		Name:               "Rainy Day",
		Type:               model.CircleEmergencyFund,
		Members:            members("a", "b", "c"),
		ContributionAmount: 5000,
		Frequency:          model.Monthly,
		TotalCycles:        12,
		Settings:           circle.FundSettings{TargetFundSize: 100000, MaxWithdrawal: 20000, ApprovalMethod: model.MajorityVote},
	})
	for _, m := range []string{"a", "b", "c"} {
		_, err := e.Contribute(ctx, id, m, 5000, 0)
		require.NoError(t, err)
	}

	req, err := e.RequestWithdrawal(ctx, id, "a", 8000, "car repair")
	require.NoError(t, err)
	assert.Equal(t, "req-1", req.ID)
	assert.Equal(t, model.RequestPending, req.Status)

	req, err = e.CastVote(ctx, id, req.ID, "b", true)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	req, err = e.CastVote(ctx, id, req.ID, "c", true)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, req.Status)

	_, err = e.CastVote(ctx, id, req.ID, "a", true)
	assert.True(t, circle.IsCode(err, circle.ErrCodeRequestAlreadyResolved))
	_, err = e.Decide(ctx, id, req.ID, "a", true)
	assert.True(t, circle.IsCode(err, circle.ErrCodeWrongApprovalMethod))

	v, err := e.View(ctx, id, "")
	require.NoError(t, err)
	require.NotNil(t, v.Fund)
	assert.EqualValues(t, 7000, v.Fund.CurrentFundBalance)

	require.NoError(t, e.Verify(ctx, id))
}

func TestEngine_ConcurrentCircles(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		ids[i] = createStarted(t, e, roscaConfig(fmt.Sprintf("c%d", i), "ana", "ben", "cy"))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error { return runRotation(gctx, e, id) })
	}
	require.NoError(t, g.Wait())

	summaries, err := s.ListCircles(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, n)
	for _, sum := range summaries {
		assert.Equal(t, model.StatusCompleted, sum.Status, sum.ID)
	}
	for _, id := range ids {
		require.NoError(t, e.Verify(ctx, id), id)
	}
}

func TestEngine_ConcurrentContributionsToOneCircle(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()
	names := []string{"a", "b", "c", "d", "e", "f"}
	id := createStarted(t, e, roscaConfig("busy", names...))

	var g errgroup.Group
	for _, m := range names {
		m := m
		g.Go(func() error {
			_, err := e.Contribute(ctx, id, m, 10000, 0)
			return err
		})
	}
	require.NoError(t, g.Wait())

	snap, err := e.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 60000, snap.State.TotalPot)
	assert.Len(t, snap.Contributions, len(names))

	seq, err := s.LastSeq(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 2+len(names), seq)
	require.NoError(t, e.Verify(ctx, id))
}

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/model"
	"github.com/roach88/kitty/internal/store"
	"github.com/roach88/kitty/internal/trust"
)

// Store is the persistence the engine needs. *store.Store implements it.
type Store interface {
	Commit(ctx context.Context, snap circle.Snapshot, ev model.Event, activity []trust.ActivityRecord) error
	LoadCircle(ctx context.Context, id string) (circle.Snapshot, int64, error)
	ReadEvents(ctx context.Context, circleID string) ([]model.Event, error)
}

// Engine applies operations to circles.
//
// Every circle is serialized by its own mutex; operations on different
// circles never wait for each other. The circles map is guarded by mu only
// long enough to find or insert an entry.
//
// An operation runs against a clone of the circle. The clone replaces the
// cached circle only after the snapshot, event and any activity records
// have been committed, so a rejected or failed operation leaves no trace.
type Engine struct {
	store   Store
	tracker *trust.Tracker
	ids     IDGenerator
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.RWMutex
	circles map[string]*circleEntry
}

type circleEntry struct {
	mu     sync.Mutex
	circle *circle.Circle // nil until loaded
	clock  *Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the wall clock used to timestamp operations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the generator for circle and request IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithTracker hands completed-circle activity to a trust tracker.
func WithTracker(t *trust.Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

// New creates an Engine backed by s.
func New(s Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		ids:     UUIDv7Generator{},
		now:     time.Now,
		logger:  slog.Default(),
		circles: make(map[string]*circleEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// timestamp returns the operation time, normalized so it survives a JSON
// round trip unchanged.
func (e *Engine) timestamp() time.Time {
	return e.now().UTC().Round(0)
}

// entry returns the cache slot for id, creating an empty one if needed.
func (e *Engine) entry(id string) *circleEntry {
	e.mu.RLock()
	ent, ok := e.circles[id]
	e.mu.RUnlock()
	if ok {
		return ent
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if ent, ok = e.circles[id]; !ok {
		ent = &circleEntry{}
		e.circles[id] = ent
	}
	return ent
}

// load fills ent from the store. Caller holds ent.mu.
func (e *Engine) load(ctx context.Context, ent *circleEntry, id string) error {
	if ent.circle != nil {
		return nil
	}
	snap, seq, err := e.store.LoadCircle(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrCircleNotFound, id)
	}
	if err != nil {
		return err
	}
	c, err := circle.Restore(snap)
	if err != nil {
		return fmt.Errorf("restore circle %s: %w", id, err)
	}
	ent.circle = c
	ent.clock = NewClockAt(seq)
	return nil
}

// Create stores a new pending circle. An empty cfg.ID is filled in from the
// ID generator. Returns the circle ID.
func (e *Engine) Create(ctx context.Context, cfg circle.Config) (string, error) {
	if cfg.ID == "" {
		cfg.ID = e.ids.Generate()
	}
	ent := e.entry(cfg.ID)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	err := e.load(ctx, ent, cfg.ID)
	if err == nil {
		return "", fmt.Errorf("%w: %s", ErrCircleExists, cfg.ID)
	}
	if !errors.Is(err, ErrCircleNotFound) {
		return "", err
	}

	at := e.timestamp()
	c, err := circle.New(cfg, at)
	if err != nil {
		return "", err
	}
	clock := NewClock()
	ev, err := newEvent(cfg.ID, clock.Peek(), model.EventCircleCreated, encodeConfig(cfg), at)
	if err != nil {
		return "", err
	}
	if err := e.store.Commit(ctx, c.Snapshot(), ev, nil); err != nil {
		return "", err
	}
	clock.Next()
	ent.circle = c
	ent.clock = clock

	e.logger.Info("circle created",
		"circle", cfg.ID,
		"type", cfg.Type,
		"members", len(cfg.Members),
		"cycles", cfg.TotalCycles,
	)
	return cfg.ID, nil
}

// execute runs cmd against circle id under the circle's lock.
func (e *Engine) execute(ctx context.Context, id string, cmd command) (any, error) {
	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()

	if err := e.load(ctx, ent, id); err != nil {
		return nil, err
	}

	at := e.timestamp()
	work := ent.circle.Clone()
	wasCompleted := work.Status() == model.StatusCompleted
	result, err := cmd.apply(work, at)
	if err != nil {
		e.logger.Debug("operation rejected",
			"circle", id,
			"kind", cmd.kind(),
			"code", circle.CodeOf(err),
			"error", err,
		)
		return nil, err
	}

	ev, err := newEvent(id, ent.clock.Peek(), cmd.kind(), cmd, at)
	if err != nil {
		return nil, err
	}
	var activity []trust.ActivityRecord
	completed := !wasCompleted && work.Status() == model.StatusCompleted
	if completed {
		activity = work.ActivityRecords()
	}
	if err := e.store.Commit(ctx, work.Snapshot(), ev, activity); err != nil {
		return nil, fmt.Errorf("persist %s on %s: %w", cmd.kind(), id, err)
	}
	ent.clock.Next()
	ent.circle = work

	e.logger.Debug("operation applied", "circle", id, "kind", cmd.kind(), "seq", ev.Seq)
	if completed {
		e.logger.Info("circle completed", "circle", id, "cycle", work.CurrentCycle(), "records", len(activity))
		if e.tracker != nil && !e.tracker.Submit(activity...) {
			e.logger.Warn("trust tracker closed, activity not submitted", "circle", id)
		}
	}
	return result, nil
}

// Start moves a pending circle to active.
func (e *Engine) Start(ctx context.Context, id string) error {
	_, err := e.execute(ctx, id, startCommand{})
	if err == nil {
		e.logger.Info("circle started", "circle", id)
	}
	return err
}

// Contribute records a contribution. cycle 0 means the current cycle.
func (e *Engine) Contribute(ctx context.Context, id, memberID string, amount model.Money, cycle int) (circle.Contribution, error) {
	res, err := e.execute(ctx, id, contributeCommand{MemberID: memberID, Amount: amount, Cycle: cycle})
	if err != nil {
		return circle.Contribution{}, err
	}
	return res.(circle.Contribution), nil
}

// RecordPayout pays the current rosca recipient.
func (e *Engine) RecordPayout(ctx context.Context, id, memberID string) (circle.Payout, error) {
	res, err := e.execute(ctx, id, payoutCommand{MemberID: memberID})
	if err != nil {
		return circle.Payout{}, err
	}
	return res.(circle.Payout), nil
}

// SubmitBid places a chit fund bid.
func (e *Engine) SubmitBid(ctx context.Context, id, memberID string, discount model.Percent) (BidOutcome, error) {
	res, err := e.execute(ctx, id, bidCommand{MemberID: memberID, Discount: discount})
	if err != nil {
		return BidOutcome{}, err
	}
	return res.(BidOutcome), nil
}

// ResolveAuction awards the current chit fund cycle.
func (e *Engine) ResolveAuction(ctx context.Context, id string) (Resolution, error) {
	res, err := e.execute(ctx, id, resolveCommand{})
	if err != nil {
		return Resolution{}, err
	}
	r := res.(Resolution)
	e.logger.Info("auction resolved",
		"circle", id,
		"cycle", r.Result.Cycle,
		"winner", r.Result.WinnerID,
		"discount", r.Result.Discount.String(),
	)
	return r, nil
}

// AdvanceCycle closes the current cycle.
func (e *Engine) AdvanceCycle(ctx context.Context, id string) (circle.Advance, error) {
	res, err := e.execute(ctx, id, advanceCommand{})
	if err != nil {
		return circle.Advance{}, err
	}
	adv := res.(circle.Advance)
	e.logger.Info("cycle advanced", "circle", id, "from", adv.From, "to", adv.To, "completed", adv.Completed)
	return adv, nil
}

// RequestWithdrawal files an emergency fund request under a new ID.
func (e *Engine) RequestWithdrawal(ctx context.Context, id, memberID string, amount model.Money, reason string) (circle.WithdrawalRequest, error) {
	cmd := withdrawCommand{RequestID: e.ids.Generate(), MemberID: memberID, Amount: amount, Reason: reason}
	res, err := e.execute(ctx, id, cmd)
	if err != nil {
		return circle.WithdrawalRequest{}, err
	}
	req := res.(circle.WithdrawalRequest)
	e.logResolution(id, req)
	return req, nil
}

// CastVote records a majority_vote ballot.
func (e *Engine) CastVote(ctx context.Context, id, requestID, memberID string, approve bool) (circle.WithdrawalRequest, error) {
	res, err := e.execute(ctx, id, voteCommand{RequestID: requestID, MemberID: memberID, Approve: approve})
	if err != nil {
		return circle.WithdrawalRequest{}, err
	}
	req := res.(circle.WithdrawalRequest)
	e.logResolution(id, req)
	return req, nil
}

// Decide records the admin's decision on a request.
func (e *Engine) Decide(ctx context.Context, id, requestID, approverID string, approve bool) (circle.WithdrawalRequest, error) {
	res, err := e.execute(ctx, id, decideCommand{RequestID: requestID, ApproverID: approverID, Approve: approve})
	if err != nil {
		return circle.WithdrawalRequest{}, err
	}
	req := res.(circle.WithdrawalRequest)
	e.logResolution(id, req)
	return req, nil
}

func (e *Engine) logResolution(id string, req circle.WithdrawalRequest) {
	if !req.Status.Resolved() {
		return
	}
	e.logger.Info("withdrawal resolved",
		"circle", id,
		"request", req.ID,
		"status", req.Status,
		"amount", req.Amount.String(),
	)
}

// read runs fn on the cached circle under its lock.
func (e *Engine) read(ctx context.Context, id string, fn func(c *circle.Circle) error) error {
	ent := e.entry(id)
	ent.mu.Lock()
	defer ent.mu.Unlock()
	if err := e.load(ctx, ent, id); err != nil {
		return err
	}
	return fn(ent.circle)
}

// View renders circle id for memberID ("" for no member section).
func (e *Engine) View(ctx context.Context, id, memberID string) (circle.View, error) {
	var v circle.View
	err := e.read(ctx, id, func(c *circle.Circle) error {
		var err error
		v, err = c.View(memberID, e.timestamp())
		return err
	})
	return v, err
}

// Snapshot returns the current snapshot of circle id.
func (e *Engine) Snapshot(ctx context.Context, id string) (circle.Snapshot, error) {
	var snap circle.Snapshot
	err := e.read(ctx, id, func(c *circle.Circle) error {
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// newEvent builds the content-addressed event for an accepted operation.
func newEvent(circleID string, seq int64, kind string, args any, at time.Time) (model.Event, error) {
	payload, err := toPayload(args)
	if err != nil {
		return model.Event{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	payload["at"] = at.Format(time.RFC3339Nano)

	id, err := model.EventID(circleID, seq, kind, payload)
	if err != nil {
		return model.Event{}, err
	}
	data, err := model.MarshalCanonical(payload)
	if err != nil {
		return model.Event{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return model.Event{
		ID:            id,
		CircleID:      circleID,
		Seq:           seq,
		Kind:          kind,
		Payload:       data,
		At:            at,
		EngineVersion: model.EngineVersion,
	}, nil
}

// snapshotsEqual compares snapshots by their JSON encoding.
func snapshotsEqual(a, b circle.Snapshot) (bool, error) {
	ja, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return string(ja) == string(jb), nil
}

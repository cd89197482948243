package trust

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/kitty/internal/model"
)

// Store persists trust profiles. LoadProfile returns (nil, nil) for
// members it has never seen. ReadActivity returns every activity record
// stored for a member, applied or not.
type Store interface {
	LoadProfile(ctx context.Context, memberID string) (*Profile, error)
	SaveProfile(ctx context.Context, p Profile) error
	ReadActivity(ctx context.Context, memberID string) ([]ActivityRecord, error)
}

// Tracker owns every member's trust profile.
//
// Thread-safety: the profiles map is guarded by mu; each profile has its own
// lock so members are recomputed independently.
type Tracker struct {
	mu       sync.Mutex
	profiles map[string]*profileEntry

	store  Store
	queue  *recordQueue
	logger *slog.Logger
	now    func() time.Time
}

type profileEntry struct {
	mu      sync.Mutex
	loaded  bool
	profile Profile
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithClock sets the wall clock used for profile timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker. store may be nil for a memory-only tracker.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		profiles: make(map[string]*profileEntry),
		store:    store,
		queue:    newRecordQueue(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submit hands completed-circle records to the worker.
// Returns false once the tracker is closed.
func (t *Tracker) Submit(recs ...ActivityRecord) bool {
	return t.queue.Enqueue(recs...)
}

// Pending returns the number of records not yet applied.
func (t *Tracker) Pending() int {
	return t.queue.Len()
}

// Close stops accepting records. Run drains what is queued and returns.
func (t *Tracker) Close() {
	t.queue.Close()
}

// Run applies queued records until the tracker is closed and drained or ctx
// is cancelled. Application errors are logged and the loop continues, so one
// bad record never blocks other members.
func (t *Tracker) Run(ctx context.Context) error {
	for {
		rec, ok := t.queue.TryDequeue()
		if ok {
			if _, _, err := t.Apply(ctx, rec); err != nil {
				t.logger.Error("failed to apply activity record",
					"record_id", rec.ID, "member_id", rec.MemberID, "circle_id", rec.CircleID, "error", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.queue.Wait():
			if t.queue.Closed() && t.queue.Len() == 0 {
				return nil
			}
		}
	}
}

// Apply folds rec into the member's profile synchronously.
// Returns the updated profile and whether the record was new.
func (t *Tracker) Apply(ctx context.Context, rec ActivityRecord) (Profile, bool, error) {
	if rec.MemberID == "" {
		return Profile{}, false, fmt.Errorf("apply activity record %s: missing member id", rec.ID)
	}
	e := t.entry(rec.MemberID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := t.load(ctx, e, rec.MemberID); err != nil {
		return Profile{}, false, err
	}

	next := e.profile.clone()
	if !next.apply(rec, t.now()) {
		return e.profile.clone(), false, nil
	}
	if err := t.save(ctx, next); err != nil {
		return Profile{}, false, err
	}

	if next.Tier != e.profile.Tier {
		t.logger.Info("trust tier changed",
			"member_id", rec.MemberID, "from", e.profile.Tier, "to", next.Tier)
	}
	e.profile = next
	return next.clone(), true, nil
}

// Profile returns the member's current profile, creating a newcomer profile
// on first access.
func (t *Tracker) Profile(ctx context.Context, memberID string) (Profile, error) {
	e := t.entry(memberID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := t.load(ctx, e, memberID); err != nil {
		return Profile{}, err
	}
	return e.profile.clone(), nil
}

// SetVerification changes a member's verification level. Only a lower level
// can lower the tier, and then only to the highest tier the new level allows.
func (t *Tracker) SetVerification(ctx context.Context, memberID string, level model.VerificationLevel) (Profile, error) {
	if level.Rank() == 0 {
		return Profile{}, fmt.Errorf("set verification: invalid level %q", level)
	}
	e := t.entry(memberID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := t.load(ctx, e, memberID); err != nil {
		return Profile{}, err
	}

	next := e.profile.clone()
	next.setVerification(level, t.now())
	if err := t.save(ctx, next); err != nil {
		return Profile{}, err
	}
	if next.Tier != e.profile.Tier {
		t.logger.Info("trust tier changed",
			"member_id", memberID, "from", e.profile.Tier, "to", next.Tier, "verification", level)
	}
	e.profile = next
	return next.clone(), nil
}

// entry returns the lockable slot for memberID, creating it if needed.
func (t *Tracker) entry(memberID string) *profileEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.profiles[memberID]
	if !ok {
		e = &profileEntry{}
		t.profiles[memberID] = e
	}
	return e
}

// load populates e from the store or a fresh profile, then folds in any
// stored activity the profile has not seen yet. Caller holds e.mu.
func (t *Tracker) load(ctx context.Context, e *profileEntry, memberID string) error {
	if e.loaded {
		return nil
	}
	if t.store == nil {
		e.profile = NewProfile(memberID, t.now())
		e.loaded = true
		return nil
	}

	p, err := t.store.LoadProfile(ctx, memberID)
	if err != nil {
		return fmt.Errorf("load profile %s: %w", memberID, err)
	}
	profile := NewProfile(memberID, t.now())
	if p != nil {
		profile = p.clone()
	}

	recs, err := t.store.ReadActivity(ctx, memberID)
	if err != nil {
		return fmt.Errorf("read activity %s: %w", memberID, err)
	}
	missed := 0
	for _, rec := range recs {
		if profile.apply(rec, t.now()) {
			missed++
		}
	}
	if missed > 0 {
		if err := t.save(ctx, profile); err != nil {
			return err
		}
		t.logger.Info("reconciled trust profile",
			"member_id", memberID, "records", missed, "tier", profile.Tier)
	}

	e.profile = profile
	e.loaded = true
	return nil
}

func (t *Tracker) save(ctx context.Context, p Profile) error {
	if t.store == nil {
		return nil
	}
	if err := t.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile %s: %w", p.MemberID, err)
	}
	return nil
}

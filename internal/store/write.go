package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/model"
	"github.com/roach88/kitty/internal/trust"
)

// ErrSeqConflict is returned when an event does not directly follow the
// circle's last stored event, i.e. another writer got there first.
var ErrSeqConflict = errors.New("event sequence conflict")

// Commit persists the outcome of one accepted circle operation in a single
// transaction: the new snapshot, the event that produced it, and any
// activity records emitted by completion. Either all of them are written
// or none are.
//
// ev.Seq must be exactly one past the stored seq of the circle (1 for a new
// circle). Re-committing an already stored event is a no-op.
func (s *Store) Commit(ctx context.Context, snap circle.Snapshot, ev model.Event, activity []trust.ActivityRecord) error {
	snapJSON, err := marshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit: begin: %w", err)
	}
	defer tx.Rollback()

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ?`, ev.ID).Scan(&stored)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("commit: check event: %w", err)
	}

	var seq int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM circles WHERE id = ?`, ev.CircleID).Scan(&seq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("commit: read seq: %w", err)
	}
	if ev.Seq != seq+1 {
		return fmt.Errorf("commit %s seq %d after %d: %w", ev.CircleID, ev.Seq, seq, ErrSeqConflict)
	}

	st := snap.State
	_, err = tx.ExecContext(ctx, `
		INSERT INTO circles (id, type, name, status, seq, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			seq = excluded.seq,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`,
		st.ID,
		string(st.Type),
		st.Name,
		string(st.Status),
		ev.Seq,
		snapJSON,
		formatTime(st.CreatedAt),
		formatTime(ev.At),
	)
	if err != nil {
		return fmt.Errorf("commit: write circle: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, circle_id, seq, kind, payload, at, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		ev.ID,
		ev.CircleID,
		ev.Seq,
		ev.Kind,
		string(ev.Payload),
		formatTime(ev.At),
		ev.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("commit: write event: %w", err)
	}

	for _, rec := range activity {
		recJSON, err := marshalRecord(rec)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO activity_records (id, member_id, circle_id, record, completed_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, rec.ID, rec.MemberID, rec.CircleID, recJSON, formatTime(rec.CompletedAt))
		if err != nil {
			return fmt.Errorf("commit: write activity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SaveProfile inserts or replaces a member's trust profile.
func (s *Store) SaveProfile(ctx context.Context, p trust.Profile) error {
	data, err := marshalProfile(p)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trust_profiles (member_id, tier, profile, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET
			tier = excluded.tier,
			profile = excluded.profile,
			updated_at = excluded.updated_at
	`, p.MemberID, string(p.Tier), data, formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

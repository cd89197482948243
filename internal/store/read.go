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

// CircleSummary is one row of the circle listing.
type CircleSummary struct {
	ID        string
	Name      string
	Type      model.CircleType
	Status    model.Status
	Seq       int64
	UpdatedAt string
}

// LoadCircle returns the latest snapshot of a circle and the seq of the
// event that produced it. Returns ErrNotFound if the circle does not exist.
func (s *Store) LoadCircle(ctx context.Context, id string) (circle.Snapshot, int64, error) {
	var (
		data string
		seq  int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT snapshot, seq FROM circles WHERE id = ?`, id).Scan(&data, &seq)
	if errors.Is(err, sql.ErrNoRows) {
		return circle.Snapshot{}, 0, fmt.Errorf("circle %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return circle.Snapshot{}, 0, fmt.Errorf("load circle %s: %w", id, err)
	}
	snap, err := unmarshalSnapshot(data)
	if err != nil {
		return circle.Snapshot{}, 0, fmt.Errorf("load circle %s: %w", id, err)
	}
	return snap, seq, nil
}

// ListCircles returns every stored circle ordered by ID.
func (s *Store) ListCircles(ctx context.Context) ([]CircleSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, status, seq, updated_at
		FROM circles
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	defer rows.Close()

	out := []CircleSummary{}
	for rows.Next() {
		var (
			cs          CircleSummary
			typ, status string
		)
		if err := rows.Scan(&cs.ID, &cs.Name, &typ, &status, &cs.Seq, &cs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan circle: %w", err)
		}
		cs.Type = model.CircleType(typ)
		cs.Status = model.Status(status)
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate circles: %w", err)
	}
	return out, nil
}

// ReadActivity returns a member's activity records ordered by completion
// time, then ID.
func (s *Store) ReadActivity(ctx context.Context, memberID string) ([]trust.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record
		FROM activity_records
		WHERE member_id = ?
		ORDER BY completed_at ASC, id COLLATE BINARY ASC
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("read activity: %w", err)
	}
	defer rows.Close()

	out := []trust.ActivityRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		rec, err := unmarshalRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}

// LoadProfile returns a member's stored trust profile, or (nil, nil) if the
// member has none yet.
func (s *Store) LoadProfile(ctx context.Context, memberID string) (*trust.Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT profile FROM trust_profiles WHERE member_id = ?`, memberID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", memberID, err)
	}
	return unmarshalProfile(data)
}

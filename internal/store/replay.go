package store

import (
	"context"
	"fmt"

	"github.com/roach88/kitty/internal/model"
)

// ReadEvents returns a circle's event log in seq order.
// Returns an empty slice (not nil) if the circle has no events.
func (s *Store) ReadEvents(ctx context.Context, circleID string) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, circle_id, seq, kind, payload, at, engine_version
		FROM events
		WHERE circle_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, circleID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var (
			ev      model.Event
			payload string
			at      string
		)
		if err := rows.Scan(&ev.ID, &ev.CircleID, &ev.Seq, &ev.Kind, &payload, &at, &ev.EngineVersion); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Payload = []byte(payload)
		if ev.At, err = parseTime(at); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LastSeq returns the seq of a circle's newest event, 0 if it has none.
func (s *Store) LastSeq(ctx context.Context, circleID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events WHERE circle_id = ?
	`, circleID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

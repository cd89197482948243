package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/trust"
)

// Timestamps are stored as RFC 3339 text in UTC.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func marshalSnapshot(snap circle.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

func unmarshalSnapshot(data string) (circle.Snapshot, error) {
	var snap circle.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return circle.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func marshalRecord(rec trust.ActivityRecord) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal activity record: %w", err)
	}
	return string(data), nil
}

func unmarshalRecord(data string) (trust.ActivityRecord, error) {
	var rec trust.ActivityRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return trust.ActivityRecord{}, fmt.Errorf("unmarshal activity record: %w", err)
	}
	return rec, nil
}

func marshalProfile(p trust.Profile) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	return string(data), nil
}

func unmarshalProfile(data string) (*trust.Profile, error) {
	var p trust.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

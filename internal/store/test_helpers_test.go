package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/model"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new on-disk store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCircle builds an active two-member rosca.
func createTestCircle(t *testing.T, id string) *circle.Circle {
	t.Helper()
	c, err := circle.New(circle.Config{
		ID:                 id,
		Name:               "Test " + id,
		Type:               model.CircleROSCA,
		Members:            []circle.MemberSpec{{ID: "alice"}, {ID: "bob"}},
		ContributionAmount: 2500,
		Frequency:          model.Weekly,
		TotalCycles:        2,
	}, testTime)
	require.NoError(t, err)
	require.NoError(t, c.Start(testTime))
	return c
}

// createTestEvent builds an event with a content-addressed ID.
func createTestEvent(t *testing.T, circleID string, seq int64, kind string) model.Event {
	t.Helper()
	payload := map[string]any{"seq": seq}
	id, err := model.EventID(circleID, seq, kind, payload)
	require.NoError(t, err)
	data, err := model.MarshalCanonical(payload)
	require.NoError(t, err)
	return model.Event{
		ID:            id,
		CircleID:      circleID,
		Seq:           seq,
		Kind:          kind,
		Payload:       data,
		At:            testTime.Add(time.Duration(seq) * time.Minute),
		EngineVersion: model.EngineVersion,
	}
}

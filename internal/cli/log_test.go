package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_Timeline(t *testing.T) {
	db := newCircleDB(t, rentClub)
	must(t, db, "contribute", "rent-club", "ana", "100")
	rejected(t, db, "DUPLICATE_CONTRIBUTION", "contribute", "rent-club", "ana", "100")

	result := dataMap(t, must(t, db, "log", "rent-club"))
	assert.Equal(t, "rent-club", result["circle_id"])

	timeline := result["timeline"].([]any)
	require.Len(t, timeline, 3, "rejected operations are not logged")

	var kinds []string
	for i, raw := range timeline {
		ev := raw.(map[string]any)
		assert.Equal(t, float64(i+1), ev["seq"])
		assert.Len(t, ev["id"], 64)
		kinds = append(kinds, ev["kind"].(string))
	}
	assert.Equal(t, []string{"circle.created", "circle.started", "contribution.recorded"}, kinds)

	payload := timeline[2].(map[string]any)["payload"].(map[string]any)
	assert.Equal(t, "ana", payload["member_id"])

	assert.Equal(t, map[string]any{
		"circle.created":        float64(1),
		"circle.started":        float64(1),
		"contribution.recorded": float64(1),
	}, result["counts"])
}

func TestLog_KindFilter(t *testing.T) {
	db := newCircleDB(t, rentClub)
	must(t, db, "contribute", "rent-club", "ana", "100")
	must(t, db, "contribute", "rent-club", "ben", "100")

	result := dataMap(t, must(t, db, "log", "rent-club", "--kind", "contribution.recorded"))
	assert.Len(t, result["timeline"], 2)
	assert.Equal(t, float64(1), result["counts"].(map[string]any)["circle.created"])
}

func TestLog_UnknownCircle(t *testing.T) {
	rejected(t, filepath.Join(t.TempDir(), "kitty.db"), "CIRCLE_NOT_FOUND", "log", "nowhere")
}

func TestLog_Text(t *testing.T) {
	db := newCircleDB(t, rentClub)
	out, err := kitty(t, db, "log", "rent-club")
	require.NoError(t, err)
	assert.Contains(t, out, "Circle: rent-club (2 event(s) shown)")
	assert.Contains(t, out, "] circle.started\n")
}

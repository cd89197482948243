package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/kitty/internal/store"
)

// OpenStore opens a fresh SQLite store in t's temp directory and closes it
// when the test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "kitty.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

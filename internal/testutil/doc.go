// Package testutil provides deterministic fixtures for tests: a fake wall
// clock and a throwaway SQLite store.
package testutil

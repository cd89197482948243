package model

// Version constants for persisted records.
const (
	// SnapshotVersion is the circle snapshot schema version.
	SnapshotVersion = "1"

	// EngineVersion is the kitty engine version.
	EngineVersion = "0.1.0"
)

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrCircleNotFound is returned for operations on an unknown circle ID.
	ErrCircleNotFound = errors.New("circle not found")

	// ErrCircleExists is returned when creating a circle whose ID is taken.
	ErrCircleExists = errors.New("circle already exists")
)

// ReplayError reports an event that could not be re-applied, or a rebuilt
// circle that differs from the stored one.
type ReplayError struct {
	// CircleID identifies the replayed circle.
	CircleID string

	// Seq is the failing event, 0 when the final snapshots differ.
	Seq int64

	// Kind is the failing event kind.
	Kind string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ReplayError) Error() string {
	if e.Seq == 0 {
		return fmt.Sprintf("replay %s: %v", e.CircleID, e.Err)
	}
	return fmt.Sprintf("replay %s: event %d (%s): %v", e.CircleID, e.Seq, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ReplayError) Unwrap() error {
	return e.Err
}

// IsReplayError reports whether err is a *ReplayError.
// Uses errors.As to handle wrapped errors.
func IsReplayError(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}

// errDiverged marks a rebuilt snapshot that differs from the stored one.
var errDiverged = errors.New("rebuilt snapshot differs from stored snapshot")

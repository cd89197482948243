package engine

import "sync/atomic"

// Clock is a monotonic logical clock for one circle's event log.
//
// Every accepted operation is stamped with the next seq from its circle's
// clock. Ordering never depends on wall-clock time, so replay reproduces
// the same seq numbers.
//
// Thread-safety: Clock is safe for concurrent use, though the engine only
// touches a circle's clock while holding that circle's lock.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Peek returns the seq Next would return, without advancing.
func (c *Clock) Peek() int64 {
	return c.seq.Load() + 1
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

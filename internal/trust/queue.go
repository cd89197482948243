package trust

import "sync"

// recordQueue is a thread-safe FIFO of activity records awaiting application.
//
// Unbounded so circle operations never block on trust processing. A buffered
// signal channel of size 1 coalesces wakeups for context-aware waiting.
type recordQueue struct {
	mu      sync.Mutex
	records []ActivityRecord
	closed  bool
	signal  chan struct{}
}

func newRecordQueue() *recordQueue {
	return &recordQueue{
		records: make([]ActivityRecord, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue appends records. Returns false if the queue is closed.
func (q *recordQueue) Enqueue(recs ...ActivityRecord) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.records = append(q.records, recs...)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front record without blocking.
func (q *recordQueue) TryDequeue() (ActivityRecord, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) == 0 {
		return ActivityRecord{}, false
	}
	rec := q.records[0]
	q.records[0] = ActivityRecord{}
	if len(q.records) == 1 {
		q.records = q.records[:0]
	} else {
		q.records = q.records[1:]
	}
	return rec, true
}

// Wait returns a channel that fires when records may be available.
// The channel is closed once the queue is closed.
func (q *recordQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued records.
func (q *recordQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Close stops accepting records and wakes waiters.
func (q *recordQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Closed reports whether Close was called.
func (q *recordQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

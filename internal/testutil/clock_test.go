package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClock_StepsOnEachRead(t *testing.T) {
	c := NewFakeClock(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Minute), c.Now())
	assert.Equal(t, start.Add(2*time.Minute), c.Peek())
}

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	c := NewFakeClock(start)
	c.SetStep(0)
	c.Advance(48 * time.Hour)
	assert.Equal(t, start.Add(48*time.Hour), c.Now())
	assert.Equal(t, start.Add(48*time.Hour), c.Now(), "zero step freezes the clock")

	c.Set(start)
	assert.Equal(t, start, c.Peek())
}

func TestFakeClock_ConcurrentReadsAreDistinct(t *testing.T) {
	c := NewFakeClock(start)
	const n = 100

	var (
		mu   sync.Mutex
		seen = make(map[time.Time]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := c.Now()
			mu.Lock()
			seen[t] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestOpenStore(t *testing.T) {
	s := OpenStore(t)
	assert.NotNil(t, s)
}

package utils

import (
	"sync"
	"time"

	"github.com/paihq/pai/pkg/recurrence"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock is a Clock for tests that only moves when told to.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Today is the calendar date of clock's current instant as seen in loc. A nil loc means UTC.
func Today(clock Clock, loc *time.Location) recurrence.Date {
	if loc == nil {
		loc = time.UTC
	}
	return recurrence.DateOf(clock.Now().In(loc))
}

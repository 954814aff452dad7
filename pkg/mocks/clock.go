package mocks

import (
	"sync"
	"time"
)

// Clock is a fake clock. Sleep advances Now without blocking.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	Slept  time.Duration
	Sleeps []time.Duration

	// OnNow, if set, is added to the clock on every Now call, simulating
	// work that takes time.
	OnNow time.Duration
}

// NewClock creates a fake clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.OnNow)
	return t
}

func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		return
	}
	c.now = c.now.Add(d)
	c.Slept += d
	c.Sleeps = append(c.Sleeps, d)
}

// Advance moves the clock forward without counting it as sleep.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

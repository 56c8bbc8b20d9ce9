package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source. Registries, sources and token
// issuers take its NowFunc so a test decides when sessions expire and which
// day a recruitment window covers.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// NowFunc returns Now for injection; a nil clock falls back to wall time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// AdvanceDays moves the clock by whole calendar days, keeping the time of day.
func (c *Clock) AdvanceDays(days int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
	return c.now
}

// Day is midnight UTC of the current date shifted by offset days.
func (c *Clock) Day(offset int) time.Time {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, time.UTC)
}

// Window returns a recruitment window from Day(from) to Day(to).
func (c *Clock) Window(from, to int) (start, end time.Time) {
	return c.Day(from), c.Day(to)
}

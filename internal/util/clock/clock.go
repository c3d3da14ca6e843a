package clock

import (
	"sync"
	"time"
)

// Clock is a source of the current time.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

// Now implements Clock.
func (f Func) Now() time.Time {
	return f()
}

// System returns a Clock reading the wall clock in UTC.
func System() Clock {
	return Func(func() time.Time {
		return time.Now().UTC()
	})
}

// Manual is a Clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	now time.Time
	m   sync.Mutex
}

var _ Clock = (*Manual)(nil)

// NewManual creates a Manual clock set to now.
func NewManual(now time.Time) *Manual {
	return &Manual{now: now.UTC()}
}

// Now implements Clock.
func (c *Manual) Now() time.Time {
	c.m.Lock()
	defer c.m.Unlock()

	return c.now
}

// Advance moves the clock forward by d.
func (c *Manual) Advance(d time.Duration) {
	c.m.Lock()
	defer c.m.Unlock()

	c.now = c.now.Add(d)
}

// Set moves the clock to now.
func (c *Manual) Set(now time.Time) {
	c.m.Lock()
	defer c.m.Unlock()

	c.now = now.UTC()
}

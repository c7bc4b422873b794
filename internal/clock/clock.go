// Package clock abstracts the wall clock so timestamp-dependent code can be
// driven deterministically in tests. Production code injects Real(); tests
// inject Fake().
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Fake returns a FakeClock initialized to the given time. Time stands still
// until Advance or Set is called.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for testing.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// Now returns the current fake time. When a step is configured the clock
// advances by that step after each read.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Advance moves the clock forward by d. A negative d moves it backwards,
// which is how tests simulate wall-clock skew.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set jumps the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// AutoAdvance makes every Now call move the clock forward by step.
func (c *FakeClock) AutoAdvance(step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = step
}

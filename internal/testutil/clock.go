// Package testutil holds shared test fakes: a settable clock, an
// in-memory KV store, and a scriptable HTTP transport.
package testutil

import (
	"sync"
	"time"
)

// Clock is a thread-safe settable time source for tests.
//
// Inject Clock.Now wherever production code takes a func() time.Time so
// the same scenario runs with identical timestamps every time.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a clock pinned to the given instant.
func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Set pins the clock to a specific instant.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

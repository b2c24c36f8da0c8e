package clock

import (
	"context"
	"sync"
	"time"
)

// VirtualClock is a controllable clock for deterministic pacing tests.
// Time only moves through Advance, Set, or Sleep, so a full replay of
// hours of recorded data runs instantly while the driver still observes
// the wall-clock progression it would see in production.
//
// Thread-safe for concurrent use.
type VirtualClock struct {
	mu      sync.RWMutex
	current time.Time
	slept   []time.Duration
}

// NewVirtualClock creates a VirtualClock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{
		current: start,
	}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Since returns the virtual duration elapsed since t.
func (c *VirtualClock) Since(t time.Time) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Sub(t)
}

// Sleep advances the virtual clock by d and returns immediately.
// The requested duration is remembered and reported by Sleeps.
func (c *VirtualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.slept = append(c.slept, d)
	c.current = c.current.Add(d)
	return nil
}

// Sleeps returns every duration passed to Sleep, in call order.
func (c *VirtualClock) Sleeps() []time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]time.Duration, len(c.slept))
	copy(out, c.slept)
	return out
}

// Advance moves the virtual clock forward by the given duration.
// Panics if d is negative.
func (c *VirtualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
}

// Set sets the virtual clock to an exact time.
// Panics if t is before the current time.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.current) {
		panic("clock: cannot set time to the past")
	}

	c.current = t
}

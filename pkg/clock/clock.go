package clock

import (
	"time"

	internalclock "github.com/SmitUplenchwar2687/Pacer/internal/clock"
)

// Clock abstracts time so a replay can run against real or virtual time.
type Clock = internalclock.Clock

// RealClock delegates to the standard time package.
type RealClock = internalclock.RealClock

// VirtualClock is a controllable clock whose Sleep advances time instantly.
type VirtualClock = internalclock.VirtualClock

// NewRealClock creates a real wall-clock implementation.
func NewRealClock() *RealClock {
	return internalclock.NewRealClock()
}

// NewVirtualClock creates a virtual clock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return internalclock.NewVirtualClock(start)
}

// Package pacing maps recorded observation times onto the wall clock.
//
// A SimulationClock is fixed for the lifetime of a run: the wall-clock instant
// the program started, the observation time of the first record, and the speed
// factor. Every sleep decision is a pure function of those three values, the
// current wall time and the observation time of the record being considered.
package pacing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSpeedFactor is returned for a speed factor that is zero, negative or NaN.
var ErrInvalidSpeedFactor = errors.New("speed factor must be positive")

const secondsPerDay = 24 * 60 * 60

// SimulationClock computes how far the replay is ahead of the wall clock.
type SimulationClock struct {
	programStart time.Time
	firstObs     time.Time
	speed        float64

	// truncate reproduces whole-second, day-wrapping elapsed times.
	truncate bool
}

// Option configures a SimulationClock.
type Option func(*SimulationClock)

// WithSecondTruncation makes elapsed times whole seconds within a single day.
// Full-precision arithmetic is the default.
func WithSecondTruncation() Option {
	return func(c *SimulationClock) {
		c.truncate = true
	}
}

// ValidateSpeedFactor reports whether speed can drive a replay.
// Positive infinity is allowed and disables sleeping entirely.
func ValidateSpeedFactor(speed float64) error {
	if math.IsNaN(speed) || speed <= 0 {
		return fmt.Errorf("%w, got %v", ErrInvalidSpeedFactor, speed)
	}
	return nil
}

// New creates a SimulationClock anchored at programStart and firstObs.
func New(programStart, firstObs time.Time, speed float64, opts ...Option) (*SimulationClock, error) {
	if err := ValidateSpeedFactor(speed); err != nil {
		return nil, err
	}
	c := &SimulationClock{
		programStart: programStart,
		firstObs:     firstObs,
		speed:        speed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ProgramStart returns the wall-clock anchor.
func (c *SimulationClock) ProgramStart() time.Time { return c.programStart }

// FirstObservation returns the observation-time anchor.
func (c *SimulationClock) FirstObservation() time.Time { return c.firstObs }

// SpeedFactor returns simulated seconds per wall second.
func (c *SimulationClock) SpeedFactor() float64 { return c.speed }

// WallElapsed returns the wall time elapsed since the program started.
func (c *SimulationClock) WallElapsed(now time.Time) time.Duration {
	d := now.Sub(c.programStart)
	if c.truncate {
		return wrapSeconds(d)
	}
	return d
}

// SimElapsed returns the observation time elapsed since the first record,
// scaled down by the speed factor. Results beyond the Duration range
// saturate.
func (c *SimulationClock) SimElapsed(obs time.Time) time.Duration {
	d := obs.Sub(c.firstObs)
	if c.truncate {
		d = wrapSeconds(d)
	}
	if math.IsInf(c.speed, 1) {
		return 0
	}
	return saturate(float64(d) / c.speed)
}

// saturate converts ns to a Duration, clamping values outside its range.
func saturate(ns float64) time.Duration {
	switch {
	case ns >= math.MaxInt64:
		return math.MaxInt64
	case ns <= math.MinInt64:
		return math.MinInt64
	}
	return time.Duration(ns)
}

// RequiredSleep returns how long the replay must wait before emitting a
// record observed at obs. Zero or negative means the replay is behind and
// should not sleep.
func (c *SimulationClock) RequiredSleep(obs, now time.Time) time.Duration {
	return c.SimElapsed(obs) - c.WallElapsed(now)
}

// wrapSeconds floors d to whole seconds and keeps only the seconds within a
// day, in [0, 86400).
func wrapSeconds(d time.Duration) time.Duration {
	s := int64(math.Floor(d.Seconds()))
	s = ((s % secondsPerDay) + secondsPerDay) % secondsPerDay
	return time.Duration(s) * time.Second
}

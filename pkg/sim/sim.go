// Package sim replays a timestamped sensor log into a sink at a simulated speed.
package sim

import (
	"io"

	"github.com/SmitUplenchwar2687/Pacer/internal/sim"
	"github.com/SmitUplenchwar2687/Pacer/internal/source"
)

// Driver runs one replay.
type Driver = sim.Driver

// Options configures a Driver.
type Options = sim.Options

// Summary describes a finished run.
type Summary = sim.Summary

// State is the driver's lifecycle state.
type State = sim.State

// RecordError reports the record that stopped a run.
type RecordError = sim.RecordError

// Source yields raw records in timestamp order.
type Source = source.Source

// ErrInvalidConfig is returned by New for unusable options.
var ErrInvalidConfig = sim.ErrInvalidConfig

// DefaultThreshold is the default flush threshold.
const DefaultThreshold = sim.DefaultThreshold

// New creates a Driver reading from src and publishing to snk.
func New(src Source, snk Sink, opts Options) (*Driver, error) {
	return sim.New(src, snk, opts)
}

// NewSource reads a headered CSV log from r.
func NewSource(r io.Reader) Source {
	return source.NewReader(r)
}

// OpenSource opens a CSV log, decompressing files ending in .gz.
func OpenSource(path string) (Source, io.Closer, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return src, src, nil
}

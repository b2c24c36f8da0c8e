// Package sim replays a recorded sensor log into a sink at a simulated rate.
//
// The Driver reproduces the inter-record timing of the recording, scaled by
// a speed factor. Records that arrive faster than the replay needs to pause
// are accumulated and published together; once the replay is more than the
// flush threshold ahead of the wall clock, the accumulated batch is published
// and the driver sleeps until the wall clock catches up.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/Pacer/internal/batch"
	"github.com/SmitUplenchwar2687/Pacer/internal/clock"
	"github.com/SmitUplenchwar2687/Pacer/internal/pacing"
	"github.com/SmitUplenchwar2687/Pacer/internal/record"
	"github.com/SmitUplenchwar2687/Pacer/internal/sink"
	"github.com/SmitUplenchwar2687/Pacer/internal/source"
)

// DefaultThreshold is how far ahead of the wall clock the replay may get
// before the accumulated batch is flushed.
const DefaultThreshold = time.Second

// Options configures a Driver.
type Options struct {
	// SpeedFactor is simulated seconds per wall second. Required, > 0.
	SpeedFactor float64
	// Threshold defaults to DefaultThreshold.
	Threshold time.Duration
	// PublishTimeout bounds each flush. Zero means no deadline.
	PublishTimeout time.Duration
	// SkipEmptyFlush avoids calling the sink with an empty batch.
	SkipEmptyFlush bool
	// TruncateSeconds computes elapsed times in whole seconds within a day.
	TruncateSeconds bool

	Clock  clock.Clock
	Logger logrus.FieldLogger
	// Convert turns a raw line into its published form. Defaults to record.Convert.
	Convert func(line []byte) (record.Encoded, error)
}

// Summary describes a finished (or interrupted) run.
type Summary struct {
	Records          int           `json:"records"`
	Batches          int           `json:"batches"`
	Sleeps           int           `json:"sleeps"`
	Slept            time.Duration `json:"slept"`
	FirstObservation time.Time     `json:"first_observation"`
	LastObservation  time.Time     `json:"last_observation"`
	WallDuration     time.Duration `json:"wall_duration"`
}

// Driver runs one replay. It is single-use and not safe for concurrent Run calls.
type Driver struct {
	src  source.Source
	sink sink.Sink
	opts Options
	clk  clock.Clock
	log  logrus.FieldLogger
	acc  *batch.Accumulator

	state     atomic.Int32
	published atomic.Int64
}

// New validates opts and creates a Driver. An invalid speed factor is
// rejected here, before the source is touched.
func New(src source.Source, snk sink.Sink, opts Options) (*Driver, error) {
	if err := pacing.ValidateSpeedFactor(opts.SpeedFactor); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if opts.Threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must not be negative, got %s", ErrInvalidConfig, opts.Threshold)
	}
	if opts.PublishTimeout < 0 {
		return nil, fmt.Errorf("%w: publish timeout must not be negative, got %s", ErrInvalidConfig, opts.PublishTimeout)
	}
	if src == nil || snk == nil {
		return nil, fmt.Errorf("%w: source and sink are required", ErrInvalidConfig)
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Convert == nil {
		opts.Convert = record.Convert
	}

	return &Driver{
		src:  src,
		sink: snk,
		opts: opts,
		clk:  opts.Clock,
		log:  opts.Logger,
		acc:  batch.New(),
	}, nil
}

// State returns the driver's current state. Safe to call from other goroutines.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Published returns the number of records delivered so far. Safe to call
// from other goroutines.
func (d *Driver) Published() int64 {
	return d.published.Load()
}

// Pending returns the number of accumulated records not yet published.
// Only meaningful once Run has returned.
func (d *Driver) Pending() int {
	return d.acc.Len()
}

// Run replays the source until it is exhausted, a record fails, or ctx is
// done. On exhaustion the remaining records are flushed once. On
// cancellation the accumulated records are not published and ctx.Err()
// is returned along with the partial summary.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	programStart := d.clk.Now()
	summary := &Summary{}
	defer func() {
		summary.WallDuration = d.clk.Since(programStart)
	}()

	first, err := d.src.PeekTimestamp()
	if errors.Is(err, io.EOF) {
		d.log.Info("source is empty")
		return summary, d.finish(ctx, summary, 0)
	}
	if err != nil {
		return summary, &RecordError{Op: "parse", Position: 1, Err: err}
	}

	var popts []pacing.Option
	if d.opts.TruncateSeconds {
		popts = append(popts, pacing.WithSecondTruncation())
	}
	sc, err := pacing.New(programStart, first, d.opts.SpeedFactor, popts...)
	if err != nil {
		return summary, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	summary.FirstObservation = first
	d.log.WithFields(logrus.Fields{
		"first_observation": first.Format(record.TimestampLayout),
		"speed_factor":      d.opts.SpeedFactor,
	}).Info("sending sensor data")

	pos := 0
	for {
		d.setState(StateRunning)
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		line, err := d.src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		pos++
		if err != nil {
			return summary, &RecordError{Op: "read", Position: pos, Err: err}
		}

		obs, err := record.ParseTimestamp(line)
		if err != nil {
			return summary, &RecordError{Op: "parse", Position: pos, Err: err}
		}

		if sc.RequiredSleep(obs, d.clk.Now()) > d.opts.Threshold {
			if err := d.flush(ctx, summary, pos); err != nil {
				return summary, err
			}
			// Publishing takes wall time, so the sleep is recomputed.
			if wait := sc.RequiredSleep(obs, d.clk.Now()); wait > 0 {
				if err := d.sleep(ctx, summary, wait); err != nil {
					return summary, err
				}
			}
		}

		enc, err := d.opts.Convert(line)
		if err != nil {
			return summary, &RecordError{Op: "convert", Position: pos, Timestamp: obs.Format(record.TimestampLayout), Err: err}
		}
		d.acc.Append(enc)
		summary.Records++
		summary.LastObservation = obs
	}

	return summary, d.finish(ctx, summary, pos)
}

func (d *Driver) finish(ctx context.Context, summary *Summary, pos int) error {
	if err := d.flush(ctx, summary, pos); err != nil {
		return err
	}
	d.setState(StateDone)
	d.log.WithFields(logrus.Fields{
		"records": summary.Records,
		"batches": summary.Batches,
		"slept":   summary.Slept,
	}).Info("replay complete")
	return nil
}

// flush publishes everything accumulated so far. pos is the record that
// triggered the flush and is only used for error reporting.
func (d *Driver) flush(ctx context.Context, summary *Summary, pos int) error {
	d.setState(StateFlushing)
	events := d.acc.Items()
	if len(events) == 0 && d.opts.SkipEmptyFlush {
		return nil
	}

	if len(events) > 0 {
		d.log.WithFields(logrus.Fields{
			"events": len(events),
			"from":   events[0].Timestamp,
		}).Info("publishing events")
	}

	pctx := ctx
	if d.opts.PublishTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, d.opts.PublishTimeout)
		defer cancel()
	}

	if err := d.sink.Publish(pctx, events); err != nil {
		rerr := &RecordError{Op: "publish", Position: pos, Err: err}
		if len(events) > 0 {
			rerr.Timestamp = events[0].Timestamp
		}
		return rerr
	}
	d.acc.Reset()
	summary.Batches++
	d.published.Add(int64(len(events)))
	return nil
}

func (d *Driver) sleep(ctx context.Context, summary *Summary, wait time.Duration) error {
	d.setState(StateSleeping)
	d.log.WithField("duration", wait).Info("sleeping")
	if err := d.clk.Sleep(ctx, wait); err != nil {
		return err
	}
	summary.Sleeps++
	summary.Slept += wait
	return nil
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
}

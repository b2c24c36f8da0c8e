package sink

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/Pacer/internal/clock"
	"github.com/SmitUplenchwar2687/Pacer/internal/record"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 500 * time.Millisecond
)

// RetrySink retries failed publishes with exponential backoff.
// A retried batch is published again in full, so transports without
// idempotent writes may deliver duplicates.
type RetrySink struct {
	next     Sink
	attempts int
	backoff  time.Duration
	log      logrus.FieldLogger
	clk      clock.Clock
}

// WithRetry wraps next. Non-positive attempts or backoff fall back to defaults.
func WithRetry(next Sink, attempts int, backoff time.Duration, log logrus.FieldLogger) *RetrySink {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RetrySink{next: next, attempts: attempts, backoff: backoff, log: log, clk: clock.NewRealClock()}
}

// WithClock makes the sink wait between attempts on clk.
func (r *RetrySink) WithClock(clk clock.Clock) *RetrySink {
	if clk != nil {
		r.clk = clk
	}
	return r
}

// Publish implements Sink.
func (r *RetrySink) Publish(ctx context.Context, batch []record.Encoded) error {
	backoff := r.backoff
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = r.next.Publish(ctx, batch); err == nil {
			return nil
		}
		if attempt == r.attempts {
			break
		}

		r.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"backoff": backoff,
		}).WithError(err).Warn("publish failed, retrying")

		if err := r.clk.Sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}
	return err
}

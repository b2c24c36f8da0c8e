package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/SmitUplenchwar2687/Pacer/internal/record"
)

// WriterSink writes each record as one line of JSON. It is the dry-run
// transport used when no broker is configured.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing newline-delimited JSON to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Publish implements Sink.
func (s *WriterSink) Publish(ctx context.Context, batch []record.Encoded) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bw := bufio.NewWriter(s.w)
	for _, rec := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := bw.Write(rec.Payload); err != nil {
			return fmt.Errorf("writing record %s: %w", rec.Timestamp, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing record %s: %w", rec.Timestamp, err)
		}
	}
	return bw.Flush()
}

// Lookup implements TopicAdmin. Writers have a single implicit topic.
func (s *WriterSink) Lookup(_ context.Context, name string) (Topic, error) {
	return Topic{Name: name, Transport: "stdout"}, nil
}

// Create implements TopicAdmin.
func (s *WriterSink) Create(ctx context.Context, name string) (Topic, error) {
	return s.Lookup(ctx, name)
}

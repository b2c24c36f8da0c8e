package sink

import (
	"context"
	"sync"

	"github.com/SmitUplenchwar2687/Pacer/internal/record"
)

// MemorySink keeps every published batch in memory.
// Thread-safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	batches [][]record.Encoded
	topics  map[string]bool

	// OnPublish, if set, runs before a batch is stored. A non-nil error
	// fails the publish and the batch is not stored.
	OnPublish func(ctx context.Context, batch []record.Encoded) error
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{topics: make(map[string]bool)}
}

// Publish implements Sink.
func (m *MemorySink) Publish(ctx context.Context, batch []record.Encoded) error {
	if m.OnPublish != nil {
		if err := m.OnPublish(ctx, batch); err != nil {
			return err
		}
	}

	cp := make([]record.Encoded, len(batch))
	copy(cp, batch)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, cp)
	return nil
}

// Batches returns a copy of all published batches in publish order.
func (m *MemorySink) Batches() [][]record.Encoded {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]record.Encoded, len(m.batches))
	copy(out, m.batches)
	return out
}

// Records returns every published record, concatenated in publish order.
func (m *MemorySink) Records() []record.Encoded {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []record.Encoded
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

// Lookup implements TopicAdmin.
func (m *MemorySink) Lookup(_ context.Context, name string) (Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.topics[name] {
		return Topic{}, ErrTopicNotFound
	}
	return Topic{Name: name, Transport: "memory"}, nil
}

// Create implements TopicAdmin.
func (m *MemorySink) Create(_ context.Context, name string) (Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics[name] = true
	return Topic{Name: name, Transport: "memory"}, nil
}

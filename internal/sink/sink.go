// Package sink delivers batches of encoded records to a publish-subscribe channel.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/Pacer/internal/record"
)

// ErrTopicNotFound is returned by TopicAdmin.Lookup when the topic does not exist.
var ErrTopicNotFound = errors.New("topic not found")

// Sink publishes batches. Records within a batch must be delivered in order.
type Sink interface {
	Publish(ctx context.Context, batch []record.Encoded) error
}

// TopicAdmin looks up and creates destination topics.
type TopicAdmin interface {
	Lookup(ctx context.Context, name string) (Topic, error)
	Create(ctx context.Context, name string) (Topic, error)
}

// Topic identifies a destination channel on a transport.
type Topic struct {
	Name      string `json:"name"`
	Transport string `json:"transport"`
}

// Ensure returns the named topic, creating it if Lookup reports
// ErrTopicNotFound. Any other lookup error is returned as is.
func Ensure(ctx context.Context, admin TopicAdmin, name string, log logrus.FieldLogger) (Topic, bool, error) {
	topic, err := admin.Lookup(ctx, name)
	switch {
	case err == nil:
		log.WithField("topic", name).Info("reusing topic")
		return topic, false, nil
	case errors.Is(err, ErrTopicNotFound):
		topic, err = admin.Create(ctx, name)
		if err != nil {
			return Topic{}, false, fmt.Errorf("creating topic %s: %w", name, err)
		}
		log.WithField("topic", name).Info("created topic")
		return topic, true, nil
	default:
		return Topic{}, false, fmt.Errorf("looking up topic %s: %w", name, err)
	}
}

// Multi publishes every batch to each sink in order and stops at the first failure.
type Multi []Sink

// Publish implements Sink.
func (m Multi) Publish(ctx context.Context, batch []record.Encoded) error {
	for i, s := range m {
		if err := s.Publish(ctx, batch); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

// Package sink exposes the publish-subscribe transports a replay can write to.
package sink

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/Pacer/internal/sink"
)

// Sink publishes batches of encoded records in order.
type Sink = sink.Sink

// TopicAdmin looks up and creates topics.
type TopicAdmin = sink.TopicAdmin

// Topic identifies a destination channel.
type Topic = sink.Topic

// Multi fans each batch out to several sinks.
type Multi = sink.Multi

// MemorySink keeps published batches in memory.
type MemorySink = sink.MemorySink

// RedisSink publishes over Redis pub/sub.
type RedisSink = sink.RedisSink

// RedisConfig configures a RedisSink.
type RedisConfig = sink.RedisConfig

// KafkaSink publishes to a Kafka topic.
type KafkaSink = sink.KafkaSink

// KafkaConfig configures a KafkaSink.
type KafkaConfig = sink.KafkaConfig

// ErrTopicNotFound is returned by TopicAdmin.Lookup for unknown topics.
var ErrTopicNotFound = sink.ErrTopicNotFound

// Ensure returns the named topic, creating it if it does not exist.
func Ensure(ctx context.Context, admin TopicAdmin, name string, log logrus.FieldLogger) (Topic, bool, error) {
	return sink.Ensure(ctx, admin, name, log)
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return sink.NewMemorySink()
}

// NewWriterSink writes newline-delimited JSON to w.
func NewWriterSink(w io.Writer) Sink {
	return sink.NewWriterSink(w)
}

// NewRedisSink connects to Redis and publishes on channel.
func NewRedisSink(ctx context.Context, cfg *RedisConfig, channel string, log logrus.FieldLogger) (*RedisSink, error) {
	return sink.NewRedisSink(ctx, cfg, channel, log)
}

// NewKafkaSink creates a Kafka writer for topic.
func NewKafkaSink(cfg KafkaConfig, topic, runID string, log logrus.FieldLogger) (*KafkaSink, error) {
	return sink.NewKafkaSink(cfg, topic, runID, log)
}

// WithRetry retries failed publishes with exponential backoff.
func WithRetry(next Sink, attempts int, backoff time.Duration, log logrus.FieldLogger) Sink {
	return sink.WithRetry(next, attempts, backoff, log)
}

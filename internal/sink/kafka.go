package sink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/Pacer/internal/record"
)

const runIDHeader = "pacer-run-id"

// KafkaConfig configures the Kafka transport.
type KafkaConfig struct {
	Brokers           []string
	Partitions        int
	ReplicationFactor int
	MaxAttempts       int
	WriteTimeout      time.Duration
}

// KafkaSink writes one Kafka message per record. Every message of a run
// carries the run id as its key, so a run lands on a single partition and
// keeps its order.
type KafkaSink struct {
	writer *kafka.Writer
	cfg    KafkaConfig
	topic  string
	runID  string
	log    logrus.FieldLogger
}

// NewKafkaSink creates a synchronous writer for topic.
func NewKafkaSink(cfg KafkaConfig, topic, runID string, log logrus.FieldLogger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	if cfg.Partitions <= 0 {
		cfg.Partitions = 1
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			BatchTimeout: 10 * time.Millisecond,
		},
		cfg:   cfg,
		topic: topic,
		runID: runID,
		log:   log,
	}, nil
}

// Publish implements Sink with a single blocking WriteMessages call.
func (k *KafkaSink) Publish(ctx context.Context, batch []record.Encoded) error {
	if len(batch) == 0 {
		return nil
	}
	if err := k.writer.WriteMessages(ctx, k.messages(batch)...); err != nil {
		return fmt.Errorf("writing %d records to %s: %w", len(batch), k.topic, err)
	}
	k.log.WithFields(logrus.Fields{
		"topic":   k.topic,
		"records": len(batch),
	}).Debug("kafka batch written")
	return nil
}

func (k *KafkaSink) messages(batch []record.Encoded) []kafka.Message {
	msgs := make([]kafka.Message, len(batch))
	for i, rec := range batch {
		msgs[i] = kafka.Message{
			Key:     []byte(k.runID),
			Value:   rec.Payload,
			Time:    rec.ObservedAt,
			Headers: []kafka.Header{{Key: runIDHeader, Value: []byte(k.runID)}},
		}
	}
	return msgs
}

// Lookup implements TopicAdmin by reading the topic's partitions.
func (k *KafkaSink) Lookup(ctx context.Context, name string) (Topic, error) {
	conn, err := k.dial(ctx)
	if err != nil {
		return Topic{}, err
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(name)
	if errors.Is(err, kafka.UnknownTopicOrPartition) || (err == nil && len(partitions) == 0) {
		return Topic{}, ErrTopicNotFound
	}
	if err != nil {
		return Topic{}, fmt.Errorf("reading partitions for %s: %w", name, err)
	}
	return Topic{Name: name, Transport: "kafka"}, nil
}

// Create implements TopicAdmin through the cluster controller.
func (k *KafkaSink) Create(ctx context.Context, name string) (Topic, error) {
	conn, err := k.dial(ctx)
	if err != nil {
		return Topic{}, err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return Topic{}, fmt.Errorf("finding kafka controller: %w", err)
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	cc, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Topic{}, fmt.Errorf("dialing kafka controller %s: %w", addr, err)
	}
	defer cc.Close()

	err = cc.CreateTopics(kafka.TopicConfig{
		Topic:             name,
		NumPartitions:     k.cfg.Partitions,
		ReplicationFactor: k.cfg.ReplicationFactor,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return Topic{}, fmt.Errorf("creating topic %s: %w", name, err)
	}
	return Topic{Name: name, Transport: "kafka"}, nil
}

// Close flushes pending writes and releases the writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

func (k *KafkaSink) dial(ctx context.Context) (*kafka.Conn, error) {
	var lastErr error
	for _, broker := range k.cfg.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("dialing kafka: %w", lastErr)
}

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/Pacer/internal/config"
	"github.com/SmitUplenchwar2687/Pacer/internal/sink"
)

// transport bundles the publishing side of a configured destination.
type transport struct {
	sink   sink.Sink
	admin  sink.TopicAdmin
	closer io.Closer
}

func (t *transport) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

// openTransport connects to the configured destination. stdout is used by
// the stdout transport.
func openTransport(ctx context.Context, cfg config.Config, runID string, stdout io.Writer, log logrus.FieldLogger) (*transport, error) {
	topic := cfg.Transport.Topic

	switch cfg.Transport.Kind {
	case config.TransportStdout:
		w := sink.NewWriterSink(stdout)
		return &transport{sink: w, admin: w}, nil

	case config.TransportRedis:
		r, err := sink.NewRedisSink(ctx, cfg.RedisSinkConfig(), topic, log)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return &transport{sink: r, admin: r, closer: r}, nil

	case config.TransportKafka:
		k, err := sink.NewKafkaSink(cfg.KafkaSinkConfig(), topic, runID, log)
		if err != nil {
			return nil, fmt.Errorf("configuring kafka: %w", err)
		}
		return &transport{sink: k, admin: k, closer: k}, nil

	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport.Kind)
	}
}

// publisher wraps the transport sink with the configured retry policy.
func (t *transport) publisher(cfg config.Config, log logrus.FieldLogger) sink.Sink {
	if cfg.Transport.RetryAttempts <= 1 {
		return t.sink
	}
	return sink.WithRetry(t.sink, cfg.Transport.RetryAttempts, cfg.Transport.RetryBackoff, log)
}

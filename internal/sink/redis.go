package sink

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/Pacer/internal/clock"
	"github.com/SmitUplenchwar2687/Pacer/internal/record"
)

const (
	defaultRedisPoolSize    = 10
	defaultRedisMaxRetries  = 3
	defaultRedisDialTimeout = 5 * time.Second

	// redisTopicsKey is the set of channels registered as topics.
	redisTopicsKey = "pacer:topics"
)

// RedisConfig configures the Redis pub/sub transport.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	Cluster      bool
	ClusterNodes []string
	PoolSize     int
	MaxRetries   int
	DialTimeout  time.Duration
}

// RedisSink publishes records with PUBLISH, one message per record.
type RedisSink struct {
	client  redis.UniversalClient
	channel string
	log     logrus.FieldLogger
	clk     clock.Clock

	closeOnce sync.Once
	closeErr  error
}

// NewRedisSink connects to Redis and publishes to channel.
func NewRedisSink(ctx context.Context, cfg *RedisConfig, channel string, log logrus.FieldLogger) (*RedisSink, error) {
	conf, err := normalizeRedisConfig(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &RedisSink{
		client:  newRedisClient(conf),
		channel: channel,
		log:     log,
		clk:     clock.NewRealClock(),
	}
	if err := s.pingWithRetry(ctx, conf.MaxRetries); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return s, nil
}

// NewRedisSinkFromClient wraps an existing client.
func NewRedisSinkFromClient(client redis.UniversalClient, channel string, log logrus.FieldLogger) *RedisSink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisSink{client: client, channel: channel, log: log, clk: clock.NewRealClock()}
}

// Publish sends every record of batch in a single pipeline, preserving order.
func (s *RedisSink) Publish(ctx context.Context, batch []record.Encoded) error {
	if len(batch) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(batch))
	for i, rec := range batch {
		cmds[i] = pipe.Publish(ctx, s.channel, rec.Payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publishing %d records to %s: %w", len(batch), s.channel, err)
	}

	var receivers int64
	for _, c := range cmds {
		receivers += c.Val()
	}
	s.log.WithFields(logrus.Fields{
		"channel":   s.channel,
		"records":   len(batch),
		"receivers": receivers,
	}).Debug("redis batch published")
	return nil
}

// Lookup implements TopicAdmin using the pacer:topics registry set.
func (s *RedisSink) Lookup(ctx context.Context, name string) (Topic, error) {
	ok, err := s.client.SIsMember(ctx, redisTopicsKey, name).Result()
	if err != nil {
		return Topic{}, fmt.Errorf("checking topic registry: %w", err)
	}
	if !ok {
		return Topic{}, ErrTopicNotFound
	}
	return Topic{Name: name, Transport: "redis"}, nil
}

// Create implements TopicAdmin.
func (s *RedisSink) Create(ctx context.Context, name string) (Topic, error) {
	if err := s.client.SAdd(ctx, redisTopicsKey, name).Err(); err != nil {
		return Topic{}, fmt.Errorf("registering topic: %w", err)
	}
	return Topic{Name: name, Transport: "redis"}, nil
}

// Close releases Redis resources. It is idempotent.
func (s *RedisSink) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

func (s *RedisSink) pingWithRetry(ctx context.Context, maxRetries int) error {
	attempts := maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	backoff := 100 * time.Millisecond
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := s.client.Ping(ctx).Err()
		if err == nil {
			return nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		if err := s.clk.Sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}

	if lastErr == nil {
		lastErr = errors.New("ping failed with unknown error")
	}
	return lastErr
}

func normalizeRedisConfig(cfg *RedisConfig) (*RedisConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	conf := *cfg
	if conf.PoolSize <= 0 {
		conf.PoolSize = defaultRedisPoolSize
	}
	if conf.MaxRetries <= 0 {
		conf.MaxRetries = defaultRedisMaxRetries
	}
	if conf.DialTimeout <= 0 {
		conf.DialTimeout = defaultRedisDialTimeout
	}

	if conf.Cluster {
		if len(conf.ClusterNodes) == 0 {
			return nil, fmt.Errorf("cluster_nodes is required when cluster=true")
		}
		return &conf, nil
	}
	if conf.Host == "" {
		return nil, fmt.Errorf("redis host is required")
	}
	if conf.Port <= 0 {
		return nil, fmt.Errorf("redis port must be positive, got %d", conf.Port)
	}
	return &conf, nil
}

func newRedisClient(cfg *RedisConfig) redis.UniversalClient {
	if cfg.Cluster {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       cfg.ClusterNodes,
			Password:    cfg.Password,
			PoolSize:    cfg.PoolSize,
			MaxRetries:  cfg.MaxRetries,
			DialTimeout: cfg.DialTimeout,
		})
	}

	return redis.NewClient(&redis.Options{
		Addr:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
	})
}

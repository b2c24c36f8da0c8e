package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SmitUplenchwar2687/Pacer/internal/pacing"
	"github.com/SmitUplenchwar2687/Pacer/internal/sim"
	"github.com/SmitUplenchwar2687/Pacer/internal/sink"
)

// ErrInvalidConfig is returned by Validate. It is the same sentinel the
// simulation driver uses, so callers can match either with errors.Is.
var ErrInvalidConfig = sim.ErrInvalidConfig

// Transport kinds.
const (
	TransportStdout = "stdout"
	TransportRedis  = "redis"
	TransportKafka  = "kafka"
)

// Config is the top-level configuration for a Pacer run.
type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Transport  TransportConfig  `json:"transport"`
	Monitor    MonitorConfig    `json:"monitor"`
}

// SimulationConfig controls the replay itself.
type SimulationConfig struct {
	Input           string        `json:"input"`
	SpeedFactor     float64       `json:"speed_factor"`
	Threshold       time.Duration `json:"threshold"`
	PublishTimeout  time.Duration `json:"publish_timeout"`
	TruncateSeconds bool          `json:"truncate_seconds"`
	SkipEmptyFlush  bool          `json:"skip_empty_flush"`
}

// TransportConfig selects and configures the destination channel.
type TransportConfig struct {
	Kind          string        `json:"kind"`
	Topic         string        `json:"topic"`
	CreateTopic   bool          `json:"create_topic"`
	RetryAttempts int           `json:"retry_attempts"`
	RetryBackoff  time.Duration `json:"retry_backoff"`
	Redis         RedisConfig   `json:"redis"`
	Kafka         KafkaConfig   `json:"kafka"`
}

// RedisConfig configures the Redis pub/sub transport.
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password,omitempty"`
	DB           int           `json:"db"`
	Cluster      bool          `json:"cluster"`
	ClusterNodes []string      `json:"cluster_nodes,omitempty"`
	PoolSize     int           `json:"pool_size"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
}

// KafkaConfig configures the Kafka transport.
type KafkaConfig struct {
	Brokers           []string      `json:"brokers"`
	Partitions        int           `json:"partitions"`
	ReplicationFactor int           `json:"replication_factor"`
	MaxAttempts       int           `json:"max_attempts"`
	WriteTimeout      time.Duration `json:"write_timeout"`
}

// MonitorConfig enables the live HTTP/WebSocket monitor when Addr is set.
type MonitorConfig struct {
	Addr string `json:"addr"`
}

// Default returns a Config with sensible defaults. SpeedFactor is left at
// zero and must be supplied.
func Default() Config {
	return Config{
		Simulation: SimulationConfig{
			Input:     "sensor_obs2008.csv.gz",
			Threshold: sim.DefaultThreshold,
		},
		Transport: TransportConfig{
			Kind:          TransportStdout,
			Topic:         "sandiego",
			CreateTopic:   true,
			RetryAttempts: 3,
			RetryBackoff:  500 * time.Millisecond,
			Redis: RedisConfig{
				Host:        "localhost",
				Port:        6379,
				PoolSize:    10,
				MaxRetries:  3,
				DialTimeout: 5 * time.Second,
			},
			Kafka: KafkaConfig{
				Brokers:           []string{"localhost:9092"},
				Partitions:        1,
				ReplicationFactor: 1,
				MaxAttempts:       3,
				WriteTimeout:      10 * time.Second,
			},
		},
	}
}

// Validate checks that the config can drive a run.
func (c Config) Validate() error {
	if err := pacing.ValidateSpeedFactor(c.Simulation.SpeedFactor); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Simulation.Input == "" {
		return fmt.Errorf("%w: input is required", ErrInvalidConfig)
	}
	if c.Simulation.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative, got %s", ErrInvalidConfig, c.Simulation.Threshold)
	}
	if c.Simulation.PublishTimeout < 0 {
		return fmt.Errorf("%w: publish_timeout must not be negative, got %s", ErrInvalidConfig, c.Simulation.PublishTimeout)
	}
	if c.Transport.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}
	if c.Transport.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry_attempts must not be negative, got %d", ErrInvalidConfig, c.Transport.RetryAttempts)
	}

	switch c.Transport.Kind {
	case TransportStdout:
	case TransportRedis:
		r := c.Transport.Redis
		if r.Cluster && len(r.ClusterNodes) == 0 {
			return fmt.Errorf("%w: redis.cluster_nodes is required when redis.cluster=true", ErrInvalidConfig)
		}
		if !r.Cluster && (r.Host == "" || r.Port <= 0) {
			return fmt.Errorf("%w: redis host and port are required", ErrInvalidConfig)
		}
	case TransportKafka:
		if len(c.Transport.Kafka.Brokers) == 0 {
			return fmt.Errorf("%w: kafka.brokers is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown transport %q, must be one of: stdout, redis, kafka", ErrInvalidConfig, c.Transport.Kind)
	}
	return nil
}

// DriverOptions maps the simulation settings onto sim.Options.
func (c Config) DriverOptions() sim.Options {
	return sim.Options{
		SpeedFactor:     c.Simulation.SpeedFactor,
		Threshold:       c.Simulation.Threshold,
		PublishTimeout:  c.Simulation.PublishTimeout,
		TruncateSeconds: c.Simulation.TruncateSeconds,
		SkipEmptyFlush:  c.Simulation.SkipEmptyFlush,
	}
}

// RedisSinkConfig maps the Redis settings onto the sink's config.
func (c Config) RedisSinkConfig() *sink.RedisConfig {
	r := c.Transport.Redis
	return &sink.RedisConfig{
		Host:         r.Host,
		Port:         r.Port,
		Password:     r.Password,
		DB:           r.DB,
		Cluster:      r.Cluster,
		ClusterNodes: append([]string(nil), r.ClusterNodes...),
		PoolSize:     r.PoolSize,
		MaxRetries:   r.MaxRetries,
		DialTimeout:  r.DialTimeout,
	}
}

// KafkaSinkConfig maps the Kafka settings onto the sink's config.
func (c Config) KafkaSinkConfig() sink.KafkaConfig {
	k := c.Transport.Kafka
	return sink.KafkaConfig{
		Brokers:           append([]string(nil), k.Brokers...),
		Partitions:        k.Partitions,
		ReplicationFactor: k.ReplicationFactor,
		MaxAttempts:       k.MaxAttempts,
		WriteTimeout:      k.WriteTimeout,
	}
}

// LoadFile reads a JSON or YAML config file and merges it with defaults.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
// Fields not specified in the file retain their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var raw rawConfig
	if isYAML(path) {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if err := raw.merge(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// WriteExample writes an example config file to the given path, as YAML
// when the extension asks for it and JSON otherwise.
func WriteExample(path string) error {
	example := exampleJSON
	if isYAML(path) {
		example = exampleYAML
	}
	return os.WriteFile(path, []byte(example), 0o644)
}

const exampleJSON = `{
  "simulation": {
    "input": "sensor_obs2008.csv.gz",
    "speed_factor": 60,
    "threshold": "1s",
    "publish_timeout": "30s"
  },
  "transport": {
    "kind": "redis",
    "topic": "sandiego",
    "create_topic": true,
    "retry_attempts": 3,
    "retry_backoff": "500ms",
    "redis": {
      "host": "localhost",
      "port": 6379
    },
    "kafka": {
      "brokers": ["localhost:9092"],
      "partitions": 1,
      "replication_factor": 1
    }
  },
  "monitor": {
    "addr": ":8080"
  }
}
`

const exampleYAML = `simulation:
  input: sensor_obs2008.csv.gz
  speed_factor: 60
  threshold: 1s
  publish_timeout: 30s
transport:
  kind: kafka
  topic: sandiego
  create_topic: true
  retry_attempts: 3
  retry_backoff: 500ms
  redis:
    host: localhost
    port: 6379
  kafka:
    brokers:
      - localhost:9092
    partitions: 1
    replication_factor: 1
monitor:
  addr: ":8080"
`

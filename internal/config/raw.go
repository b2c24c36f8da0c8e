package config

import (
	"fmt"
	"time"
)

// rawConfig is the file representation with string durations. The same
// struct decodes JSON and YAML. Booleans are pointers so an explicit false
// overrides a true default.
type rawConfig struct {
	Simulation struct {
		Input           string  `json:"input" yaml:"input"`
		SpeedFactor     float64 `json:"speed_factor" yaml:"speed_factor"`
		Threshold       string  `json:"threshold" yaml:"threshold"`
		PublishTimeout  string  `json:"publish_timeout" yaml:"publish_timeout"`
		TruncateSeconds *bool   `json:"truncate_seconds" yaml:"truncate_seconds"`
		SkipEmptyFlush  *bool   `json:"skip_empty_flush" yaml:"skip_empty_flush"`
	} `json:"simulation" yaml:"simulation"`
	Transport struct {
		Kind          string `json:"kind" yaml:"kind"`
		Topic         string `json:"topic" yaml:"topic"`
		CreateTopic   *bool  `json:"create_topic" yaml:"create_topic"`
		RetryAttempts *int   `json:"retry_attempts" yaml:"retry_attempts"`
		RetryBackoff  string `json:"retry_backoff" yaml:"retry_backoff"`
		Redis         struct {
			Host         string   `json:"host" yaml:"host"`
			Port         int      `json:"port" yaml:"port"`
			Password     string   `json:"password" yaml:"password"`
			DB           int      `json:"db" yaml:"db"`
			Cluster      *bool    `json:"cluster" yaml:"cluster"`
			ClusterNodes []string `json:"cluster_nodes" yaml:"cluster_nodes"`
			PoolSize     int      `json:"pool_size" yaml:"pool_size"`
			MaxRetries   int      `json:"max_retries" yaml:"max_retries"`
			DialTimeout  string   `json:"dial_timeout" yaml:"dial_timeout"`
		} `json:"redis" yaml:"redis"`
		Kafka struct {
			Brokers           []string `json:"brokers" yaml:"brokers"`
			Partitions        int      `json:"partitions" yaml:"partitions"`
			ReplicationFactor int      `json:"replication_factor" yaml:"replication_factor"`
			MaxAttempts       int      `json:"max_attempts" yaml:"max_attempts"`
			WriteTimeout      string   `json:"write_timeout" yaml:"write_timeout"`
		} `json:"kafka" yaml:"kafka"`
	} `json:"transport" yaml:"transport"`
	Monitor struct {
		Addr string `json:"addr" yaml:"addr"`
	} `json:"monitor" yaml:"monitor"`
}

func (raw *rawConfig) merge(cfg *Config) error {
	s := raw.Simulation
	if s.Input != "" {
		cfg.Simulation.Input = s.Input
	}
	if s.SpeedFactor != 0 {
		cfg.Simulation.SpeedFactor = s.SpeedFactor
	}
	if err := setDuration(&cfg.Simulation.Threshold, s.Threshold, "simulation.threshold"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Simulation.PublishTimeout, s.PublishTimeout, "simulation.publish_timeout"); err != nil {
		return err
	}
	if s.TruncateSeconds != nil {
		cfg.Simulation.TruncateSeconds = *s.TruncateSeconds
	}
	if s.SkipEmptyFlush != nil {
		cfg.Simulation.SkipEmptyFlush = *s.SkipEmptyFlush
	}

	t := raw.Transport
	if t.Kind != "" {
		cfg.Transport.Kind = t.Kind
	}
	if t.Topic != "" {
		cfg.Transport.Topic = t.Topic
	}
	if t.CreateTopic != nil {
		cfg.Transport.CreateTopic = *t.CreateTopic
	}
	if t.RetryAttempts != nil {
		cfg.Transport.RetryAttempts = *t.RetryAttempts
	}
	if err := setDuration(&cfg.Transport.RetryBackoff, t.RetryBackoff, "transport.retry_backoff"); err != nil {
		return err
	}

	r := t.Redis
	if r.Host != "" {
		cfg.Transport.Redis.Host = r.Host
	}
	if r.Port > 0 {
		cfg.Transport.Redis.Port = r.Port
	}
	if r.Password != "" {
		cfg.Transport.Redis.Password = r.Password
	}
	if r.DB > 0 {
		cfg.Transport.Redis.DB = r.DB
	}
	if r.Cluster != nil {
		cfg.Transport.Redis.Cluster = *r.Cluster
	}
	if len(r.ClusterNodes) > 0 {
		cfg.Transport.Redis.ClusterNodes = r.ClusterNodes
	}
	if r.PoolSize > 0 {
		cfg.Transport.Redis.PoolSize = r.PoolSize
	}
	if r.MaxRetries > 0 {
		cfg.Transport.Redis.MaxRetries = r.MaxRetries
	}
	if err := setDuration(&cfg.Transport.Redis.DialTimeout, r.DialTimeout, "transport.redis.dial_timeout"); err != nil {
		return err
	}

	k := t.Kafka
	if len(k.Brokers) > 0 {
		cfg.Transport.Kafka.Brokers = k.Brokers
	}
	if k.Partitions > 0 {
		cfg.Transport.Kafka.Partitions = k.Partitions
	}
	if k.ReplicationFactor > 0 {
		cfg.Transport.Kafka.ReplicationFactor = k.ReplicationFactor
	}
	if k.MaxAttempts > 0 {
		cfg.Transport.Kafka.MaxAttempts = k.MaxAttempts
	}
	if err := setDuration(&cfg.Transport.Kafka.WriteTimeout, k.WriteTimeout, "transport.kafka.write_timeout"); err != nil {
		return err
	}

	if raw.Monitor.Addr != "" {
		cfg.Monitor.Addr = raw.Monitor.Addr
	}
	return nil
}

func setDuration(dst *time.Duration, value, field string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", field, err)
	}
	*dst = d
	return nil
}

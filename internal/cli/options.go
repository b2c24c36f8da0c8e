package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Pacer/internal/config"
)

// runOptions holds the flags shared by commands that talk to a transport.
// Flags override environment variables, which override the config file.
type runOptions struct {
	configPath string

	input           string
	speedFactor     float64
	threshold       time.Duration
	publishTimeout  time.Duration
	truncateSeconds bool
	skipEmptyFlush  bool

	transport         string
	topic             string
	createTopic       bool
	retryAttempts     int
	retryBackoff      time.Duration
	redisAddr         string
	redisPassword     string
	redisDB           int
	redisClusterNodes []string
	kafkaBrokers      []string
	kafkaPartitions   int

	monitorAddr string
}

func (o *runOptions) addTransportFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "path to a JSON or YAML config file")
	f.StringVar(&o.transport, "transport", d.Transport.Kind, "destination transport (stdout, redis, kafka)")
	f.StringVar(&o.topic, "topic", d.Transport.Topic, "destination topic or channel")
	f.StringVar(&o.redisAddr, "redis-addr", "localhost:6379", "redis address host:port")
	f.StringVar(&o.redisPassword, "redis-password", "", "redis password")
	f.IntVar(&o.redisDB, "redis-db", 0, "redis database index")
	f.StringSliceVar(&o.redisClusterNodes, "redis-cluster-nodes", nil, "redis cluster nodes host:port list (enables cluster mode)")
	f.StringSliceVar(&o.kafkaBrokers, "kafka-brokers", d.Transport.Kafka.Brokers, "kafka broker addresses")
	f.IntVar(&o.kafkaPartitions, "kafka-partitions", d.Transport.Kafka.Partitions, "partitions for newly created kafka topics")
}

func (o *runOptions) addSimulationFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()
	f.StringVar(&o.input, "input", d.Simulation.Input, "sensor CSV file, optionally gzip-compressed (.gz)")
	f.Float64Var(&o.speedFactor, "speed-factor", 0, "simulated seconds per wall second, e.g. 60 sends 1 hour of data in 1 minute (required)")
	f.DurationVar(&o.threshold, "threshold", d.Simulation.Threshold, "flush accumulated records once the replay is this far ahead")
	f.DurationVar(&o.publishTimeout, "publish-timeout", 0, "deadline for each batch publish (0 = none)")
	f.BoolVar(&o.truncateSeconds, "truncate-seconds", false, "compute elapsed time in whole seconds within a day (legacy pacing)")
	f.BoolVar(&o.skipEmptyFlush, "skip-empty-flush", false, "do not publish empty batches")
	f.BoolVar(&o.createTopic, "create-topic", d.Transport.CreateTopic, "create the topic if it does not exist")
	f.IntVar(&o.retryAttempts, "retry-attempts", d.Transport.RetryAttempts, "publish attempts per batch (1 = no retry)")
	f.DurationVar(&o.retryBackoff, "retry-backoff", d.Transport.RetryBackoff, "initial backoff between publish attempts")
	f.StringVar(&o.monitorAddr, "monitor-addr", "", "serve a live monitor on this address, e.g. :8080")
}

// load builds the effective config: defaults, then --config, then PACER_*
// variables, then explicitly set flags.
func (o *runOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.LoadFile(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := o.applyFlags(cmd, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (o *runOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("input") {
		cfg.Simulation.Input = o.input
	}
	if changed("speed-factor") {
		cfg.Simulation.SpeedFactor = o.speedFactor
	}
	if changed("threshold") {
		cfg.Simulation.Threshold = o.threshold
	}
	if changed("publish-timeout") {
		cfg.Simulation.PublishTimeout = o.publishTimeout
	}
	if changed("truncate-seconds") {
		cfg.Simulation.TruncateSeconds = o.truncateSeconds
	}
	if changed("skip-empty-flush") {
		cfg.Simulation.SkipEmptyFlush = o.skipEmptyFlush
	}
	if changed("transport") {
		cfg.Transport.Kind = o.transport
	}
	if changed("topic") {
		cfg.Transport.Topic = o.topic
	}
	if changed("create-topic") {
		cfg.Transport.CreateTopic = o.createTopic
	}
	if changed("retry-attempts") {
		cfg.Transport.RetryAttempts = o.retryAttempts
	}
	if changed("retry-backoff") {
		cfg.Transport.RetryBackoff = o.retryBackoff
	}
	if changed("redis-addr") {
		host, port, err := config.SplitHostPort(o.redisAddr, cfg.Transport.Redis.Port)
		if err != nil {
			return err
		}
		cfg.Transport.Redis.Host = host
		cfg.Transport.Redis.Port = port
	}
	if changed("redis-password") {
		cfg.Transport.Redis.Password = o.redisPassword
	}
	if changed("redis-db") {
		cfg.Transport.Redis.DB = o.redisDB
	}
	if changed("redis-cluster-nodes") {
		cfg.Transport.Redis.Cluster = len(o.redisClusterNodes) > 0
		cfg.Transport.Redis.ClusterNodes = append([]string(nil), o.redisClusterNodes...)
	}
	if changed("kafka-brokers") {
		cfg.Transport.Kafka.Brokers = append([]string(nil), o.kafkaBrokers...)
	}
	if changed("kafka-partitions") {
		cfg.Transport.Kafka.Partitions = o.kafkaPartitions
	}
	if changed("monitor-addr") {
		cfg.Monitor.Addr = o.monitorAddr
	}
	return nil
}

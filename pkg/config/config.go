package config

import internalconfig "github.com/SmitUplenchwar2687/Pacer/internal/config"

// Config is the top-level configuration for a Pacer run.
type Config = internalconfig.Config

// SimulationConfig controls the replay itself.
type SimulationConfig = internalconfig.SimulationConfig

// TransportConfig selects and configures the destination channel.
type TransportConfig = internalconfig.TransportConfig

// RedisConfig configures the Redis pub/sub transport.
type RedisConfig = internalconfig.RedisConfig

// KafkaConfig configures the Kafka transport.
type KafkaConfig = internalconfig.KafkaConfig

// MonitorConfig configures the live monitor.
type MonitorConfig = internalconfig.MonitorConfig

// ErrInvalidConfig is returned when a config cannot drive a run.
var ErrInvalidConfig = internalconfig.ErrInvalidConfig

// Default returns a Config with sensible defaults. SpeedFactor must still be set.
func Default() Config {
	return internalconfig.Default()
}

// LoadFile reads a JSON or YAML config file and merges it with defaults.
func LoadFile(path string) (Config, error) {
	return internalconfig.LoadFile(path)
}

// ApplyEnv overrides cfg with PACER_* environment variables.
func ApplyEnv(cfg *Config) error {
	return internalconfig.ApplyEnv(cfg)
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	return internalconfig.WriteExample(path)
}

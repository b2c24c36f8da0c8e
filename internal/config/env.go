package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvSpeedFactor  = "PACER_SPEED_FACTOR"
	EnvTopic        = "PACER_TOPIC"
	EnvInput        = "PACER_INPUT"
	EnvTransport    = "PACER_TRANSPORT"
	EnvRedisAddr    = "PACER_REDIS_ADDR"
	EnvKafkaBrokers = "PACER_KAFKA_BROKERS"
	EnvMonitorAddr  = "PACER_MONITOR_ADDR"
)

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is only an error when
// required is true.
func LoadDotEnv(path string, required bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading env file %s: %w", path, err)
}

// ApplyEnv overrides cfg with PACER_* variables from the process environment.
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvSpeedFactor); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvSpeedFactor, err)
		}
		cfg.Simulation.SpeedFactor = f
	}
	if v, ok := lookup(EnvTopic); ok && v != "" {
		cfg.Transport.Topic = v
	}
	if v, ok := lookup(EnvInput); ok && v != "" {
		cfg.Simulation.Input = v
	}
	if v, ok := lookup(EnvTransport); ok && v != "" {
		cfg.Transport.Kind = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		host, port, err := SplitHostPort(v, cfg.Transport.Redis.Port)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvRedisAddr, err)
		}
		cfg.Transport.Redis.Host = host
		cfg.Transport.Redis.Port = port
	}
	if v, ok := lookup(EnvKafkaBrokers); ok && v != "" {
		cfg.Transport.Kafka.Brokers = splitList(v)
	}
	if v, ok := lookup(EnvMonitorAddr); ok {
		cfg.Monitor.Addr = v
	}
	return nil
}

// SplitHostPort accepts "host" or "host:port". defaultPort is used when
// addr carries no port.
func SplitHostPort(addr string, defaultPort int) (string, int, error) {
	host, port := addr, defaultPort
	if strings.Contains(addr, ":") {
		h, p, err := net.SplitHostPort(addr)
		if err != nil {
			return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
		}
		host, port = h, n
	}
	if host == "" {
		return "", 0, fmt.Errorf("host cannot be empty")
	}
	if port <= 0 {
		return "", 0, fmt.Errorf("port must be positive, got %d", port)
	}
	return host, port, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

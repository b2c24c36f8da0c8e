package sink

import (
	"context"
	"strconv"
	"testing"
	"time"

	testcontainers "github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisSinkForTest(t *testing.T, channel string) (*RedisSink, func()) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := rediscontainer.Run(ctx, "redis:7.2-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("container mapped port: %v", err)
	}
	p, err := strconv.Atoi(port.Port())
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("parse mapped port: %v", err)
	}

	s, err := NewRedisSink(ctx, &RedisConfig{
		Host:        host,
		Port:        p,
		DialTimeout: 5 * time.Second,
	}, channel, quietLogger())
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("NewRedisSink() error: %v", err)
	}

	cleanup := func() {
		_ = s.Close()
		_ = container.Terminate(context.Background())
	}
	return s, cleanup
}

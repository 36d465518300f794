// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedis provides a disposable Redis instance with cleanup
type TestRedis struct {
	Container testcontainers.Container
	Client    *redis.Client
	Addr      string
}

// RedisConfig holds test Redis configuration
type RedisConfig struct {
	Image string
	Port  string
}

// DefaultRedisConfig returns the default test Redis configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Image: "redis:7-alpine",
		Port:  "6379",
	}
}

// SetupTestRedis starts a Redis container for the duration of t
func SetupTestRedis(t *testing.T) *TestRedis {
	return SetupTestRedisWithConfig(t, DefaultRedisConfig())
}

// SetupTestRedisWithConfig starts a Redis container with custom configuration
func SetupTestRedisWithConfig(t *testing.T, cfg RedisConfig) *TestRedis {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        cfg.Image,
				ExposedPorts: []string{cfg.Port + "/tcp"},
				WaitingFor: wait.ForLog("Ready to accept connections").
					WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
	require.NoError(t, err, "Failed to start redis container")

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, nat.Port(cfg.Port))
	require.NoError(t, err)

	addr := fmt.Sprintf("%s:%s", host, port.Port())
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err(), "Failed to ping test redis")

	tr := &TestRedis{
		Container: container,
		Client:    client,
		Addr:      addr,
	}

	t.Cleanup(func() {
		_ = client.Close()
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	return tr
}

// Flush removes every key so subtests start empty
func (tr *TestRedis) Flush(t *testing.T) {
	require.NoError(t, tr.Client.FlushDB(context.Background()).Err())
}

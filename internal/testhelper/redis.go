package testhelper

import (
	"context"
	"net"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/redis/rueidis"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const redisPort = nat.Port("6379/tcp")

func NewRedisContainer(t *testing.T) testcontainers.Container {
	t.Helper()

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{string(redisPort)},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithOccurrence(1),
	}
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("failed to create Redis container: %v", err)
	}

	t.Cleanup(func() {
		if err := redisC.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	return redisC
}

func NewRedisClient(t *testing.T, container testcontainers.Container) rueidis.Client {
	t.Helper()

	ctx := context.Background()

	host, err := container.Host(ctx)
	if err != nil {
		t.Skipf("failed to get Redis container host: %v", err)
	}

	port, err := container.MappedPort(ctx, redisPort)
	if err != nil {
		t.Skipf("failed to get Redis container port: %v", err)
	}

	redisClient, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{net.JoinHostPort(host, port.Port())},
		DisableCache: true,
	})
	if err != nil {
		t.Skipf("failed to create Redis client: %v", err)
	}

	t.Cleanup(func() {
		redisClient.Close()
	})

	return redisClient
}

// NewRedis starts a Redis container and returns a client connected to it.
// The test is skipped when Docker is not available.
func NewRedis(t *testing.T) rueidis.Client {
	t.Helper()

	return NewRedisClient(t, NewRedisContainer(t))
}

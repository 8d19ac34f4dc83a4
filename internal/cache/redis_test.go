package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}

	rdb, err := NewRedisClient(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer func() { _ = rdb.Close() }()

	c := NewRedisCache(rdb, time.Minute)

	for i := 0; i < 150; i++ {
		_ = c.Set(ctx, ReportKey("p1", fmt.Sprintf("kw %d", i), false), []byte("x"), 0)
	}
	_ = c.Set(ctx, ReportKey("p2", "", false), []byte("keep"), 0)

	if err := InvalidateProject(ctx, c, "p1"); err != nil {
		t.Fatalf("InvalidateProject: %v", err)
	}
	if _, ok := c.Get(ctx, ReportKey("p1", "kw 7", false)); ok {
		t.Error("p1 entries should be deleted")
	}
	if val, ok := c.Get(ctx, ReportKey("p2", "", false)); !ok || string(val) != "keep" {
		t.Error("p2 entry should survive")
	}

	ttl, err := rdb.TTL(ctx, ReportKey("p2", "", false)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected default ttl to apply, got %v (%v)", ttl, err)
	}
}

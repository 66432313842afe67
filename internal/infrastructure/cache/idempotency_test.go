package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/infrastructure/cache"
	"github.com/jhoicas/materiales-api/pkg/config"
)

// Requiere Redis: TEST_REDIS_ADDR=localhost:6379 go test ./internal/infrastructure/cache/
func testGuard(t *testing.T) *cache.IdempotencyGuard {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR no definido")
	}
	rdb, err := cache.NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewIdempotencyGuard(rdb, time.Minute)
}

func TestIdempotencyGuard_CicloCompleto(t *testing.T) {
	g := testGuard(t)
	ctx := context.Background()
	key := uuid.New().String()

	id, reserved, err := g.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Empty(t, id)

	// En curso
	id, reserved, err = g.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Empty(t, id)

	require.NoError(t, g.Complete(ctx, key, "mov-1"))
	id, reserved, err = g.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "mov-1", id)
}

func TestIdempotencyGuard_ReleasePermiteReintentar(t *testing.T) {
	g := testGuard(t)
	ctx := context.Background()
	key := uuid.New().String()

	_, reserved, err := g.Reserve(ctx, key)
	require.NoError(t, err)
	require.True(t, reserved)
	require.NoError(t, g.Release(ctx, key))

	_, reserved, err = g.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestNewRedisClient_DireccionInvalidaFalla(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := cache.NewRedisClient(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

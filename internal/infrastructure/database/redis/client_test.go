package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

func newMiniredisClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Success(t *testing.T) {
	client, _ := newMiniredisClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	client, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond}, nil)

	assert.Nil(t, client)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrCodeCollaboratorUnavailable, pkgerrors.GetCode(err))
}

func TestClient_Commands(t *testing.T) {
	client, mr := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "ipcost:k", "v", time.Minute).Err())
	val, err := client.Get(ctx, "ipcost:k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", val)
	assert.Equal(t, time.Minute, mr.TTL("ipcost:k"))

	keys, cursor, err := client.Scan(ctx, 0, "ipcost:*", 10).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"ipcost:k"}, keys)
	assert.Zero(t, cursor)

	n, err := client.Del(ctx, "ipcost:k").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClient_ClosedRejectsCommands(t *testing.T) {
	client, _ := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	assert.Equal(t, ErrClientClosed, client.Get(ctx, "k").Err())
	assert.Equal(t, ErrClientClosed, client.Set(ctx, "k", "v", 0).Err())
	assert.Equal(t, ErrClientClosed, client.Del(ctx, "k").Err())
	assert.Equal(t, ErrClientClosed, client.Scan(ctx, 0, "*", 1).Err())
	assert.Equal(t, ErrClientClosed, client.Ping(ctx))
}

func TestRedisCache_EndToEnd(t *testing.T) {
	client, mr := newMiniredisClient(t)
	cache := NewRedisCache(client, nil, WithDefaultTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "ref:rates:2025-06-01", map[string]float64{"EUR/USD": 1.08}, 0))
	assert.True(t, mr.Exists("ipcost:ref:rates:2025-06-01"))
	ttl := mr.TTL("ipcost:ref:rates:2025-06-01")
	assert.InDelta(t, float64(time.Hour), float64(ttl), float64(6*time.Minute))

	var got map[string]float64
	require.NoError(t, cache.Get(ctx, "ref:rates:2025-06-01", &got))
	assert.Equal(t, 1.08, got["EUR/USD"])

	n, err := cache.DeleteByPrefix(ctx, "ref:")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, mr.Exists("ipcost:ref:rates:2025-06-01"))
}

//Personal.AI order the ending

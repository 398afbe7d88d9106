package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory("checkout-gateway")
	ctx := context.Background()

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory("checkout-gateway")
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	now = now.Add(59 * time.Second)
	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "v", v)

	now = now.Add(time.Second)
	v, _ = c.Get(ctx, "k")
	assert.Empty(t, v)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "checkout-gateway:idempotency:abc", NewMemory("checkout-gateway").GenerateKey("idempotency", "abc"))
	assert.Equal(t, "svc:op:k", NewRedisCache(nil, "svc").GenerateKey("op", "k"))
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := NewRedisCache(client, "svc")

	_, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "k", "v", time.Second))
}

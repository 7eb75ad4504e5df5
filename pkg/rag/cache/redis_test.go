package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/pkg/rag"
	"github.com/ragline/ragline/pkg/rag/cache"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedis(client, "test", ttl, nil), mr
}

func TestRedisGetSet(t *testing.T) {
	t.Parallel()

	c, _ := newRedisCache(t, 0)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	docs := []rag.Document{{ID: "a", Content: "cached", Score: 0.5}}
	require.NoError(t, c.Set(ctx, "key", docs))

	got, ok, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, docs, got)
}

func TestRedisTTL(t *testing.T) {
	t.Parallel()

	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []rag.Document{{ID: "a"}}))

	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisInvalidate(t *testing.T) {
	t.Parallel()

	c, mr := newRedisCache(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "one", nil))
	require.NoError(t, c.Set(ctx, "two", nil))
	require.NoError(t, mr.Set("other:key", "untouched"))

	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx, "one")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := mr.Get("other:key")
	require.NoError(t, err)
	assert.Equal(t, "untouched", got)
}

func TestRedisCorruptEntry(t *testing.T) {
	t.Parallel()

	c, mr := newRedisCache(t, 0)

	require.NoError(t, mr.Set("test:bad", "{not json"))

	_, _, err := c.Get(context.Background(), "bad")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestRedisPing(t *testing.T) {
	t.Parallel()

	c, mr := newRedisCache(t, 0)

	require.NoError(t, c.Ping(context.Background()))

	mr.Close()

	assert.Error(t, c.Ping(context.Background()))
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*RedisTimezoneCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisTimezoneCache(client), mr
}

func TestRedisTimezoneCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	_, ok, err := c.Get(ctx, "41.8781,-87.6298")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Put(ctx, "41.8781,-87.6298", chicago, time.Now().Add(time.Hour)))
	require.True(t, mr.Exists("tz:41.8781,-87.6298"))

	got, ok, err := c.Get(ctx, "41.8781,-87.6298")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, chicago, got)

	mr.FastForward(2 * time.Hour)

	_, ok, err = c.Get(ctx, "41.8781,-87.6298")
	require.NoError(t, err)
	require.False(t, ok, "entry should expire with its ttl")
}

func TestRedisTimezoneCacheSkipsExpiredPut(t *testing.T) {
	c, mr := newRedisCache(t)

	require.NoError(t, c.Put(context.Background(), "k", chicago, time.Now().Add(-time.Minute)))
	require.False(t, mr.Exists("tz:k"))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = NewRedisClient(context.Background(), "not a url")
	require.Error(t, err)
}

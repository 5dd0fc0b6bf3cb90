package cache

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/KAsare1/Postly-server/cmd/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to REDIS_URL and skips when no server is configured.
func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	c, err := NewRedis(url, log)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Clear(ctx))
	t.Cleanup(func() {
		c.Clear(context.Background())
		c.Close()
	})
	return c
}

func TestRedisRoundTrip(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "0|/")
	assert.False(t, ok)

	c.Set(ctx, "0|/", []byte("page"), DefaultTTL)
	got, ok := c.Get(ctx, "0|/")
	require.True(t, ok)
	assert.Equal(t, "page", string(got))

	ttl, err := c.client.TTL(ctx, KeyPrefix+"0|/").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, DefaultTTL)

	c.Set(ctx, "0|/?page=2", []byte("x"), 0)
	_, ok = c.Get(ctx, "0|/?page=2")
	assert.False(t, ok, "zero ttl is not stored")
}

func TestRedisExpiry(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	c.Set(ctx, "short", []byte("page"), 100*time.Millisecond)
	_, ok := c.Get(ctx, "short")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "short")
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisClearKeepsOtherKeys(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	const outside = "postly-test:outside"
	require.NoError(t, c.client.Set(ctx, outside, "keep", time.Minute).Err())
	t.Cleanup(func() { c.client.Del(context.Background(), outside) })

	// More than one delete batch.
	for i := 0; i < 250; i++ {
		c.Set(ctx, fmt.Sprintf("%d|/", i), []byte("page"), time.Minute)
	}
	keys, err := c.client.Keys(ctx, KeyPrefix+"*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 250)

	require.NoError(t, c.Clear(ctx))

	keys, err = c.client.Keys(ctx, KeyPrefix+"*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	kept, err := c.client.Get(ctx, outside).Result()
	require.NoError(t, err)
	assert.Equal(t, "keep", kept)
}

func TestOpenRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	pages, err := Open(context.Background(), config.Config{CacheBackend: "redis", RedisURL: url}, log)
	require.NoError(t, err)
	defer pages.(*Redis).Close()
	assert.IsType(t, &Redis{}, pages)
}

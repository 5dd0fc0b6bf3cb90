package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// KeyPrefix namespaces every page cache key in Redis.
const KeyPrefix = "postly:page:"

// Redis shares cached pages between server instances. Failures degrade to
// cache misses and are logged.
type Redis struct {
	client *redis.Client
	log    logrus.FieldLogger
}

func NewRedis(url string, log logrus.FieldLogger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts), log: log}, nil
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("page cache read failed")
		return nil, false
	}
	return body, true
}

func (c *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, KeyPrefix+key, val, ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("page cache write failed")
	}
}

// Clear deletes every key under the prefix, leaving other data alone.
func (c *Redis) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("clear page cache: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan page cache: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("clear page cache: %w", err)
		}
	}
	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}

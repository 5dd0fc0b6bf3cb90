package cache

import (
	"context"
	"fmt"

	"github.com/KAsare1/Postly-server/cmd/config"
	"github.com/sirupsen/logrus"
)

// Open builds the backend named by CACHE_BACKEND.
func Open(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (PageCache, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return NewMemory(cfg.CacheSize)
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("CACHE_BACKEND=redis needs REDIS_URL")
		}
		c, err := NewRedis(cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		if err := c.Ping(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}

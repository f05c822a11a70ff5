package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

// Cache is the storage behind the token provider. Items are stored as
// strings so the memory and redis backends behave identically.
type Cache interface {
	Init(ctx context.Context, ttl time.Duration)
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, item string)
	GetItemTTL(ctx context.Context, key string) (time.Duration, bool)
	GetTTL(ctx context.Context) time.Duration
}

// New builds the cache backend selected by cacheType ("memory" or "redis")
// and initializes it with the given TTL.
func New(ctx context.Context, cacheType string, ttl time.Duration) (Cache, error) {
	var c Cache

	switch cacheType {
	case "memory":
		c = &GoCache{
			Tracer: otel.Tracer("cache.memory"),
		}
	case "redis":
		c = &RedisCache{
			Address: viper.GetString("redis_host"),
			DB:      viper.GetInt("redis_db"),
			Tracer:  otel.Tracer("cache.redis"),
		}
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cacheType)
	}

	c.Init(ctx, ttl)
	return c, nil
}

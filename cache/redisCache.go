package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// RedisCache shares the token between processes, for runs where several
// suite invocations hit the same deployment and should not each burn a
// token exchange.
type RedisCache struct {
	Cache   *redis.Client
	TTL     time.Duration
	Address string
	DB      int
	Tracer  trace.Tracer
}

func (c *RedisCache) Init(ctx context.Context, ttl time.Duration) {
	_, span := c.Tracer.Start(ctx, "Init")
	defer span.End()

	c.Cache = redis.NewClient(&redis.Options{
		Addr: c.Address,
		DB:   c.DB,
	})

	c.TTL = ttl
}

func (c *RedisCache) GetTTL(ctx context.Context) time.Duration {
	_, span := c.Tracer.Start(ctx, "GetTTL")
	defer span.End()

	return c.TTL
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	ctx, span := c.Tracer.Start(ctx, "Get")
	defer span.End()

	item, err := c.Cache.Get(ctx, key).Result()
	if err == redis.Nil || len(item) == 0 {
		return "", false
	}
	if err != nil {
		slog.ErrorContext(ctx, "redis get failed", slog.Any("error", err))
		return "", false
	}

	return item, true
}

func (c *RedisCache) Set(ctx context.Context, key string, item string) {
	ctx, span := c.Tracer.Start(ctx, "Set")
	defer span.End()

	if err := c.Cache.Set(ctx, key, item, c.TTL).Err(); err != nil {
		slog.ErrorContext(ctx, "redis set failed", slog.Any("error", err))
	}
}

func (c *RedisCache) GetItemTTL(ctx context.Context, key string) (time.Duration, bool) {
	ctx, span := c.Tracer.Start(ctx, "GetItemTTL")
	defer span.End()

	item, err := c.Cache.TTL(ctx, key).Result()
	if err != nil {
		slog.ErrorContext(ctx, "redis ttl failed", slog.Any("error", err))
		return 0, false
	}

	return item, true
}

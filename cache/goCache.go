package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/trace"
)

// GoCache is the in-process cache backend. It is the default: the suite runs
// single-process, so a shared store is rarely needed.
type GoCache struct {
	Cache  *gocache.Cache
	TTL    time.Duration
	Tracer trace.Tracer
}

func (c *GoCache) Init(ctx context.Context, ttl time.Duration) {
	_, span := c.Tracer.Start(ctx, "Init")
	defer span.End()

	c.TTL = ttl
	c.Cache = gocache.New(ttl, ttl)
}

func (c *GoCache) GetTTL(ctx context.Context) time.Duration {
	_, span := c.Tracer.Start(ctx, "GetTTL")
	defer span.End()

	return c.TTL
}

func (c *GoCache) Get(ctx context.Context, key string) (string, bool) {
	_, span := c.Tracer.Start(ctx, "Get")
	defer span.End()

	item, found := c.Cache.Get(key)
	if !found {
		return "", false
	}

	s, ok := item.(string)
	return s, ok
}

func (c *GoCache) Set(ctx context.Context, key string, item string) {
	_, span := c.Tracer.Start(ctx, "Set")
	defer span.End()

	c.Cache.Set(key, item, c.TTL)
}

func (c *GoCache) GetItemTTL(ctx context.Context, key string) (time.Duration, bool) {
	_, span := c.Tracer.Start(ctx, "GetItemTTL")
	defer span.End()

	_, expiration, found := c.Cache.GetWithExpiration(key)
	if !found {
		return 0, false
	}

	return time.Until(expiration), true
}

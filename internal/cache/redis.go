package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/listings-api/internal/redisx"
)

// Redis is a Cache shared across processes. Values are stored as JSON under
// prefix with a server-side TTL. Redis failures are logged and read as misses.
type Redis[V any] struct {
	client *redisx.Client
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedis[V any](client *redisx.Client, prefix string, ttl time.Duration, log *slog.Logger) *Redis[V] {
	if log == nil {
		log = slog.Default()
	}
	return &Redis[V]{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var v V
	b, err := c.client.Get(ctx, c.prefix+key)
	if err != nil {
		if !errors.Is(err, redisx.ErrMiss) {
			c.log.Warn("cache read failed", "prefix", c.prefix, "err", err)
		}
		return v, false
	}
	if err := json.Unmarshal(b, &v); err != nil {
		c.log.Warn("cache entry undecodable", "prefix", c.prefix, "err", err)
		return v, false
	}
	return v, true
}

func (c *Redis[V]) Set(ctx context.Context, key string, v V) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache entry unencodable", "prefix", c.prefix, "err", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, b, c.ttl); err != nil {
		c.log.Warn("cache write failed", "prefix", c.prefix, "err", err)
	}
}

func (c *Redis[V]) Clear(ctx context.Context) {
	n, err := c.client.DeletePrefix(ctx, c.prefix)
	if err != nil {
		c.log.Warn("cache clear failed", "prefix", c.prefix, "err", err)
		return
	}
	c.log.Debug("cache cleared", "prefix", c.prefix, "keys", n)
}

func (c *Redis[V]) Size(ctx context.Context) int {
	keys, err := c.client.Keys(ctx, c.prefix)
	if err != nil {
		c.log.Warn("cache size failed", "prefix", c.prefix, "err", err)
		return 0
	}
	return len(keys)
}

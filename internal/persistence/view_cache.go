package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewCache stores computed insight views in Redis. Keys embed a per-scope
// version; invalidation bumps the version so stale entries simply expire.
type ViewCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewViewCache builds a cache. A nil Redis or zero ttl disables caching.
func NewViewCache(r *Redis, prefix string, ttl time.Duration) *ViewCache {
	c := &ViewCache{prefix: prefix, ttl: ttl}
	if r != nil {
		c.client = r.Client
	}
	return c
}

func (c *ViewCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func (c *ViewCache) versionKey(scope string) string {
	return fmt.Sprintf("%s:version:%s", c.prefix, scope)
}

func (c *ViewCache) viewKey(scope string, version int64, view string) string {
	return fmt.Sprintf("%s:view:%s:v%d:%s", c.prefix, scope, version, view)
}

func (c *ViewCache) version(ctx context.Context, scope string) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get decodes a cached view into dst and reports whether it was present.
func (c *ViewCache) Get(ctx context.Context, scope, view string, dst any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	version, err := c.version(ctx, scope)
	if err != nil {
		return false, err
	}
	raw, err := c.client.Get(ctx, c.viewKey(scope, version, view)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached view %s: %w", view, err)
	}
	return true, nil
}

// Set stores a view under the scope's current version.
func (c *ViewCache) Set(ctx context.Context, scope, view string, value any) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode view %s: %w", view, err)
	}
	version, err := c.version(ctx, scope)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.viewKey(scope, version, view), raw, c.ttl).Err()
}

// Invalidate retires every cached view of a scope.
func (c *ViewCache) Invalidate(ctx context.Context, scope string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, c.versionKey(scope)).Err()
}

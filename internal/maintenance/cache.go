package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const ruleCacheKey = "maintenance:rule"

// Cache holds the current rule in Redis for the duration of the poll
// interval. Every request passes through the gate, so the TTL is what
// bounds how fast a rule flip propagates to open sessions; invalidation on
// update makes the instance that served the PATCH converge immediately.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache helper. A nil client disables caching,
// every Fetch then hits the loader.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Fetch loads the cached rule or populates it using the loader. Concurrent
// misses are collapsed into a single loader call.
func (c *Cache) Fetch(ctx context.Context, loader func(context.Context) (Rule, error)) (Rule, error) {
	if loader == nil {
		return Rule{}, errors.New("maintenance: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	raw, err := c.client.Get(ctx, ruleCacheKey).Bytes()
	if err == nil {
		var rule Rule
		if err := json.Unmarshal(raw, &rule); err == nil {
			return rule, nil
		}
		// Corrupt payload: drop it and reload.
		_ = c.client.Del(ctx, ruleCacheKey).Err()
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not decide anyone's access; fall through
		// to the store.
		return loader(ctx)
	}

	result := c.group.DoChan(ruleCacheKey, func() (interface{}, error) {
		rule, err := loader(context.WithoutCancel(ctx))
		if err != nil {
			return Rule{}, err
		}
		if data, err := json.Marshal(rule); err == nil {
			_ = c.client.Set(context.WithoutCancel(ctx), ruleCacheKey, data, c.ttl).Err()
		}
		return rule, nil
	})

	select {
	case <-ctx.Done():
		return Rule{}, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return Rule{}, res.Err
		}
		return res.Val.(Rule), nil
	}
}

// Invalidate drops the cached rule so the next read observes the store.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, ruleCacheKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured propagation bound.
func (c *Cache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheNamespace = "listing"

// Cache stores computed list pages in Redis. Keys embed a per-resource
// version so a single Bump invalidates every cached page of that resource.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client yields a pass-through cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func versionKey(resource string) string {
	return cacheNamespace + ":" + resource + ":version"
}

// Version returns the current cache version of resource, initialising when missing.
func (c *Cache) Version(ctx context.Context, resource string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionKey(resource)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX keeps a concurrent Bump from being overwritten.
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, key, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes a versioned cache key for resource.
func (c *Cache) BuildKey(ctx context.Context, resource string, parts ...string) (string, error) {
	base := strings.Join(append([]string{cacheNamespace, resource}, parts...), ":")
	if c == nil || c.client == nil {
		return base, nil
	}
	ver, err := c.Version(ctx, resource)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", base, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using loader.
// hit reports whether the value came from Redis.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) (hit bool, err error) {
	if loader == nil {
		return false, errors.New("listing: cache loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return false, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return false, err
		}
		return false, json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return true, json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return false, err
	}
	value, err := loader(ctx)
	if err != nil {
		return false, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return false, err
	}
	return false, json.Unmarshal(raw, dest)
}

// Bump invalidates every cached page of resource.
func (c *Cache) Bump(ctx context.Context, resource string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(resource)).Err()
}

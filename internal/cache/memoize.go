package cache

import (
	"context"
	"time"
)

// Memoize reads key through the cache at the given TTL, calling fetch on a
// miss and storing its result before returning it. Concurrent misses on the
// same key are collapsed into a single fetch. Fetch errors are returned as-is
// and nothing is stored.
func Memoize[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key, ttl); ok {
		return v.(T), nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, fresh)
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

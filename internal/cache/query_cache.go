// Package cache memoizes warehouse query results for the lifetime of the
// process, keyed by query identity.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// LoadFunc produces the value for a key on a cache miss.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// QueryCache holds at most size entries. Entries expire after ttl; a zero
// ttl keeps them until Remove or Purge.
type QueryCache[V any] struct {
	entries *expirable.LRU[string, V]
	group   singleflight.Group
	ttl     time.Duration
}

func NewQueryCache[V any](size int, ttl time.Duration) *QueryCache[V] {
	return &QueryCache[V]{
		entries: expirable.NewLRU[string, V](size, nil, ttl),
		ttl:     ttl,
	}
}

func (c *QueryCache[V]) Get(key string) (V, bool) {
	return c.entries.Get(key)
}

func (c *QueryCache[V]) Add(key string, value V) {
	c.entries.Add(key, value)
}

func (c *QueryCache[V]) Remove(key string) {
	c.entries.Remove(key)
}

// Purge drops every entry; the next lookup of any key reloads.
func (c *QueryCache[V]) Purge() {
	c.entries.Purge()
}

func (c *QueryCache[V]) Len() int {
	return c.entries.Len()
}

func (c *QueryCache[V]) TTL() time.Duration {
	return c.ttl
}

// GetOrLoad returns the cached value for key, or runs load once for all
// concurrent callers that miss on the same key. Failed loads are not
// cached. The returned bool reports a cache hit. The shared load runs
// detached from ctx cancellation, so one caller giving up does not fail
// the others; ctx values still reach load.
func (c *QueryCache[V]) GetOrLoad(ctx context.Context, key string, load LoadFunc[V]) (V, bool, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, true, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		v, ok := res.Val.(V)
		if !ok {
			return zero, false, fmt.Errorf("cache: unexpected value type %T for %q", res.Val, key)
		}
		return v, false, nil
	}
}

// Package memo provides a bounded, concurrency-safe memo table.
//
// Lookups hit an LRU first. On a miss, concurrent callers for the same key share
// one computation through singleflight, and the first value stored for a key wins,
// so every caller observes the same value while it stays resident. Errors are
// returned to every waiting caller and never cached.
package memo

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultSize is used when New is given a non-positive size.
const DefaultSize = 1024

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
	Max    int   `json:"max"`
}

// Cache memoizes values of type V by string key.
type Cache[V any] struct {
	lru    *lru.Cache[string, V]
	flight singleflight.Group
	max    int

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache holding at most size entries.
func New[V any](size int) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	l, err := lru.New[string, V](size)
	if err != nil {
		// Only returned for non-positive sizes, excluded above.
		panic(err)
	}
	return &Cache[V]{lru: l, max: size}
}

// Do returns the value cached under key, computing it with fn on a miss.
func (c *Cache[V]) Do(key string, fn func() (V, error)) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	res, err, _ := c.flight.Do(key, func() (any, error) {
		if v, ok := c.lru.Peek(key); ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return v, err
		}
		if prev, ok, _ := c.lru.PeekOrAdd(key, v); ok {
			return prev, nil
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Get returns the cached value without computing anything.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Len returns the number of resident entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// Stats returns a snapshot of the counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.lru.Len(),
		Max:    c.max,
	}
}

// Purge drops every entry and resets the counters.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

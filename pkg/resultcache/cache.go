// Package resultcache memoizes a materialized result set against the criteria
// snapshot it was produced from.
package resultcache

import (
	"sync"

	"github.com/Ramsey-B/fern/pkg/metrics"
)

// Cache holds at most one result. A stored result is only returned while the
// live snapshot equals the one it was stored under.
type Cache[T any] struct {
	mu       sync.RWMutex
	rows     T
	snapshot string
	stored   bool
	hits     int64
	misses   int64
}

func New[T any]() *Cache[T] {
	return &Cache[T]{}
}

// Lookup returns the stored rows if snapshot matches.
func (c *Cache[T]) Lookup(snapshot string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stored && c.snapshot == snapshot {
		c.hits++
		metrics.ResultCacheLookups.WithLabelValues("hit").Inc()
		return c.rows, true
	}

	c.misses++
	metrics.ResultCacheLookups.WithLabelValues("miss").Inc()
	var zero T
	return zero, false
}

// Store replaces the stored result.
func (c *Cache[T]) Store(snapshot string, rows T) {
	c.mu.Lock()
	c.rows = rows
	c.snapshot = snapshot
	c.stored = true
	c.mu.Unlock()
}

// Clear drops the stored result.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	var zero T
	c.rows = zero
	c.snapshot = ""
	c.stored = false
	c.mu.Unlock()
}

// CacheStats returns cache statistics
type CacheStats struct {
	Stored bool
	Hits   int64
	Misses int64
}

func (c *Cache[T]) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Stored: c.stored,
		Hits:   c.hits,
		Misses: c.misses,
	}
}

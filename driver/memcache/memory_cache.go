package memcache

import (
	"sync"
	"time"

	"media-proxy/domain"
	"media-proxy/utils/metrics"
)

// VariantCache is the bounded in-process cache of transcoded image
// variants. Entries expire lazily on read after the configured TTL and are
// evicted by least-recent access when the cache is full.
type VariantCache struct {
	mu         sync.Mutex
	entries    map[string]*domain.ImageVariant
	maxEntries int
	ttl        time.Duration
	stats      domain.CacheStats
	metrics    *metrics.ProxyMetrics

	// now is injectable for TTL tests.
	now func() time.Time
}

// NewVariantCache creates a VariantCache. metrics may be nil (tests).
func NewVariantCache(maxEntries int, ttl time.Duration, m *metrics.ProxyMetrics) *VariantCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &VariantCache{
		entries:    make(map[string]*domain.ImageVariant),
		maxEntries: maxEntries,
		ttl:        ttl,
		metrics:    m,
		now:        time.Now,
	}
}

// Get returns the cached variant for key, or a miss. Expired entries are
// deleted on read; hits touch LastAccessedAt for LRU ordering.
func (c *VariantCache) Get(key string) (*domain.ImageVariant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.recordMiss()
		return nil, false
	}

	if c.now().Sub(entry.CreatedAt) > c.ttl {
		delete(c.entries, key)
		c.recordMiss()
		return nil, false
	}

	entry.LastAccessedAt = c.now()
	c.stats.Hits++
	if c.metrics != nil {
		c.metrics.CacheHits.WithLabelValues("memory").Inc()
	}
	return entry, true
}

// Set stores a variant, evicting the least-recently-accessed entry first
// when at capacity. The eviction-check-then-insert sequence holds the lock
// so concurrent writers cannot both evict.
func (c *VariantCache) Set(key string, variant *domain.ImageVariant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	now := c.now()
	variant.CreatedAt = now
	variant.LastAccessedAt = now
	c.entries[key] = variant
}

func (c *VariantCache) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.LastAccessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastAccessedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
		if c.metrics != nil {
			c.metrics.CacheEvictions.Inc()
		}
	}
}

// DeleteExpired removes every entry past its TTL and returns the count.
// Called by the janitor; correctness does not depend on it because Get
// expires lazily.
func (c *VariantCache) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.CreatedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	c.stats.LastCleanupAt = now
	return removed
}

// Clear drops all entries and resets the counters.
func (c *VariantCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*domain.ImageVariant)
	c.stats = domain.CacheStats{}
}

// Len returns the current entry count.
func (c *VariantCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the running counters.
func (c *VariantCache) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// MemoryUsageBytes returns the aggregate payload size of cached variants.
func (c *VariantCache) MemoryUsageBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, entry := range c.entries {
		total += int64(entry.SizeBytes)
	}
	return total
}

// MaxEntries returns the configured capacity.
func (c *VariantCache) MaxEntries() int {
	return c.maxEntries
}

// SetClock overrides the cache clock. Test hook.
func (c *VariantCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *VariantCache) recordMiss() {
	c.stats.Misses++
	if c.metrics != nil {
		c.metrics.CacheMisses.WithLabelValues("memory").Inc()
	}
}

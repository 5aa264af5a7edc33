package respcache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// LRUCache is a size-bounded response cache backed by ristretto.
type LRUCache struct {
	cache      *ristretto.Cache
	defaultTTL time.Duration
}

// entry wraps a response body with its expiration time; ristretto itself has
// no per-item TTL in the configuration we use.
type entry struct {
	body      []byte
	expiresAt time.Time
}

// NewLRU creates a response cache bounded by maxSizeMB megabytes and
// maxEntries entries.
func NewLRU(maxSizeMB int64, maxEntries int64, defaultTTL time.Duration) (*LRUCache, error) {
	// NumCounters should be ~10x the number of entries per the ristretto docs.
	numCounters := maxEntries * 10
	if numCounters < 1000 {
		numCounters = 1000
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxSizeMB * 1024 * 1024,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &LRUCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}, nil
}

// Get retrieves a cached response body by key.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}

	item, ok := val.(*entry)
	if !ok {
		c.cache.Del(key)
		return nil, false
	}

	if time.Now().After(item.expiresAt) {
		c.cache.Del(key)
		return nil, false
	}

	return item.body, true
}

// Set stores a response body with the given key and TTL.
func (c *LRUCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	item := &entry{
		body:      value,
		expiresAt: time.Now().Add(ttl),
	}

	// Cost is the body size; ristretto evicts by total cost. Set can refuse
	// an item, in which case the next reader just misses.
	_ = c.cache.Set(key, item, int64(len(value)))

	// Wait for the value to pass through the write buffer.
	c.cache.Wait()
}

// Delete removes a cached response.
func (c *LRUCache) Delete(key string) {
	c.cache.Del(key)
}

// Clear removes all cached responses.
func (c *LRUCache) Clear() {
	c.cache.Clear()
}

// Stats returns cache statistics.
func (c *LRUCache) Stats() Stats {
	m := c.cache.Metrics
	return Stats{
		Hits:      m.Hits(),
		Misses:    m.Misses(),
		KeysAdded: m.KeysAdded(),
		Evictions: m.KeysEvicted(),
		Size:      int64(m.CostAdded() - m.CostEvicted()),
		Items:     int64(m.KeysAdded() - m.KeysEvicted()),
	}
}

// Close releases the cache resources.
func (c *LRUCache) Close() {
	c.cache.Close()
}

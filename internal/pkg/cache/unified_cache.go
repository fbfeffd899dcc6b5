package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// CacheMetrics is a point-in-time snapshot of cache performance
type CacheMetrics struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// UnifiedCache is a generic cache that works with any type
type UnifiedCache[T any] struct {
	mu    sync.RWMutex
	items map[string]cacheEntry[T]
	ttl   time.Duration
	name  string // For logging/debugging
	// Counters are atomic so concurrent readers under RLock stay race-free
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	logger *zap.Logger
}

type cacheEntry[T any] struct {
	value      T
	expiration int64
}

// NewUnifiedCache creates a new generic cache with specified TTL and name
func NewUnifiedCache[T any](ttl time.Duration, name string, logger *zap.Logger) *UnifiedCache[T] {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if none provided
	}
	c := &UnifiedCache[T]{
		items:  make(map[string]cacheEntry[T]),
		ttl:    ttl,
		name:   name,
		logger: logger,
	}
	go c.cleanup()
	return c
}

// Set stores an item in the cache with the given key
func (c *UnifiedCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheEntry[T]{
		value:      value,
		expiration: time.Now().Add(c.ttl).UnixNano(),
	}
	c.sets.Add(1)

	c.logger.Debug("Cache set",
		zap.String("cache", c.name),
		zap.String("key", key),
		zap.Duration("ttl", c.ttl),
	)
}

// Get retrieves an item from the cache
func (c *UnifiedCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found {
		c.misses.Add(1)
		var zero T
		c.logger.Debug("Cache miss",
			zap.String("cache", c.name),
			zap.String("key", key),
		)
		return zero, false
	}

	// Check if expired
	if time.Now().UnixNano() > item.expiration {
		c.misses.Add(1)
		var zero T
		c.logger.Debug("Cache expired",
			zap.String("cache", c.name),
			zap.String("key", key),
		)
		return zero, false
	}

	c.hits.Add(1)
	c.logger.Debug("Cache hit",
		zap.String("cache", c.name),
		zap.String("key", key),
	)
	return item.value, true
}

// Delete removes an item from the cache
func (c *UnifiedCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	c.logger.Debug("Cache delete",
		zap.String("cache", c.name),
		zap.String("key", key),
	)
}

// Clear removes all items from the cache
func (c *UnifiedCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheEntry[T])
	c.logger.Info("Cache cleared",
		zap.String("cache", c.name),
	)
}

// GetMetrics returns current cache metrics
func (c *UnifiedCache[T]) GetMetrics() CacheMetrics {
	return CacheMetrics{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
}

// Size returns the number of items in the cache
func (c *UnifiedCache[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// cleanup runs periodically to remove expired items
func (c *UnifiedCache[T]) cleanup() {
	ticker := time.NewTicker(c.ttl / 2) // Run cleanup twice per TTL period
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now().UnixNano()
		expiredCount := 0

		for key, item := range c.items {
			if now > item.expiration {
				delete(c.items, key)
				expiredCount++
			}
		}

		if expiredCount > 0 {
			c.logger.Info("Cache cleanup",
				zap.String("cache", c.name),
				zap.Int("expired_items", expiredCount),
				zap.Int("remaining_items", len(c.items)),
			)
		}
		c.mu.Unlock()
	}
}

// CacheKeyBuilder helps build consistent cache keys
type CacheKeyBuilder struct {
	components []interface{}
	logger     *zap.Logger
}

// NewCacheKeyBuilder creates a new cache key builder
func NewCacheKeyBuilder(logger *zap.Logger) *CacheKeyBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheKeyBuilder{
		components: make([]interface{}, 0, 8),
		logger:     logger,
	}
}

// Add adds a component to the cache key
func (b *CacheKeyBuilder) Add(key string, value interface{}) *CacheKeyBuilder {
	b.components = append(b.components, map[string]interface{}{key: value})
	return b
}

// AddProvince adds the trip province to the cache key
func (b *CacheKeyBuilder) AddProvince(province string) *CacheKeyBuilder {
	return b.Add("province", province)
}

// AddSource adds a candidate source fingerprint to the cache key
func (b *CacheKeyBuilder) AddSource(source string) *CacheKeyBuilder {
	return b.Add("source", source)
}

// AddDateRange adds the trip date range to the cache key
func (b *CacheKeyBuilder) AddDateRange(start, end string) *CacheKeyBuilder {
	return b.Add("start", start).Add("end", end)
}

// AddClusterConfig adds the ranker configuration to the cache key
func (b *CacheKeyBuilder) AddClusterConfig(numClusters, maxIterations int) *CacheKeyBuilder {
	return b.Add("clusters", numClusters).Add("max_iter", maxIterations)
}

// Build generates the final cache key as an MD5 hash
func (b *CacheKeyBuilder) Build() (string, error) {
	// Marshal components to JSON for consistent hashing
	jsonBytes, err := json.Marshal(b.components)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key components: %w", err)
	}

	// Generate MD5 hash
	hash := md5.Sum(jsonBytes)
	key := hex.EncodeToString(hash[:])

	b.logger.Debug("Cache key built",
		zap.String("key", key),
		zap.String("components", string(jsonBytes)),
	)

	return key, nil
}

// BuildOrDefault builds the cache key, returns empty string on error
func (b *CacheKeyBuilder) BuildOrDefault() string {
	key, err := b.Build()
	if err != nil {
		b.logger.Error("Failed to build cache key", zap.Error(err))
		return ""
	}
	return key
}

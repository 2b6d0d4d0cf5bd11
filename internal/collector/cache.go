package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"StockForecast/internal/model"
)

// SeriesCache stores fetched series under an explicit (symbol, period) key.
type SeriesCache interface {
	Get(ctx context.Context, key string) ([]model.OHLCV, bool, error)
	Set(ctx context.Context, key string, bars []model.OHLCV, ttl time.Duration) error
}

// CacheKey builds the cache key for a symbol and period.
func CacheKey(symbol, period string) string {
	return fmt.Sprintf("series:%s:%s", symbol, period)
}

type memEntry struct {
	bars    []model.OHLCV
	expires time.Time
	added   time.Time
}

// MemoryCache is an in-process SeriesCache with TTL and a maximum entry count.
// When full, the oldest entry is evicted.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memEntry
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache creates a MemoryCache. maxEntries <= 0 means unbounded.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]memEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]model.OHLCV, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.bars, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, bars []model.OHLCV, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	e := memEntry{bars: bars, added: now}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Len returns the number of cached entries, including expired ones not yet evicted.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.added.Before(oldest) {
			oldestKey, oldest = k, e.added
		}
	}
	delete(c.entries, oldestKey)
}

// CacheObserver is notified about cache lookups.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

// CachedFetcher wraps a Fetcher with a SeriesCache. Cache errors are logged and
// treated as misses; only the wrapped fetcher's errors are returned.
type CachedFetcher struct {
	Fetcher  Fetcher
	Cache    SeriesCache
	TTL      time.Duration
	Observer CacheObserver
}

// NewCachedFetcher creates a CachedFetcher.
func NewCachedFetcher(f Fetcher, c SeriesCache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{Fetcher: f, Cache: c, TTL: ttl}
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() + "+cache" }

func (c *CachedFetcher) Fetch(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	key := CacheKey(symbol, period)
	bars, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		log.Printf("[WARN] series cache get %s: %v", key, err)
	}
	if ok {
		c.hit()
		return bars, nil
	}
	c.miss()

	bars, err = c.Fetcher.Fetch(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := c.Cache.Set(ctx, key, bars, c.TTL); err != nil {
			log.Printf("[WARN] series cache set %s: %v", key, err)
		}
	}
	return bars, nil
}

func (c *CachedFetcher) hit() {
	if c.Observer != nil {
		c.Observer.CacheHit()
	}
}

func (c *CachedFetcher) miss() {
	if c.Observer != nil {
		c.Observer.CacheMiss()
	}
}

package cache

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ggorockee/storemaps/internal/logger"
	"github.com/ggorockee/storemaps/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// DefaultMaxEntries 캐시 최대 엔트리 수
	DefaultMaxEntries = 1000
	// DefaultTTL 기본 엔트리 수명
	DefaultTTL = 24 * time.Hour
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storemaps_result_cache_hits_total",
		Help: "Total number of result cache hits",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storemaps_result_cache_misses_total",
		Help: "Total number of result cache misses",
	})
	cacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storemaps_result_cache_evictions_total",
		Help: "Total number of result cache evictions",
	})
	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storemaps_result_cache_entries",
		Help: "Current number of live result cache entries",
	})
)

// entry is one cached result set. The key components are kept denormalized
// so PopularSearches can display them.
type entry struct {
	stores   []models.Store
	query    string
	location string
	category string

	createdAt   time.Time
	expiresAt   time.Time
	accessCount int
}

// ResultCache is an in-process, time- and size-bounded cache of search
// results keyed by normalized (query, location, category). Identical
// searches differing only in case or surrounding whitespace share an entry.
//
// Eviction ranks entries by ascending (accessCount, createdAt): durably
// popular queries survive a burst of one-off ones. There is no single-flight
// coalescing; two concurrent misses on the same key may both fetch and both
// Set (last write wins).
type ResultCache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int
	defaultTTL time.Duration

	hits   uint64
	misses uint64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	TotalEntries int     `json:"total_entries"`
	TotalHits    uint64  `json:"total_hits"`
	TotalMisses  uint64  `json:"total_misses"`
	HitRate      float64 `json:"hit_rate"`
	MemoryUsage  int64   `json:"memory_usage_bytes"`
}

// PopularSearch is one entry of the popularity ranking, for display only.
type PopularSearch struct {
	Query       string    `json:"query"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	AccessCount int       `json:"access_count"`
	ResultCount int       `json:"result_count"`
	LastAccess  time.Time `json:"last_access"`
}

// New creates a ResultCache. maxEntries <= 0 and ttl <= 0 fall back to the
// package defaults. The cache is constructed and injected explicitly; there
// is no package-level instance.
func New(maxEntries int, defaultTTL time.Duration) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &ResultCache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
	}
}

// Key returns the canonical cache key for (query, location, category).
// Components are lower-cased and trimmed; an absent category is the empty
// string.
func Key(query, location, category string) string {
	return normalize(query) + "|" + normalize(location) + "|" + normalize(category)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Get returns the cached result set for the normalized key, or (nil, false)
// on miss. An expired entry counts as a miss and is deleted on the spot. A
// hit bumps the entry's access count and refreshes its recency timestamp.
func (c *ResultCache) Get(query, location, category string) ([]models.Store, bool) {
	key := Key(query, location, category)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		cacheMissesTotal.Inc()
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		cacheEntries.Set(float64(len(c.entries)))
		c.misses++
		cacheMissesTotal.Inc()
		return nil, false
	}

	e.accessCount++
	e.createdAt = time.Now()
	c.hits++
	cacheHitsTotal.Inc()

	// Callers re-rank results in place; hand out a copy so the cached
	// payload stays untouched.
	out := make([]models.Store, len(e.stores))
	copy(out, e.stores)
	return out, true
}

// Has reports whether a live entry exists for the key without touching any
// statistics.
func (c *ResultCache) Has(query, location, category string) bool {
	key := Key(query, location, category)

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && !time.Now().After(e.expiresAt)
}

// Set stores a result set under the normalized key. ttl <= 0 means the
// default TTL. At capacity the bottom 20% of entries by ascending
// (accessCount, createdAt) are evicted first; Set never fails.
func (c *ResultCache) Set(query, location, category string, stores []models.Store, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	key := Key(query, location, category)
	now := time.Now()

	// Own the payload: callers keep using (and mutating) their slice after
	// Set returns, and write-back touches the same structs.
	owned := make([]models.Store, len(stores))
	copy(owned, stores)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}

	c.entries[key] = &entry{
		stores:      owned,
		query:       query,
		location:    location,
		category:    category,
		createdAt:   now,
		expiresAt:   now.Add(ttl),
		accessCount: 1,
	}
	cacheEntries.Set(float64(len(c.entries)))
}

// evictLocked removes the least valuable 20% of entries. Caller holds mu.
func (c *ResultCache) evictLocked() {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := c.entries[keys[i]], c.entries[keys[j]]
		if a.accessCount != b.accessCount {
			return a.accessCount < b.accessCount
		}
		return a.createdAt.Before(b.createdAt)
	})

	n := len(keys) / 5
	if n < 1 {
		n = 1
	}
	for _, k := range keys[:n] {
		delete(c.entries, k)
		cacheEvictionsTotal.Inc()
	}
}

// Delete removes the entry for the key, reporting whether one existed.
func (c *ResultCache) Delete(query, location, category string) bool {
	key := Key(query, location, category)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
		cacheEntries.Set(float64(len(c.entries)))
	}
	return ok
}

// Clear wipes all entries and resets the hit/miss counters in one step.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.hits = 0
	c.misses = 0
	cacheEntries.Set(0)
}

// Cleanup eagerly removes expired entries and returns how many were
// dropped. Correctness does not depend on it (Get expires lazily); it only
// reclaims memory.
func (c *ResultCache) Cleanup() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	cacheEntries.Set(float64(len(c.entries)))
	return removed
}

// StartCleanupLoop runs Cleanup on a fixed interval until ctx is done.
// Intended to be launched from main as a background goroutine.
func (c *ResultCache) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	log := logger.GetLogger("cache")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Cleanup(); removed > 0 {
				log.Infof("cache cleanup removed %d expired entries", removed)
			}
		}
	}
}

// Stats returns a snapshot of the cache counters. HitRate is a percentage
// rounded to two decimals; MemoryUsage is a rough byte estimate.
func (c *ResultCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = math.Round(float64(c.hits)/float64(total)*100*100) / 100
	}

	var mem int64
	for _, e := range c.entries {
		mem += entrySizeEstimate(e)
	}

	return Stats{
		TotalEntries: len(c.entries),
		TotalHits:    c.hits,
		TotalMisses:  c.misses,
		HitRate:      hitRate,
		MemoryUsage:  mem,
	}
}

// entrySizeEstimate approximates the in-memory footprint of one entry.
// Ballpark only, used for the admin stats view.
func entrySizeEstimate(e *entry) int64 {
	size := int64(128) // struct + map overhead
	size += int64(len(e.query) + len(e.location) + len(e.category))
	for i := range e.stores {
		s := &e.stores[i]
		size += 256
		size += int64(len(s.Name) + len(s.Address) + len(s.Category) + len(s.StoreType))
		if s.Description != nil {
			size += int64(len(*s.Description))
		}
		if s.Tags != nil {
			size += int64(len(*s.Tags))
		}
	}
	return size
}

// PopularSearches returns the top entries by access count, most accessed
// first. Ties go to the more recently touched entry.
func (c *ResultCache) PopularSearches(limit int) []PopularSearch {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	out := make([]PopularSearch, 0, len(c.entries))
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			continue
		}
		out = append(out, PopularSearch{
			Query:       e.query,
			Location:    e.location,
			Category:    e.category,
			AccessCount: e.accessCount,
			ResultCount: len(e.stores),
			LastAccess:  e.createdAt,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AccessCount != out[j].AccessCount {
			return out[i].AccessCount > out[j].AccessCount
		}
		return out[i].LastAccess.After(out[j].LastAccess)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

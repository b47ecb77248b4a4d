package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ggorockee/storemaps/internal/models"
)

func storeList(n int) []models.Store {
	stores := make([]models.Store, n)
	for i := range stores {
		stores[i] = models.Store{
			Name:     fmt.Sprintf("Store %d", i),
			Category: "grocery",
			Address:  "123 Main St",
			Country:  "USA",
			Source:   models.SourceDatabase,
		}
	}
	return stores
}

func TestKeyNormalization(t *testing.T) {
	tests := []struct {
		name string
		a    [3]string
		b    [3]string
	}{
		{"case and whitespace", [3]string{"  Pizza ", " New York", "Food "}, [3]string{"pizza", "new york", "food"}},
		{"absent category equals empty", [3]string{"pizza", "nyc", ""}, [3]string{"Pizza", "NYC", "  "}},
		{"already normalized", [3]string{"pizza", "nyc", "food"}, [3]string{"pizza", "nyc", "food"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := Key(tt.a[0], tt.a[1], tt.a[2])
			kb := Key(tt.b[0], tt.b[1], tt.b[2])
			if ka != kb {
				t.Errorf("Key(%v)=%q != Key(%v)=%q", tt.a, ka, tt.b, kb)
			}
		})
	}

	if Key("pizza", "nyc", "") == Key("pizza", "nyc", "food") {
		t.Error("distinct categories must produce distinct keys")
	}
}

func TestSetAndGet(t *testing.T) {
	c := New(10, time.Minute)

	stores := storeList(3)
	c.Set("Pizza", "NYC", "food", stores, 0)

	got, ok := c.Get("  pizza ", "nyc", "FOOD")
	if !ok {
		t.Fatal("expected hit for normalized-equal key")
	}
	if len(got) != 3 {
		t.Errorf("expected 3 stores, got %d", len(got))
	}
}

func TestPayloadIsolation(t *testing.T) {
	c := New(10, time.Minute)

	in := storeList(2)
	c.Set("pizza", "nyc", "", in, 0)

	// Mutating the caller's slice after Set must not reach the cache.
	in[0].Name = "changed after set"

	got, ok := c.Get("pizza", "nyc", "")
	if !ok {
		t.Fatal("expected hit")
	}
	if got[0].Name != "Store 0" {
		t.Errorf("cached payload aliases the caller's slice: got %q", got[0].Name)
	}

	// Mutating a returned slice must not reach the cache either.
	got[0].Name = "changed after get"
	again, _ := c.Get("pizza", "nyc", "")
	if again[0].Name != "Store 0" {
		t.Errorf("cached payload aliases a returned slice: got %q", again[0].Name)
	}
}

func TestGetMiss(t *testing.T) {
	c := New(10, time.Minute)

	if _, ok := c.Get("nothing", "nowhere", ""); ok {
		t.Error("expected miss on empty cache")
	}

	stats := c.Stats()
	if stats.TotalMisses != 1 || stats.TotalHits != 0 {
		t.Errorf("expected 0 hits / 1 miss, got %d / %d", stats.TotalHits, stats.TotalMisses)
	}
}

func TestExpiry(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("pizza", "nyc", "", storeList(1), 50*time.Millisecond)

	if _, ok := c.Get("pizza", "nyc", ""); !ok {
		t.Fatal("expected hit before TTL elapsed")
	}

	time.Sleep(70 * time.Millisecond)

	if _, ok := c.Get("pizza", "nyc", ""); ok {
		t.Error("expected miss after TTL elapsed")
	}
	if c.Stats().TotalEntries != 0 {
		t.Error("expired entry should have been lazily deleted")
	}
}

func TestHasDoesNotMutateStats(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("pizza", "nyc", "", storeList(1), 0)

	if !c.Has("pizza", "nyc", "") {
		t.Fatal("expected Has to report the entry")
	}
	if c.Has("burger", "nyc", "") {
		t.Error("expected Has to report miss")
	}

	stats := c.Stats()
	if stats.TotalHits != 0 || stats.TotalMisses != 0 {
		t.Errorf("Has must not touch counters, got %d hits / %d misses", stats.TotalHits, stats.TotalMisses)
	}
}

func TestCapacityEviction(t *testing.T) {
	c := New(10, time.Minute)

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("query-%d", i), "nyc", "", storeList(1), 0)
	}

	// Touch everything except query-3 and query-7 so those two rank lowest
	// by access count.
	for i := 0; i < 10; i++ {
		if i == 3 || i == 7 {
			continue
		}
		c.Get(fmt.Sprintf("query-%d", i), "nyc", "")
	}

	// Inserting one more key must never fail and must evict the bottom 20%.
	c.Set("query-new", "nyc", "", storeList(1), 0)

	if got := c.Stats().TotalEntries; got > 10 {
		t.Errorf("cache grew past capacity: %d entries", got)
	}
	if c.Has("query-3", "nyc", "") || c.Has("query-7", "nyc", "") {
		t.Error("least-accessed entries should have been evicted")
	}
	if !c.Has("query-new", "nyc", "") {
		t.Error("newly inserted entry missing after eviction")
	}
	if !c.Has("query-0", "nyc", "") {
		t.Error("popular entry should have survived eviction")
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("q%d", i), "nyc", "", storeList(1), 0)
	}

	// Overwriting an existing key at capacity must not trigger eviction.
	c.Set("q1", "nyc", "", storeList(2), 0)

	if c.Stats().TotalEntries != 3 {
		t.Errorf("expected 3 entries after overwrite, got %d", c.Stats().TotalEntries)
	}
	got, ok := c.Get("q1", "nyc", "")
	if !ok || len(got) != 2 {
		t.Error("overwrite should replace the payload")
	}
}

func TestStatsHitRate(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("pizza", "nyc", "", storeList(1), 0)

	c.Get("pizza", "nyc", "")
	c.Get("pizza", "nyc", "")
	c.Get("pizza", "nyc", "")
	c.Get("missing", "nyc", "")

	stats := c.Stats()
	if stats.TotalHits != 3 || stats.TotalMisses != 1 {
		t.Fatalf("expected 3 hits / 1 miss, got %d / %d", stats.TotalHits, stats.TotalMisses)
	}
	if stats.HitRate != 75.0 {
		t.Errorf("expected hit rate 75.00, got %v", stats.HitRate)
	}
	if stats.MemoryUsage <= 0 {
		t.Error("expected a positive memory estimate")
	}
}

func TestClear(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("pizza", "nyc", "", storeList(1), 0)
	c.Get("pizza", "nyc", "")
	c.Get("missing", "nyc", "")

	c.Clear()

	stats := c.Stats()
	if stats.TotalEntries != 0 || stats.TotalHits != 0 || stats.TotalMisses != 0 {
		t.Errorf("Clear must wipe entries and counters, got %+v", stats)
	}
}

func TestDelete(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("pizza", "nyc", "", storeList(1), 0)

	if !c.Delete("Pizza", "NYC", "") {
		t.Error("expected Delete to report an existing entry")
	}
	if c.Delete("pizza", "nyc", "") {
		t.Error("expected Delete to report a missing entry")
	}
}

func TestCleanup(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("short", "nyc", "", storeList(1), 30*time.Millisecond)
	c.Set("long", "nyc", "", storeList(1), time.Minute)

	time.Sleep(50 * time.Millisecond)

	if removed := c.Cleanup(); removed != 1 {
		t.Errorf("expected 1 removed entry, got %d", removed)
	}
	if !c.Has("long", "nyc", "") {
		t.Error("live entry must survive cleanup")
	}
}

func TestPopularSearches(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("pizza", "nyc", "food", storeList(2), 0)
	c.Set("burger", "la", "", storeList(1), 0)

	for i := 0; i < 5; i++ {
		c.Get("pizza", "nyc", "food")
	}
	c.Get("burger", "la", "")
	c.Get("burger", "la", "")

	top := c.PopularSearches(1)
	if len(top) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(top))
	}
	if top[0].Query != "pizza" || top[0].Location != "nyc" || top[0].Category != "food" {
		t.Errorf("expected pizza/nyc/food on top, got %+v", top[0])
	}
	if top[0].ResultCount != 2 {
		t.Errorf("expected result count 2, got %d", top[0].ResultCount)
	}

	all := c.PopularSearches(0)
	if len(all) != 2 {
		t.Errorf("limit 0 should return everything, got %d", len(all))
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("q%d", j%20)
				c.Set(key, "nyc", "", storeList(1), 0)
				c.Get(key, "nyc", "")
				if j%50 == 0 {
					c.Cleanup()
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Stats().TotalEntries > 100 {
		t.Errorf("cache exceeded capacity under concurrency: %d", c.Stats().TotalEntries)
	}
}

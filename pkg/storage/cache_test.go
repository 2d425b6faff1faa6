package storage

import (
	"testing"
	"time"

	"github.com/vjranagit/graphcalc/pkg/types"
)

func testPoints(n int) []types.Point {
	points := make([]types.Point, n)
	for i := range points {
		x := float64(i) * 0.1
		y := x * x
		points[i] = types.Point{X: x, Y: &y}
	}
	return points
}

func newTestCache(t *testing.T, capacity int, ttl time.Duration) *SeriesCache {
	t.Helper()
	comp, err := NewCompressor(1)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	t.Cleanup(comp.Close)
	return NewSeriesCache(capacity, ttl, comp)
}

func TestSeriesCache(t *testing.T) {
	cache := newTestCache(t, 10, time.Minute)
	key := CacheKey{Equation: "y = x^2", Family: types.Quadratic, Domain: types.Range{Min: -10, Max: 10}, Step: 0.1}

	if _, ok := cache.Get(key); ok {
		t.Error("Expected cache miss, got hit")
	}

	if err := cache.Put(key, testPoints(50)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	points, ok := cache.Get(key)
	if !ok {
		t.Fatal("Expected cache hit, got miss")
	}
	if len(points) != 50 {
		t.Fatalf("Expected 50 points, got %d", len(points))
	}
	if *points[49].Y != *testPoints(50)[49].Y {
		t.Errorf("Expected y %f, got %f", *testPoints(50)[49].Y, *points[49].Y)
	}

	// a different step is a different sampling
	other := key
	other.Step = 0.2
	if _, ok := cache.Get(other); ok {
		t.Error("Expected miss for a different step")
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Errorf("Expected 1 hit and 2 misses, got %d and %d", stats.Hits, stats.Misses)
	}
	if stats.HitRate() < 33 || stats.HitRate() > 34 {
		t.Errorf("Unexpected hit rate %f", stats.HitRate())
	}
}

func TestSeriesCacheTTL(t *testing.T) {
	cache := newTestCache(t, 10, time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	key := CacheKey{Equation: "y = x", Family: types.Linear}
	if err := cache.Put(key, testPoints(3)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if stats := cache.Stats(); stats.Expired != 1 {
		t.Errorf("Expected 1 expired entry, got %d", stats.Expired)
	}
	if _, ok := cache.Get(key); ok {
		t.Error("Expected cache miss after TTL expiration")
	}
	if cache.Size() != 0 {
		t.Errorf("Expected expired entry to be dropped, size %d", cache.Size())
	}
}

func TestSeriesCacheLRUEviction(t *testing.T) {
	cache := newTestCache(t, 2, time.Minute)

	keys := []CacheKey{
		{Equation: "y = x", Family: types.Linear},
		{Equation: "y = x^2", Family: types.Quadratic},
		{Equation: "y = x^3", Family: types.Polynomial},
	}

	cache.Put(keys[0], testPoints(1))
	cache.Put(keys[1], testPoints(1))
	// touch the first key so the second becomes least recently used
	cache.Get(keys[0])
	cache.Put(keys[2], testPoints(1))

	if cache.Size() != 2 {
		t.Errorf("Expected size 2, got %d", cache.Size())
	}
	if _, ok := cache.Get(keys[1]); ok {
		t.Error("Expected least recently used entry to be evicted")
	}
	if _, ok := cache.Get(keys[0]); !ok {
		t.Error("Expected recently used entry to survive")
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d", cache.Size())
	}
}

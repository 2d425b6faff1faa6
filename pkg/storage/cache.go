package storage

import (
	"container/list"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/vjranagit/graphcalc/pkg/types"
)

// CacheKey identifies one sampling of an equation
type CacheKey struct {
	Equation  string
	Family    types.Family
	Domain    types.Range
	Step      float64
	ThetaStep float64
}

func (k CacheKey) hash() uint64 {
	d := xxhash.New()
	d.WriteString(k.Equation)
	d.Write([]byte{0})
	d.WriteString(string(k.Family))
	d.Write([]byte{0})
	var buf [8]byte
	for _, f := range []float64{k.Domain.Min, k.Domain.Max, k.Step, k.ThetaStep} {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		d.Write(buf[:])
	}
	return d.Sum64()
}

// SeriesCache is an LRU cache of sampled points with a TTL. Points are
// held zstd-compressed.
type SeriesCache struct {
	capacity   int
	ttl        time.Duration
	compressor *Compressor
	mu         sync.Mutex
	cache      map[uint64]*cacheEntry
	lru        *list.List
	hits       uint64
	misses     uint64
	now        func() time.Time
}

type cacheEntry struct {
	hash      uint64
	key       CacheKey
	payload   []byte
	timestamp time.Time
	element   *list.Element
}

// CacheStats contains cache statistics
type CacheStats struct {
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
	Expired  int    `json:"expired"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

// HitRate returns hits as a percentage of lookups
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

// NewSeriesCache creates a new series cache
func NewSeriesCache(capacity int, ttl time.Duration, compressor *Compressor) *SeriesCache {
	return &SeriesCache{
		capacity:   capacity,
		ttl:        ttl,
		compressor: compressor,
		cache:      make(map[uint64]*cacheEntry),
		lru:        list.New(),
		now:        time.Now,
	}
}

// Get returns the cached points for key
func (c *SeriesCache) Get(key CacheKey) ([]types.Point, bool) {
	c.mu.Lock()
	h := key.hash()
	entry, exists := c.cache[h]
	if !exists || entry.key != key {
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	if c.expired(entry) {
		c.removeLocked(h)
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	payload := entry.payload
	c.mu.Unlock()

	points, err := c.compressor.DecompressPoints(payload)
	if err != nil {
		c.mu.Lock()
		c.removeLocked(h)
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return points, true
}

// Put stores points under key, evicting the least recently used entry
// when the cache is full
func (c *SeriesCache) Put(key CacheKey, points []types.Point) error {
	payload, err := c.compressor.CompressPoints(points)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	h := key.hash()
	if entry, exists := c.cache[h]; exists {
		entry.key = key
		entry.payload = payload
		entry.timestamp = c.now()
		c.lru.MoveToFront(entry.element)
		return nil
	}

	entry := &cacheEntry{
		hash:      h,
		key:       key,
		payload:   payload,
		timestamp: c.now(),
	}
	entry.element = c.lru.PushFront(entry)
	c.cache[h] = entry

	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		c.removeLocked(oldest.Value.(*cacheEntry).hash)
	}
	return nil
}

func (c *SeriesCache) expired(entry *cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(entry.timestamp) > c.ttl
}

// removeLocked removes an entry from the cache (must hold lock)
func (c *SeriesCache) removeLocked(h uint64) {
	if entry, exists := c.cache[h]; exists {
		c.lru.Remove(entry.element)
		delete(c.cache, h)
	}
}

// Clear clears all cache entries
func (c *SeriesCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[uint64]*cacheEntry)
	c.lru = list.New()
}

// Size returns the current cache size
func (c *SeriesCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Stats returns cache statistics
func (c *SeriesCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	expired := 0
	for _, entry := range c.cache {
		if c.expired(entry) {
			expired++
		}
	}

	return CacheStats{
		Size:     len(c.cache),
		Capacity: c.capacity,
		Expired:  expired,
		Hits:     c.hits,
		Misses:   c.misses,
	}
}

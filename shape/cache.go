package shape

import (
	"encoding/binary"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/merenut/QuantaTerm/font"
	"github.com/merenut/QuantaTerm/internal/lru"
)

const (
	// shardCount must be a power of two so shard selection reduces to a
	// bitwise AND.
	shardCount = 16
	shardMask  = shardCount - 1

	// DefaultCacheCapacity is the per-shard shaped-line capacity.
	DefaultCacheCapacity = 256
)

// cacheKey identifies one shaped line. Everything that changes the
// shaping result is part of the key.
type cacheKey struct {
	textHash  uint64
	font      font.Key
	ligatures bool
	features  uint64
}

func newCacheKey(text string, key font.Key, ligatures bool, features uint64) cacheKey {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return cacheKey{textHash: h.Sum64(), font: key, ligatures: ligatures, features: features}
}

// hashFeatures folds OpenType feature toggles into one key component.
// The configuration order is canonical, so order changes rehash.
func hashFeatures(features []font.Feature) uint64 {
	if len(features) == 0 {
		return 0
	}
	h := fnv.New64a()
	var v [4]byte
	for _, f := range features {
		_, _ = h.Write([]byte(f.Tag))
		binary.LittleEndian.PutUint32(v[:], f.Value)
		_, _ = h.Write(v[:])
	}
	return h.Sum64()
}

// shard mixes the text hash with the size so lines of one font spread
// across shards.
func (k cacheKey) shard() uint64 {
	return (k.textHash ^ uint64(uint32(k.font.Size64))*0x9E3779B97F4A7C15) & shardMask
}

// lineCache is a sharded LRU cache of shaped lines. Each shard holds
// its own lock so rows shaped from different goroutines rarely contend.
type lineCache struct {
	shards   [shardCount]*lineShard
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type lineShard struct {
	mu      sync.Mutex
	entries map[cacheKey]*lineEntry
	recency *lru.List[cacheKey]
}

type lineEntry struct {
	line *Line
	node *lru.Node[cacheKey]
}

func newLineCache(capacity int) *lineCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &lineCache{capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &lineShard{
			entries: make(map[cacheKey]*lineEntry),
			recency: lru.New[cacheKey](),
		}
	}
	return c
}

func (c *lineCache) Get(key cacheKey) (*Line, bool) {
	shard := c.shards[key.shard()]

	shard.mu.Lock()
	entry, ok := shard.entries[key]
	if ok {
		shard.recency.MoveToFront(entry.node)
	}
	shard.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.line, true
}

func (c *lineCache) Set(key cacheKey, line *Line) {
	if line == nil {
		return
	}
	shard := c.shards[key.shard()]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if entry, ok := shard.entries[key]; ok {
		entry.line = line
		shard.recency.MoveToFront(entry.node)
		return
	}

	for shard.recency.Len() >= c.capacity {
		oldest, ok := shard.recency.RemoveOldest()
		if !ok {
			break
		}
		delete(shard.entries, oldest)
		c.evictions.Add(1)
	}

	node := shard.recency.PushFront(key)
	shard.entries[key] = &lineEntry{line: line, node: node}
}

// Len returns the number of cached lines across all shards.
func (c *lineCache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		total += len(shard.entries)
		shard.mu.Unlock()
	}
	return total
}

// Clear drops every cached line. Statistics are kept.
func (c *lineCache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.entries = make(map[cacheKey]*lineEntry)
		shard.recency.Clear()
		shard.mu.Unlock()
	}
}

// CacheStats is a snapshot of shaped-line cache counters.
type CacheStats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

func (c *lineCache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return CacheStats{
		Len:       c.Len(),
		Capacity:  c.capacity * shardCount,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   rate,
	}
}

package shape

import (
	"fmt"
	"testing"

	"github.com/merenut/QuantaTerm/font"
)

func TestLineCache_GetSet(t *testing.T) {
	c := newLineCache(0)
	key := newCacheKey("row", testKey(), false, 0)

	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache should miss")
	}

	line := &Line{Width: 42}
	c.Set(key, line)

	got, ok := c.Get(key)
	if !ok || got != line {
		t.Fatal("cache should return the stored line")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Len != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 entry", stats)
	}
}

func TestLineCache_KeyDistinguishesLigatures(t *testing.T) {
	c := newLineCache(0)

	plain := newCacheKey("a->b", testKey(), false, 0)
	liga := newCacheKey("a->b", testKey(), true, 0)
	c.Set(plain, &Line{Width: 4})

	if _, ok := c.Get(liga); ok {
		t.Error("ligature setting must be part of the key")
	}
}

func TestLineCache_KeyDistinguishesFeatures(t *testing.T) {
	c := newLineCache(0)

	none := newCacheKey("0x1p-3", testKey(), false, 0)
	zero := newCacheKey("0x1p-3", testKey(), false, hashFeatures([]font.Feature{{Tag: "zero", Value: 1}}))
	c.Set(none, &Line{Width: 6})

	if _, ok := c.Get(zero); ok {
		t.Error("feature settings must be part of the key")
	}
}

func TestHashFeatures(t *testing.T) {
	if got := hashFeatures(nil); got != 0 {
		t.Errorf("no features should hash to zero, got %d", got)
	}
	a := hashFeatures([]font.Feature{{Tag: "calt", Value: 1}})
	b := hashFeatures([]font.Feature{{Tag: "calt", Value: 0}})
	if a == b {
		t.Error("feature value must change the hash")
	}
	if a != hashFeatures([]font.Feature{{Tag: "calt", Value: 1}}) {
		t.Error("hash must be deterministic")
	}
}

func TestLineCache_UpdateExisting(t *testing.T) {
	c := newLineCache(0)
	key := newCacheKey("row", testKey(), false, 0)

	c.Set(key, &Line{Width: 1})
	replacement := &Line{Width: 2}
	c.Set(key, replacement)

	got, _ := c.Get(key)
	if got != replacement {
		t.Error("second Set should replace the entry")
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestLineCache_Eviction(t *testing.T) {
	c := newLineCache(1)

	for i := 0; i < 64; i++ {
		key := newCacheKey(fmt.Sprintf("row %d", i), testKey(), false, 0)
		c.Set(key, &Line{Width: float64(i)})
	}

	if got := c.Len(); got > shardCount {
		t.Errorf("with capacity 1 per shard, at most %d entries may remain, got %d", shardCount, got)
	}
	if c.Stats().Evictions == 0 {
		t.Error("inserting past capacity should evict")
	}
}

func TestLineCache_Clear(t *testing.T) {
	c := newLineCache(0)
	c.Set(newCacheKey("row", testKey(), false, 0), &Line{})

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("len after clear = %d, want 0", c.Len())
	}
}

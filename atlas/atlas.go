// Package atlas caches rasterized glyphs in a growable texture.
//
// Glyphs are packed onto shelves and addressed by a key combining font,
// glyph index, size and sub-pixel phase. When the texture fills up the
// atlas first grows by powers of two, then evicts the least recently
// used shelves. Every grow or eviction bumps a generation counter so
// holders of stale regions know to look the glyph up again.
package atlas

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	qt "github.com/merenut/QuantaTerm"
	"github.com/merenut/QuantaTerm/font"
	"github.com/merenut/QuantaTerm/internal/lru"
)

// SubpixelPhases is the number of horizontal sub-pixel positions a
// glyph is rasterized at. Four phases keep pen-position rounding error
// under an eighth of a pixel.
const SubpixelPhases = 4

// GlyphKey identifies one rasterization of one glyph.
type GlyphKey struct {
	FontID uint64
	GID    uint32
	Size64 int32
	Phase  uint8
}

// PhaseOf quantizes the fractional part of a pen x position to a
// sub-pixel phase.
func PhaseOf(x float64) uint8 {
	frac := x - math.Floor(x)
	return uint8(frac*SubpixelPhases) % SubpixelPhases
}

// PhaseOffset returns the horizontal offset in pixels a phase stands for.
func PhaseOffset(phase uint8) float64 {
	return float64(phase%SubpixelPhases) / SubpixelPhases
}

// Region locates a stored glyph in the atlas texture.
type Region struct {
	X, Y          int
	Width, Height int

	// Left and Top position the bitmap relative to the pen on the
	// baseline, y down.
	Left, Top int

	// Advance is the glyph's horizontal advance in pixels.
	Advance float64

	// UV is the texture-coordinate rectangle [u0, v0, u1, v1] for the
	// atlas size current at lookup time.
	UV [4]float32

	// Generation is the atlas generation this region was returned at.
	// A region is only valid while it matches Atlas.Generation.
	Generation uint64

	// Empty marks glyphs with no coverage (whitespace). Empty regions
	// occupy no texture space.
	Empty bool
}

// Rect is a pixel rectangle in the atlas texture, used to report areas
// that need re-upload.
type Rect struct {
	X, Y, Width, Height int
}

// RasterizeFunc renders the glyph a key refers to. The atlas calls it
// on cache misses.
type RasterizeFunc func(key GlyphKey) (*font.GlyphImage, error)

type entry struct {
	region Region
	node   *lru.Node[GlyphKey]
	shelf  *shelf
	area   int
}

// Atlas is a thread-safe glyph cache backed by a single-channel
// (coverage) texture.
type Atlas struct {
	mu      sync.Mutex
	cfg     Config
	size    int
	data    []byte
	packer  *packer
	entries map[GlyphKey]*entry
	recency *lru.List[GlyphKey]
	tick    uint64
	dirty   []Rect

	generation atomic.Uint64
	hits       atomic.Uint64
	misses     atomic.Uint64
	evictions  atomic.Uint64
	allocNanos atomic.Int64
}

// New creates an atlas with the given configuration.
func New(cfg Config) (*Atlas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Atlas{
		cfg:     cfg,
		size:    cfg.InitialSize,
		data:    make([]byte, cfg.InitialSize*cfg.InitialSize),
		packer:  newPacker(cfg.InitialSize, cfg.Padding),
		entries: make(map[GlyphKey]*entry),
		recency: lru.New[GlyphKey](),
	}, nil
}

// GetOrInsert returns the stored region for key, rasterizing and
// placing the glyph on a miss.
//
// The returned region carries the current generation. Only
// ErrAtlasExhausted (wrapped in an ExhaustedError) is unrecoverable;
// rasterizer failures pass through as-is.
func (a *Atlas) GetOrInsert(key GlyphKey, raster RasterizeFunc) (Region, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tick++

	if e, ok := a.entries[key]; ok {
		a.recency.MoveToFront(e.node)
		if e.shelf != nil {
			e.shelf.lastUse = a.tick
		}
		a.hits.Add(1)
		return a.stamped(e.region), nil
	}
	a.misses.Add(1)

	start := time.Now()
	img, err := raster(key)
	if err != nil {
		return Region{}, err
	}

	region, err := a.insertLocked(key, img)
	a.allocNanos.Add(time.Since(start).Nanoseconds())
	if err != nil {
		return Region{}, err
	}
	return a.stamped(region), nil
}

// Get looks up a region without rasterizing. It does not touch the LRU
// order.
func (a *Atlas) Get(key GlyphKey) (Region, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[key]
	if !ok {
		return Region{}, false
	}
	return a.stamped(e.region), true
}

func (a *Atlas) stamped(r Region) Region {
	r.Generation = a.generation.Load()
	return r
}

func (a *Atlas) insertLocked(key GlyphKey, img *font.GlyphImage) (Region, error) {
	for len(a.entries) >= a.cfg.Capacity {
		oldest, ok := a.recency.Oldest()
		if !ok {
			break
		}
		a.removeLocked(oldest)
	}

	if img.IsEmpty() {
		region := Region{Advance: img.Advance, Empty: true}
		node := a.recency.PushFront(key)
		a.entries[key] = &entry{region: region, node: node}
		return region, nil
	}

	x, y, sh, err := a.placeLocked(img.Width, img.Height)
	if err != nil {
		return Region{}, err
	}

	for row := 0; row < img.Height; row++ {
		copy(a.data[(y+row)*a.size+x:], img.Pix[row*img.Width:(row+1)*img.Width])
	}
	a.dirty = append(a.dirty, Rect{X: x, Y: y, Width: img.Width, Height: img.Height})

	region := Region{
		X: x, Y: y,
		Width: img.Width, Height: img.Height,
		Left: img.Left, Top: img.Top,
		Advance: img.Advance,
		UV:      a.uvRect(x, y, img.Width, img.Height),
	}
	sh.lastUse = a.tick
	node := a.recency.PushFront(key)
	a.entries[key] = &entry{region: region, node: node, shelf: sh, area: img.Width * img.Height}
	return region, nil
}

// placeLocked finds room for a bitmap, growing and evicting as needed.
func (a *Atlas) placeLocked(w, h int) (int, int, *shelf, error) {
	for {
		if x, y, sh, ok := a.packer.place(w, h); ok {
			return x, y, sh, nil
		}
		if a.growLocked() {
			continue
		}
		if a.evictShelfLocked() {
			continue
		}
		if a.rebuildLocked(w, h) {
			continue
		}
		return 0, 0, nil, &ExhaustedError{
			GlyphWidth:  w + a.cfg.Padding,
			GlyphHeight: h + a.cfg.Padding,
			Size:        a.size,
		}
	}
}

// growLocked doubles the texture, keeping every stored glyph in place.
// Texture coordinates change with the denominator, so all UVs are
// recomputed and the generation advances.
func (a *Atlas) growLocked() bool {
	newSize := a.size * 2
	if newSize > a.cfg.MaxSize || newSize*newSize > a.cfg.MemoryLimit {
		return false
	}

	newData := make([]byte, newSize*newSize)
	for row := 0; row < a.size; row++ {
		copy(newData[row*newSize:], a.data[row*a.size:(row+1)*a.size])
	}
	a.data = newData
	a.size = newSize
	a.packer.resize(newSize)

	for _, e := range a.entries {
		if !e.region.Empty {
			e.region.UV = a.uvRect(e.region.X, e.region.Y, e.region.Width, e.region.Height)
		}
	}
	a.generation.Add(1)
	a.dirty = []Rect{{Width: newSize, Height: newSize}}

	qt.Logger().Info("atlas: texture grown",
		"size", newSize, "glyphs", len(a.entries), "generation", a.generation.Load())
	return true
}

// evictShelfLocked clears the least recently used occupied shelf.
func (a *Atlas) evictShelfLocked() bool {
	victim := a.packer.stalest()
	if victim == nil {
		return false
	}

	removed := 0
	for key, e := range a.entries {
		if e.shelf == victim {
			a.removeLocked(key)
			removed++
		}
	}
	a.generation.Add(1)

	qt.Logger().Debug("atlas: shelf evicted",
		"y", victim.y, "height", victim.height, "glyphs", removed)
	return removed > 0
}

// rebuildLocked drops everything and starts from an empty texture. It
// is the last resort before declaring exhaustion, taken when a glyph
// fits no existing shelf even though the texture is mostly empty.
func (a *Atlas) rebuildLocked(w, h int) bool {
	if !a.packer.canFit(w, h) || len(a.entries) == 0 && a.packer.nextY == 0 {
		return false
	}

	a.entries = make(map[GlyphKey]*entry)
	a.recency.Clear()
	a.packer = newPacker(a.size, a.cfg.Padding)
	clear(a.data)
	a.generation.Add(1)
	a.dirty = []Rect{{Width: a.size, Height: a.size}}

	qt.Logger().Info("atlas: rebuilt", "size", a.size, "generation", a.generation.Load())
	return true
}

// removeLocked drops one glyph. When its shelf empties, the strip is
// zeroed and reopened for placement.
func (a *Atlas) removeLocked(key GlyphKey) {
	e, ok := a.entries[key]
	if !ok {
		return
	}
	delete(a.entries, key)
	a.recency.Remove(e.node)
	a.evictions.Add(1)

	if e.shelf == nil {
		return
	}
	e.shelf.count--
	a.packer.used -= e.area
	if e.shelf.count == 0 {
		a.zeroRows(e.shelf.y, e.shelf.height)
		a.packer.release(e.shelf)
	}
}

func (a *Atlas) zeroRows(y, h int) {
	for row := y; row < y+h && row < a.size; row++ {
		clear(a.data[row*a.size : (row+1)*a.size])
	}
	a.dirty = append(a.dirty, Rect{Y: y, Width: a.size, Height: h})
}

func (a *Atlas) uvRect(x, y, w, h int) [4]float32 {
	s := float32(a.size)
	return [4]float32{
		float32(x) / s,
		float32(y) / s,
		float32(x+w) / s,
		float32(y+h) / s,
	}
}

// Generation returns the current atlas generation. Regions stamped with
// an older generation must be looked up again before use.
func (a *Atlas) Generation() uint64 {
	return a.generation.Load()
}

// Size returns the current texture dimension in pixels.
func (a *Atlas) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

// Data exposes the coverage texture, one byte per pixel, row-major.
// The slice is owned by the atlas; callers must copy out of it before
// the next GetOrInsert.
func (a *Atlas) Data() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// TakeDirty returns the texture rectangles changed since the last call
// and resets the list. An entry covering the whole texture means the
// atlas grew or was rebuilt.
func (a *Atlas) TakeDirty() []Rect {
	a.mu.Lock()
	defer a.mu.Unlock()
	rects := a.dirty
	a.dirty = nil
	return rects
}

// Stats is a snapshot of atlas counters.
type Stats struct {
	Glyphs        int
	Size          int
	OccupiedBytes int
	MemoryBytes   int
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	HitRate       float64
	Generation    uint64
	AllocTime     time.Duration
}

// Stats returns current atlas statistics.
func (a *Atlas) Stats() Stats {
	a.mu.Lock()
	glyphs := len(a.entries)
	size := a.size
	occupied := a.packer.used
	a.mu.Unlock()

	hits := a.hits.Load()
	misses := a.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Glyphs:        glyphs,
		Size:          size,
		OccupiedBytes: occupied,
		MemoryBytes:   size * size,
		Hits:          hits,
		Misses:        misses,
		Evictions:     a.evictions.Load(),
		HitRate:       rate,
		Generation:    a.generation.Load(),
		AllocTime:     time.Duration(a.allocNanos.Load()),
	}
}

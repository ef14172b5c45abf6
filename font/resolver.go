package font

import (
	"fmt"
	"sync"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"

	qt "github.com/merenut/QuantaTerm"
	"github.com/merenut/QuantaTerm/internal/lru"
)

// BuiltinFamily is the family name of the embedded fallback font.
// The fallback chain always ends here, which is what makes resolution
// infallible on any machine.
const BuiltinFamily = "Go Mono"

// DefaultCacheCapacity is the default number of loaded fonts kept in
// the resolver cache. Font bindings are evicted only when the cache is
// full, which is rare relative to glyph eviction in the atlas.
const DefaultCacheCapacity = 32

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Paths is the platform font-discovery backend.
	// If nil, a DirResolver over the default directories is used.
	Paths PathResolver

	// FallbackFamilies is the ordered substitute chain tried when a
	// family is unavailable or lacks a glyph. The embedded fallback is
	// always appended implicitly.
	FallbackFamilies []string

	// Capacity bounds the font cache. Zero means DefaultCacheCapacity.
	Capacity int
}

// Resolver loads and caches fonts by Key, walking a deterministic
// fallback chain so callers never observe a resolution failure short of
// ErrNoUsableFont.
//
// Resolver is safe for concurrent use.
type Resolver struct {
	mu       sync.Mutex
	paths    PathResolver
	fallback []string
	capacity int

	cache   map[Key]*cacheEntry
	recency *lru.List[Key]
}

type cacheEntry struct {
	src  *Source
	node *lru.Node[Key]
}

// NewResolver creates a Resolver with the given configuration.
func NewResolver(cfg ResolverConfig) *Resolver {
	paths := cfg.Paths
	if paths == nil {
		paths = NewDirResolver()
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Resolver{
		paths:    paths,
		fallback: cfg.FallbackFamilies,
		capacity: capacity,
		cache:    make(map[Key]*cacheEntry),
		recency:  lru.New[Key](),
	}
}

// Resolve returns the loaded font for the given key.
//
// If the exact family is unavailable it walks the fallback chain and
// finally the embedded font; the returned Source may therefore belong
// to a substitute family. Only a total absence of any loadable font is
// an error (ErrNoUsableFont), which indicates a broken installation.
func (r *Resolver) Resolve(key Key) (*Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(key)
}

func (r *Resolver) resolveLocked(key Key) (*Source, error) {
	if entry, ok := r.cache[key]; ok {
		r.recency.MoveToFront(entry.node)
		return entry.src, nil
	}

	src, err := r.loadChain(key)
	if err != nil {
		return nil, err
	}
	r.insertLocked(key, src)
	return src, nil
}

// loadChain tries the requested family, then each fallback family, then
// the embedded font.
func (r *Resolver) loadChain(key Key) (*Source, error) {
	families := make([]string, 0, len(r.fallback)+1)
	families = append(families, key.Family)
	families = append(families, r.fallback...)

	var firstErr error
	for _, family := range families {
		if family == BuiltinFamily {
			break
		}
		data, err := r.paths.Resolve(family)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		src, err := NewSource(data)
		if err != nil {
			qt.Logger().Warn("font: unparsable font file skipped",
				"family", family, "error", err)
			continue
		}
		if family != key.Family {
			qt.Logger().Debug("font: family substituted",
				"requested", key.Family, "loaded", family)
		}
		return src, nil
	}

	src, err := NewSource(builtinTTF(key.Style, key.Weight))
	if err != nil {
		// The embedded font failed to parse; nothing can be loaded.
		return nil, fmt.Errorf("%w: %s (last error: %v)", ErrNoUsableFont, key.Family, firstErr)
	}
	qt.Logger().Info("font: using embedded fallback",
		"requested", key.Family, "style", key.Style.String(), "weight", key.Weight.String())
	return src, nil
}

// insertLocked stores a source in the cache, evicting the least
// recently used binding when over capacity.
func (r *Resolver) insertLocked(key Key, src *Source) {
	for r.recency.Len() >= r.capacity {
		oldest, ok := r.recency.RemoveOldest()
		if !ok {
			break
		}
		delete(r.cache, oldest)
		qt.Logger().Debug("font: cache binding evicted", "family", oldest.Family)
	}
	node := r.recency.PushFront(key)
	r.cache[key] = &cacheEntry{src: src, node: node}
}

// ResolveForRune resolves a font for a single character: when the
// primary font for key lacks a glyph for c, the fallback chain is
// searched for the first family that covers it. The shaper uses this
// mid-run for per-codepoint fallback.
//
// If no font in the chain covers c, the primary font is returned and
// the caller substitutes the placeholder glyph.
func (r *Resolver) ResolveForRune(key Key, c rune) (*Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	primary, err := r.resolveLocked(key)
	if err != nil {
		return nil, err
	}
	if primary.HasGlyph(c) {
		return primary, nil
	}

	for _, family := range r.fallback {
		fbKey := key
		fbKey.Family = family
		src, err := r.resolveLocked(fbKey)
		if err != nil {
			continue
		}
		if src != primary && src.HasGlyph(c) {
			qt.Logger().Debug("font: per-rune fallback",
				"rune", string(c), "family", family)
			return src, nil
		}
	}

	builtinKey := key
	builtinKey.Family = BuiltinFamily
	if src, err := r.resolveLocked(builtinKey); err == nil && src.HasGlyph(c) {
		return src, nil
	}

	return primary, nil
}

// Available lists font families discoverable by the active path
// resolver plus the embedded fallback.
func (r *Resolver) Available() []string {
	families := r.paths.Families()
	return append(families, BuiltinFamily)
}

// Len returns the number of cached font bindings.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// builtinTTF selects the embedded Go Mono variant closest to the
// requested style and weight.
func builtinTTF(style Style, weight Weight) []byte {
	bold := weight == WeightBold || weight == WeightExtraBold
	italic := style != StyleNormal
	switch {
	case bold && italic:
		return gomonobolditalic.TTF
	case bold:
		return gomonobold.TTF
	case italic:
		return gomonoitalic.TTF
	default:
		return gomono.TTF
	}
}

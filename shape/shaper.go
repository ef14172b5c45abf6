package shape

import (
	"sync"
	"unicode"

	"github.com/go-text/typesetting/di"
	tsfont "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	qt "github.com/merenut/QuantaTerm"
	"github.com/merenut/QuantaTerm/font"
)

// Options configures a Shaper.
type Options struct {
	// Ligatures enables programming-ligature substitution.
	Ligatures bool

	// Features holds OpenType feature toggles passed through to
	// HarfBuzz, e.g. {"calt", 1}.
	Features []font.Feature

	// CacheCapacity is the shaped-line cache capacity per shard.
	// Zero means DefaultCacheCapacity.
	CacheCapacity int
}

// Shaper converts row text into positioned glyphs.
//
// Shaping goes through HarfBuzz via go-text/typesetting. Results are
// memoized in a sharded LRU cache keyed by text, font binding and the
// ligature setting, so a redrawn row that did not change costs one
// cache probe.
//
// Shaper is safe for concurrent use. HarfbuzzShaper instances carry
// internal buffers and are not concurrent-safe, so they are pooled and
// each ShapeLine call checks one out.
type Shaper struct {
	resolver  *font.Resolver
	cache     *lineCache
	pool      sync.Pool
	ligatures bool
	features  []shaping.FontFeature
	featHash  uint64
}

// NewShaper creates a Shaper resolving fonts through resolver.
func NewShaper(resolver *font.Resolver, opts Options) *Shaper {
	return &Shaper{
		resolver: resolver,
		cache:    newLineCache(opts.CacheCapacity),
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
		ligatures: opts.Ligatures,
		features:  convertFeatures(opts.Features),
		featHash:  hashFeatures(opts.Features),
	}
}

// convertFeatures maps configured feature toggles to the shaping
// representation. OpenType tags are exactly four bytes; malformed tags
// are dropped with a warning.
func convertFeatures(features []font.Feature) []shaping.FontFeature {
	if len(features) == 0 {
		return nil
	}
	out := make([]shaping.FontFeature, 0, len(features))
	for _, f := range features {
		if len(f.Tag) != 4 {
			qt.Logger().Warn("shape: ignoring malformed feature tag", "tag", f.Tag)
			continue
		}
		out = append(out, shaping.FontFeature{
			Tag:   ot.NewTag(f.Tag[0], f.Tag[1], f.Tag[2], f.Tag[3]),
			Value: f.Value,
		})
	}
	return out
}

// CacheStats reports shaped-line cache statistics.
func (s *Shaper) CacheStats() CacheStats {
	return s.cache.Stats()
}

// ClearCache drops all cached shaped lines, for example after the font
// configuration changed under the shaper.
func (s *Shaper) ClearCache() {
	s.cache.Clear()
}

// ShapeLine shapes one row of text with the font bound to key.
//
// The returned Line is shared with the cache and must not be modified.
// Shaping never fails for lack of glyph coverage; runes no font in the
// fallback chain covers come back as glyph index 0, the font's
// missing-glyph box.
func (s *Shaper) ShapeLine(text string, key font.Key) (*Line, error) {
	if text == "" {
		return &Line{}, nil
	}

	ck := newCacheKey(text, key, s.ligatures, s.featHash)
	if line, ok := s.cache.Get(ck); ok {
		return line, nil
	}

	line, err := s.shapeLine(text, key)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ck, line)
	return line, nil
}

func (s *Shaper) shapeLine(text string, key font.Key) (*Line, error) {
	primary, err := s.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}

	shaped, toSrc := normalize(text)
	if s.ligatures {
		shaped, toSrc = applyLigatures(shaped, toSrc, primary.HasGlyph)
	}

	runes := []rune(shaped)
	byteOff := runeByteOffsets(shaped, runes)

	line := &Line{}
	for _, seg := range splitSegments(shaped, runes, DirectionLTR) {
		for _, piece := range s.splitByFont(runes, seg, key, primary) {
			run := s.shapeRun(runes, piece, key, byteOff, toSrc)
			line.Width += run.Width
			line.Runs = append(line.Runs, run)
		}
	}
	visualOrder(line.Runs)
	return line, nil
}

// fontPiece is a segment fragment covered by a single font source.
type fontPiece struct {
	segment
	src *font.Source
}

// splitByFont divides a segment wherever per-codepoint fallback picks a
// different source. Combining marks stay with their base character's
// font so mark attachment survives.
func (s *Shaper) splitByFont(runes []rune, seg segment, key font.Key, primary *font.Source) []fontPiece {
	pieces := make([]fontPiece, 0, 1)
	cur := primary
	start := seg.start

	for i := seg.start; i < seg.end; i++ {
		src := s.sourceFor(runes[i], key, primary)
		if i > seg.start && unicode.Is(unicode.Mn, runes[i]) {
			src = cur
		}
		if i == seg.start {
			cur = src
			continue
		}
		if src == cur {
			continue
		}
		sub := seg
		sub.start, sub.end = start, i
		pieces = append(pieces, fontPiece{segment: sub, src: cur})
		start, cur = i, src
	}

	sub := seg
	sub.start = start
	return append(pieces, fontPiece{segment: sub, src: cur})
}

func (s *Shaper) sourceFor(r rune, key font.Key, primary *font.Source) *font.Source {
	if primary.HasGlyph(r) {
		return primary
	}
	src, err := s.resolver.ResolveForRune(key, r)
	if err != nil {
		qt.Logger().Warn("shape: rune fallback failed", "rune", string(r), "error", err)
		return primary
	}
	return src
}

// shapeRun runs HarfBuzz over one piece and converts the output. The
// full rune slice is passed as context so shaping can see neighbors
// across the run boundary.
func (s *Shaper) shapeRun(runes []rune, piece fontPiece, key font.Key, byteOff, toSrc []int) Run {
	dir := di.DirectionLTR
	if piece.direction() == DirectionRTL {
		dir = di.DirectionRTL
	}

	input := shaping.Input{
		Text:         runes,
		RunStart:     piece.start,
		RunEnd:       piece.end,
		Direction:    dir,
		Face:         tsfont.NewFace(piece.src.ShapingFont()),
		Size:         fixed.Int26_6(key.Size64),
		Script:       piece.script,
		Language:     language.NewLanguage("en"),
		FontFeatures: s.features,
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	run := Run{
		Font:      piece.src,
		Direction: piece.direction(),
		Script:    piece.script,
		Start:     toSrc[byteOff[piece.start]],
		End:       toSrc[byteOff[piece.end]],
	}
	run.Glyphs = make([]Glyph, len(output.Glyphs))
	for i, g := range output.Glyphs {
		adv := fixedToFloat(g.Advance)
		run.Glyphs[i] = Glyph{
			GID:      uint32(g.GlyphID),
			Cluster:  toSrc[byteOff[g.TextIndex()]],
			XAdvance: adv,
			XOffset:  fixedToFloat(g.XOffset),
			YOffset:  fixedToFloat(g.YOffset),
		}
		run.Width += adv
	}
	return run
}

// normalize applies NFC and returns the normalized text together with a
// byte offset map back to the source. The map has len(text)+1 entries;
// every byte of a recomposed chunk points at the chunk's source start,
// so cluster offsets always land on original cluster boundaries.
func normalize(text string) (string, []int) {
	if norm.NFC.IsNormalString(text) {
		return text, identityOffsets(len(text))
	}

	var it norm.Iter
	it.InitString(norm.NFC, text)

	var b []byte
	toSrc := make([]int, 0, len(text)+1)
	for !it.Done() {
		src := it.Pos()
		chunk := it.Next()
		for range chunk {
			toSrc = append(toSrc, src)
		}
		b = append(b, chunk...)
	}
	toSrc = append(toSrc, len(text))
	return string(b), toSrc
}

func identityOffsets(n int) []int {
	offs := make([]int, n+1)
	for i := range offs {
		offs[i] = i
	}
	return offs
}

// runeByteOffsets maps each rune index of text to its byte offset, with
// one extra entry for the end of the string.
func runeByteOffsets(text string, runes []rune) []int {
	offs := make([]int, len(runes)+1)
	pos := 0
	for i, r := range runes {
		offs[i] = pos
		pos += len(string(r))
	}
	offs[len(runes)] = len(text)
	return offs
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

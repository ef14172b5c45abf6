package font

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"sync"

	tsfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Metrics holds font metrics at a specific size.
// Ascent and Descent are both positive distances from the baseline.
type Metrics struct {
	Ascent  float64
	Descent float64
	LineGap float64
}

// LineHeight returns the recommended vertical distance between baselines.
func (m Metrics) LineHeight() float64 {
	return m.Ascent + m.Descent + m.LineGap
}

// Source is a loaded font: the raw file bytes plus two parsed views.
// The go-text view feeds the shaper (GSUB/GPOS tables); the sfnt view
// feeds glyph rasterization and coverage queries.
//
// One Source is shared by reference among all shaping requests for its
// Key; it lives until evicted from the Resolver's cache.
//
// Source is safe for concurrent use.
type Source struct {
	data   []byte
	id     uint64
	family string

	shaped *tsfont.Font
	sf     *sfnt.Font

	// sfnt.Buffer is not safe for concurrent use.
	bufPool sync.Pool
}

// NewSource parses TTF or OTF font data.
// The data slice is copied internally and can be reused after this call.
func NewSource(data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	shapedFace, err := tsfont.ParseTTF(bytes.NewReader(dataCopy))
	if err != nil {
		return nil, fmt.Errorf("font: parse for shaping: %w", err)
	}

	sf, err := sfnt.Parse(dataCopy)
	if err != nil {
		return nil, fmt.Errorf("font: parse for rasterization: %w", err)
	}

	s := &Source{
		data:   dataCopy,
		id:     hashData(dataCopy),
		shaped: shapedFace.Font,
		sf:     sf,
	}
	s.bufPool.New = func() any { return &sfnt.Buffer{} }

	var buf sfnt.Buffer
	if name, err := sf.Name(&buf, sfnt.NameIDFamily); err == nil {
		s.family = name
	}

	return s, nil
}

// hashData computes FNV-1a over the font bytes; used as the stable font
// identifier in cache keys.
func hashData(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data) // fnv.Write never returns an error
	return h.Sum64()
}

// ID returns a stable identifier derived from the font bytes.
// Identical font files yield identical IDs across processes.
func (s *Source) ID() uint64 { return s.id }

// Family returns the family name recorded in the font, or "" if the
// name table is absent.
func (s *Source) Family() string { return s.family }

// ShapingFont returns the parsed go-text font for the shaper.
// The returned *tsfont.Font is read-only and safe for concurrent use.
func (s *Source) ShapingFont() *tsfont.Font { return s.shaped }

// NumGlyphs returns the number of glyphs in the font.
func (s *Source) NumGlyphs() int { return s.sf.NumGlyphs() }

// GlyphIndex returns the glyph index for a rune, or 0 if the font has
// no glyph for it.
func (s *Source) GlyphIndex(r rune) uint32 {
	buf := s.bufPool.Get().(*sfnt.Buffer)
	defer s.bufPool.Put(buf)

	gid, err := s.sf.GlyphIndex(buf, r)
	if err != nil {
		return 0
	}
	return uint32(gid)
}

// HasGlyph reports whether the font covers the given rune.
func (s *Source) HasGlyph(r rune) bool {
	return s.GlyphIndex(r) != 0
}

// Metrics returns the font metrics at the given size in points
// (rendered at 72 DPI, so points equal pixels per em).
func (s *Source) Metrics(sizePts float64) Metrics {
	buf := s.bufPool.Get().(*sfnt.Buffer)
	defer s.bufPool.Put(buf)

	ppem := fixed.Int26_6(sizePts * 64)
	m, err := s.sf.Metrics(buf, ppem, xfont.HintingNone)
	if err != nil {
		// Degenerate but non-fatal: approximate from the size.
		return Metrics{Ascent: sizePts * 0.8, Descent: sizePts * 0.2}
	}

	return Metrics{
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
		LineGap: fixedToFloat(m.Height - m.Ascent - m.Descent),
	}
}

// GlyphAdvance returns the horizontal advance of a glyph in pixels at
// the given size in points.
func (s *Source) GlyphAdvance(gid uint32, sizePts float64) float64 {
	buf := s.bufPool.Get().(*sfnt.Buffer)
	defer s.bufPool.Put(buf)

	ppem := fixed.Int26_6(sizePts * 64)
	adv, err := s.sf.GlyphAdvance(buf, sfnt.GlyphIndex(gid), ppem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return fixedToFloat(adv)
}

// CellAdvance returns the advance of a representative monospace cell at
// the given size. The render pipeline uses it for the grid cell width.
func (s *Source) CellAdvance(sizePts float64) float64 {
	if gid := s.GlyphIndex('0'); gid != 0 {
		if adv := s.GlyphAdvance(gid, sizePts); adv > 0 {
			return adv
		}
	}
	// Fall back to the em width heuristic for fonts without digits.
	return sizePts * 0.6
}

// fixedToFloat converts a fixed.Int26_6 value to float64 pixels.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

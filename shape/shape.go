// Package shape turns a row of terminal text into positioned glyphs.
//
// A row travels through normalization, optional ligature substitution,
// bidirectional and script segmentation, per-codepoint font fallback and
// finally HarfBuzz shaping. The output is a Line whose runs appear in
// visual order and whose glyphs carry cluster offsets back into the
// original row text, so the renderer can map every glyph to the grid
// cells it covers.
package shape

import (
	"github.com/go-text/typesetting/language"

	"github.com/merenut/QuantaTerm/font"
)

// Direction is the on-screen order of a shaped run.
type Direction uint8

const (
	DirectionLTR Direction = iota
	DirectionRTL
)

// String returns "LTR" or "RTL".
func (d Direction) String() string {
	if d == DirectionRTL {
		return "RTL"
	}
	return "LTR"
}

// Glyph is one positioned glyph inside a run.
type Glyph struct {
	// GID is the glyph index in the run's font.
	GID uint32

	// Cluster is the byte offset into the original (pre-normalization,
	// pre-substitution) row text of the cluster this glyph renders.
	// Several glyphs may share a cluster, and a ligature glyph's cluster
	// covers every source byte up to the next distinct cluster value.
	Cluster int

	// XAdvance moves the pen after this glyph, in pixels.
	XAdvance float64

	// XOffset and YOffset displace the glyph from the pen position
	// without moving the pen. Y grows downward.
	XOffset float64
	YOffset float64
}

// Run is a maximal slice of a row shaped with one font, one script and
// one direction. Glyphs within a run are already in visual order.
type Run struct {
	Glyphs []Glyph

	// Font is the source every GID in this run indexes into. It may be
	// a fallback substitute rather than the requested family.
	Font *font.Source

	Direction Direction
	Script    language.Script

	// Start and End delimit the run's byte range in the original text.
	Start int
	End   int

	// Width is the sum of the glyph advances, in pixels.
	Width float64
}

// Line is the shaped form of one row. Runs are ordered visually, left
// to right, which for bidirectional rows differs from logical order.
type Line struct {
	Runs  []Run
	Width float64
}

// GlyphCount returns the total number of glyphs across all runs.
func (l *Line) GlyphCount() int {
	n := 0
	for i := range l.Runs {
		n += len(l.Runs[i].Glyphs)
	}
	return n
}

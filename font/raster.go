package font

import (
	"image"
	"image/draw"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// GlyphImage is a rasterized glyph bitmap.
// Pix is a single-channel alpha mask, row-major, Width bytes per row.
type GlyphImage struct {
	Pix    []byte
	Width  int
	Height int

	// Left and Top position the bitmap's top-left corner relative to
	// the pen position on the baseline. The y axis points down, so Top
	// is negative for glyphs that rise above the baseline.
	Left int
	Top  int

	// Advance is the horizontal advance in pixels.
	Advance float64
}

// IsEmpty reports whether the glyph has no visible coverage
// (whitespace and zero-contour glyphs).
func (g *GlyphImage) IsEmpty() bool {
	return g.Width == 0 || g.Height == 0
}

// RasterizeGlyph renders one glyph to an alpha mask at the given size in
// points (72 DPI). phase is a horizontal sub-pixel offset in [0, 1)
// applied before rasterization so that each sub-pixel phase gets its own
// coverage values.
//
// Glyphs with no outline (spaces) return an empty, non-nil image.
func (s *Source) RasterizeGlyph(gid uint32, sizePts, phase float64) (*GlyphImage, error) {
	buf := s.bufPool.Get().(*sfnt.Buffer)
	defer s.bufPool.Put(buf)

	ppem := fixed.Int26_6(sizePts * 64)
	segs, err := s.sf.LoadGlyph(buf, sfnt.GlyphIndex(gid), ppem, nil)
	if err != nil {
		return nil, err
	}

	adv := 0.0
	if a, err := s.sf.GlyphAdvance(buf, sfnt.GlyphIndex(gid), ppem, xfont.HintingNone); err == nil {
		adv = fixedToFloat(a)
	}

	if len(segs) == 0 {
		return &GlyphImage{Advance: adv}, nil
	}

	// Glyph segments use a y-down axis with the origin on the baseline.
	bounds := segs.Bounds()
	minX := floor26_6(bounds.Min.X)
	minY := floor26_6(bounds.Min.Y)
	maxX := ceil26_6(bounds.Max.X + fixed.Int26_6(phase*64))
	maxY := ceil26_6(bounds.Max.Y)

	w := maxX - minX
	h := maxY - minY
	if w <= 0 || h <= 0 {
		return &GlyphImage{Advance: adv}, nil
	}

	rast := vector.NewRasterizer(w, h)
	rast.DrawOp = draw.Src

	tx := float32(phase - float64(minX))
	ty := float32(-minY)
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			rast.MoveTo(tx+float32(seg.Args[0].X)/64, ty+float32(seg.Args[0].Y)/64)
		case sfnt.SegmentOpLineTo:
			rast.LineTo(tx+float32(seg.Args[0].X)/64, ty+float32(seg.Args[0].Y)/64)
		case sfnt.SegmentOpQuadTo:
			rast.QuadTo(
				tx+float32(seg.Args[0].X)/64, ty+float32(seg.Args[0].Y)/64,
				tx+float32(seg.Args[1].X)/64, ty+float32(seg.Args[1].Y)/64,
			)
		case sfnt.SegmentOpCubeTo:
			rast.CubeTo(
				tx+float32(seg.Args[0].X)/64, ty+float32(seg.Args[0].Y)/64,
				tx+float32(seg.Args[1].X)/64, ty+float32(seg.Args[1].Y)/64,
				tx+float32(seg.Args[2].X)/64, ty+float32(seg.Args[2].Y)/64,
			)
		}
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	return &GlyphImage{
		Pix:     mask.Pix,
		Width:   w,
		Height:  h,
		Left:    minX,
		Top:     minY,
		Advance: adv,
	}, nil
}

func floor26_6(v fixed.Int26_6) int { return int(v) >> 6 }

func ceil26_6(v fixed.Int26_6) int { return int(v+63) >> 6 }

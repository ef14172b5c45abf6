package font

import (
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func testSource(t *testing.T) *Source {
	t.Helper()
	src, err := NewSource(gomono.TTF)
	if err != nil {
		t.Fatalf("parse embedded font: %v", err)
	}
	return src
}

func TestSource_Identity(t *testing.T) {
	src1 := testSource(t)
	src2 := testSource(t)

	if src1.ID() == 0 {
		t.Error("font ID should be non-zero")
	}
	if src1.ID() != src2.ID() {
		t.Error("identical font bytes should yield identical IDs")
	}
	if src1.Family() == "" {
		t.Error("family name should be extracted from the name table")
	}
}

func TestSource_GlyphCoverage(t *testing.T) {
	src := testSource(t)

	if !src.HasGlyph('A') {
		t.Error("monospace font should cover 'A'")
	}
	if src.GlyphIndex('A') == 0 {
		t.Error("glyph index for 'A' should be non-zero")
	}
	if src.HasGlyph('\U000E0000') {
		t.Error("tag characters should not be covered")
	}
}

func TestSource_Metrics(t *testing.T) {
	src := testSource(t)

	m := src.Metrics(14)
	if m.Ascent <= 0 || m.Descent <= 0 {
		t.Errorf("ascent and descent should be positive, got %+v", m)
	}
	if m.LineHeight() < m.Ascent+m.Descent {
		t.Errorf("line height %v should cover ascent+descent", m.LineHeight())
	}

	// Metrics scale with size.
	m2 := src.Metrics(28)
	if m2.Ascent <= m.Ascent {
		t.Error("metrics should grow with size")
	}
}

func TestSource_CellAdvance(t *testing.T) {
	src := testSource(t)

	adv := src.CellAdvance(14)
	if adv <= 0 {
		t.Fatalf("cell advance should be positive, got %v", adv)
	}

	// A monospace font advances every printable ASCII glyph equally.
	for _, r := range "iWM0." {
		gid := src.GlyphIndex(r)
		if got := src.GlyphAdvance(gid, 14); got != adv {
			t.Errorf("advance of %q = %v, want %v (monospace)", r, got, adv)
		}
	}
}

func TestRasterizeGlyph(t *testing.T) {
	src := testSource(t)

	img, err := src.RasterizeGlyph(src.GlyphIndex('A'), 14, 0)
	if err != nil {
		t.Fatal(err)
	}
	if img.IsEmpty() {
		t.Fatal("'A' should produce visible coverage")
	}
	if len(img.Pix) != img.Width*img.Height {
		t.Errorf("pix length %d does not match %dx%d", len(img.Pix), img.Width, img.Height)
	}
	if img.Top >= 0 {
		t.Errorf("'A' rises above the baseline, Top should be negative, got %d", img.Top)
	}
	if img.Advance <= 0 {
		t.Error("advance should be positive")
	}

	var coverage int
	for _, a := range img.Pix {
		if a > 0 {
			coverage++
		}
	}
	if coverage == 0 {
		t.Error("mask should contain non-zero coverage")
	}
}

func TestRasterizeGlyph_Space(t *testing.T) {
	src := testSource(t)

	img, err := src.RasterizeGlyph(src.GlyphIndex(' '), 14, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !img.IsEmpty() {
		t.Error("space should produce an empty image")
	}
	if img.Advance <= 0 {
		t.Error("space still advances the pen")
	}
}

func TestRasterizeGlyph_SubpixelPhases(t *testing.T) {
	src := testSource(t)
	gid := src.GlyphIndex('l')

	img0, err := src.RasterizeGlyph(gid, 14, 0)
	if err != nil {
		t.Fatal(err)
	}
	img5, err := src.RasterizeGlyph(gid, 14, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	// A half-pixel shift must change coverage; identical masks would
	// mean the phase was ignored.
	same := len(img0.Pix) == len(img5.Pix)
	if same {
		for i := range img0.Pix {
			if img0.Pix[i] != img5.Pix[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("different sub-pixel phases should produce different masks")
	}
}

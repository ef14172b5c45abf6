package atlas

import "testing"

func TestPacker_SameHeightSharesShelf(t *testing.T) {
	p := newPacker(64, 1)

	_, y1, s1, ok := p.place(10, 12)
	if !ok {
		t.Fatal("first placement failed")
	}
	x2, y2, s2, ok := p.place(10, 12)
	if !ok {
		t.Fatal("second placement failed")
	}
	if s1 != s2 || y1 != y2 {
		t.Error("equal heights should share a shelf")
	}
	if x2 != 11 {
		t.Errorf("second glyph x = %d, want 11 (10px glyph + 1px padding)", x2)
	}
}

func TestPacker_TallerGlyphOpensNewShelf(t *testing.T) {
	p := newPacker(64, 1)

	_, _, s1, _ := p.place(10, 8)
	_, y2, s2, ok := p.place(10, 30)
	if !ok {
		t.Fatal("placement failed")
	}
	if s1 == s2 {
		t.Error("a much taller glyph must not extend an occupied short shelf")
	}
	if y2 != 9 {
		t.Errorf("second shelf y = %d, want 9 (below 8px shelf + padding)", y2)
	}
}

func TestPacker_ShortGlyphAvoidsTallShelf(t *testing.T) {
	p := newPacker(64, 1)

	p.place(10, 30)
	_, _, s2, ok := p.place(10, 8)
	if !ok {
		t.Fatal("placement failed")
	}
	if s2.height >= 31 {
		t.Error("a short glyph should open its own height class, not waste a tall shelf")
	}
}

func TestPacker_FailsWhenFull(t *testing.T) {
	p := newPacker(32, 1)

	for i := 0; ; i++ {
		if _, _, _, ok := p.place(15, 15); !ok {
			break
		}
		if i > 100 {
			t.Fatal("packer never filled up")
		}
	}
	if _, _, _, ok := p.place(15, 15); ok {
		t.Error("full packer must reject placements")
	}
}

func TestPacker_ReleaseReopensShelf(t *testing.T) {
	p := newPacker(32, 1)

	var shelves []*shelf
	for {
		_, _, s, ok := p.place(15, 15)
		if !ok {
			break
		}
		shelves = append(shelves, s)
	}

	p.release(shelves[0])
	x, y, _, ok := p.place(15, 15)
	if !ok {
		t.Fatal("released shelf should accept new glyphs")
	}
	if x != 0 || y != shelves[0].y {
		t.Errorf("placement = (%d,%d), want start of the released shelf (0,%d)", x, y, shelves[0].y)
	}
}

func TestPacker_StalestPicksOldestShelf(t *testing.T) {
	p := newPacker(64, 1)

	_, _, s1, _ := p.place(10, 10)
	_, _, s2, _ := p.place(10, 30)
	s1.lastUse = 5
	s2.lastUse = 2

	if got := p.stalest(); got != s2 {
		t.Error("stalest should return the shelf with the oldest access")
	}
	p.release(s2)
	if got := p.stalest(); got != s1 {
		t.Error("empty shelves must be skipped")
	}
}

func TestPacker_CanFit(t *testing.T) {
	p := newPacker(64, 1)
	if !p.canFit(63, 63) {
		t.Error("63x63 plus padding fits exactly")
	}
	if p.canFit(64, 10) {
		t.Error("64px wide plus padding cannot fit in 64")
	}
}

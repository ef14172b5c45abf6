package grid

import "testing"

func TestNew_Dimensions(t *testing.T) {
	g := New(80, 24)
	if g.Cols() != 80 || g.Rows() != 24 {
		t.Errorf("expected 80x24, got %dx%d", g.Cols(), g.Rows())
	}

	// Degenerate dimensions are clamped.
	g = New(0, -1)
	if g.Cols() != 1 || g.Rows() != 1 {
		t.Errorf("expected 1x1 after clamping, got %dx%d", g.Cols(), g.Rows())
	}
}

func TestGrid_CellRoundTrip(t *testing.T) {
	g := New(10, 5)
	c := Cell{Content: "A", FG: White, BG: Black, Attrs: AttrBold}
	g.SetCell(2, 3, c)

	got := g.Cell(2, 3)
	if !got.Equal(c) {
		t.Errorf("cell round trip mismatch: got %+v", got)
	}

	// Out-of-range reads return a blank cell; writes are ignored.
	if !g.Cell(-1, 0).Equal(Cell{}) {
		t.Error("out-of-range read should be blank")
	}
	g.SetCell(100, 100, c) // must not panic
}

func TestGrid_SetText(t *testing.T) {
	g := New(20, 2)
	end := g.SetText(0, 0, "Hello", White, Black, 0)
	if end != 5 {
		t.Errorf("expected end col 5, got %d", end)
	}
	if g.Cell(0, 0).Content != "H" || g.Cell(0, 4).Content != "o" {
		t.Error("text not written to cells")
	}
}

func TestGrid_SetText_Wide(t *testing.T) {
	g := New(10, 1)
	end := g.SetText(0, 0, "漢字", White, Black, 0)
	if end != 4 {
		t.Errorf("wide clusters should advance two columns each, got end=%d", end)
	}
	if !g.Cell(0, 0).Wide {
		t.Error("first cell should be marked wide")
	}
	if g.Cell(0, 1).Content != "" {
		t.Error("spacer cell should be empty")
	}
}

func TestGrid_RowText_Offsets(t *testing.T) {
	g := New(8, 1)
	g.SetText(0, 0, "ab", White, Black, 0)

	text, offsets := g.RowText(0)
	if text != "ab      " {
		t.Errorf("unexpected row text %q", text)
	}
	if len(offsets) != 9 {
		t.Fatalf("expected 9 offsets, got %d", len(offsets))
	}
	if offsets[0] != 0 || offsets[1] != 1 || offsets[2] != 2 {
		t.Errorf("unexpected offsets %v", offsets[:3])
	}
}

func TestGrid_RowText_WideSpacer(t *testing.T) {
	g := New(4, 1)
	g.SetText(0, 0, "漢a", White, Black, 0)

	text, offsets := g.RowText(0)
	if text != "漢a " {
		t.Errorf("unexpected row text %q", text)
	}
	// Column 1 is the spacer: it must share the offset of column 2.
	if offsets[1] != offsets[2] {
		t.Errorf("spacer offset %d should equal next cell offset %d", offsets[1], offsets[2])
	}
}

func TestGrid_CloneEqual(t *testing.T) {
	g := New(5, 5)
	g.SetText(2, 1, "xyz", White, Black, AttrItalic)

	cp := g.Clone()
	if !g.Equal(cp) {
		t.Error("clone should equal original")
	}

	cp.SetCell(0, 0, Cell{Content: "!"})
	if g.Equal(cp) {
		t.Error("modified clone should not equal original")
	}
	if g.Cell(0, 0).Content == "!" {
		t.Error("clone should not share storage")
	}
}

func TestClusterWidth(t *testing.T) {
	tests := []struct {
		cluster string
		want    int
	}{
		{"a", 1},
		{"", 1},
		{"漢", 2},
		{"é", 1}, // e + combining acute
		{"🙂", 2},
	}
	for _, tt := range tests {
		if got := ClusterWidth(tt.cluster); got != tt.want {
			t.Errorf("ClusterWidth(%q) = %d, want %d", tt.cluster, got, tt.want)
		}
	}
}

func TestClusters(t *testing.T) {
	got := Clusters("aéb")
	if len(got) != 3 {
		t.Fatalf("expected 3 clusters, got %d: %v", len(got), got)
	}
	if got[1] != "é" {
		t.Errorf("combining sequence should stay one cluster, got %q", got[1])
	}
}

func TestSelection_Contains(t *testing.T) {
	s := Selection{StartRow: 1, StartCol: 3, EndRow: 3, EndCol: 2, Active: true}

	tests := []struct {
		row, col int
		want     bool
	}{
		{0, 5, false},  // above
		{1, 2, false},  // before start col on first row
		{1, 3, true},   // start cell
		{2, 0, true},   // full middle row
		{3, 2, true},   // end cell
		{3, 3, false},  // past end col on last row
		{4, 0, false},  // below
	}
	for _, tt := range tests {
		if got := s.Contains(tt.row, tt.col); got != tt.want {
			t.Errorf("Contains(%d,%d) = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}

	s.Active = false
	if s.Contains(2, 0) {
		t.Error("inactive selection should contain nothing")
	}
}

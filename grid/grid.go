// Package grid defines the cell-grid data model consumed by the
// rendering pipeline.
//
// The grid is produced by the terminal-emulation collaborator; the
// renderer only reads it. Cells carry their content as a grapheme
// cluster string so that combining sequences and emoji stay attached to
// one screen cell.
package grid

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Color is a 32-bit RGBA color with premultiplied-free channels.
type Color struct {
	R, G, B, A uint8
}

// Common colors used for defaults and tests.
var (
	// White is opaque white.
	White = Color{R: 255, G: 255, B: 255, A: 255}
	// Black is opaque black.
	Black = Color{R: 0, G: 0, B: 0, A: 255}
)

// Attr is a bit set of cell attribute flags.
type Attr uint8

const (
	// AttrBold renders the cell with a bold face.
	AttrBold Attr = 1 << iota
	// AttrItalic renders the cell with an italic face.
	AttrItalic
	// AttrUnderline draws an underline through the cell.
	AttrUnderline
	// AttrStrikethrough draws a strikethrough through the cell.
	AttrStrikethrough
	// AttrReverse swaps foreground and background colors.
	AttrReverse
)

// Has reports whether all flags in mask are set.
func (a Attr) Has(mask Attr) bool {
	return a&mask == mask
}

// Cell is one character cell of the terminal grid.
type Cell struct {
	// Content is the grapheme cluster displayed in the cell.
	// Empty content renders as a blank cell. A double-width cluster
	// occupies this cell and the spacer cell to its right.
	Content string

	// FG is the foreground (text) color.
	FG Color

	// BG is the background color.
	BG Color

	// Attrs holds the attribute flags.
	Attrs Attr

	// Wide marks the left half of a double-width cluster.
	// The cell to the right must be an empty spacer.
	Wide bool
}

// Equal reports whether two cells render identically.
func (c Cell) Equal(o Cell) bool {
	return c.Content == o.Content &&
		c.FG == o.FG &&
		c.BG == o.BG &&
		c.Attrs == o.Attrs &&
		c.Wide == o.Wide
}

// IsBlank reports whether the cell has no visible content.
func (c Cell) IsBlank() bool {
	return c.Content == "" || c.Content == " "
}

// ClusterWidth returns the number of grid columns the given grapheme
// cluster occupies (1 for most text, 2 for East Asian wide and emoji).
func ClusterWidth(cluster string) int {
	if cluster == "" {
		return 1
	}
	w := uniseg.StringWidth(cluster)
	if w < 1 {
		// Zero-width content (combining marks alone) still occupies
		// the cell it was written to.
		return 1
	}
	if w > 2 {
		return 2
	}
	return w
}

// Clusters splits a string into grapheme clusters.
// The terminal collaborator uses this when writing text into cells;
// the renderer uses it in tests to build grids from plain strings.
func Clusters(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Grid is a fixed-size matrix of cells.
type Grid struct {
	cols, rows int
	cells      []Cell
}

// New creates a grid of the given dimensions filled with blank cells.
// Dimensions are clamped to at least 1x1.
func New(cols, rows int) *Grid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Grid{
		cols:  cols,
		rows:  rows,
		cells: make([]Cell, cols*rows),
	}
}

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cell returns the cell at (row, col).
// Out-of-range coordinates return a blank cell.
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return Cell{}
	}
	return g.cells[row*g.cols+col]
}

// SetCell stores a cell at (row, col). Out-of-range coordinates are ignored.
func (g *Grid) SetCell(row, col int, c Cell) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return
	}
	g.cells[row*g.cols+col] = c
}

// SetText writes s into the given row starting at col, splitting it into
// grapheme clusters and honoring double-width clusters. Returns the
// column after the last written cell.
func (g *Grid) SetText(row, col int, s string, fg, bg Color, attrs Attr) int {
	for _, cluster := range Clusters(s) {
		if col >= g.cols {
			break
		}
		w := ClusterWidth(cluster)
		g.SetCell(row, col, Cell{
			Content: cluster,
			FG:      fg,
			BG:      bg,
			Attrs:   attrs,
			Wide:    w == 2,
		})
		if w == 2 && col+1 < g.cols {
			// Spacer cell to the right of a wide cluster.
			g.SetCell(row, col+1, Cell{FG: fg, BG: bg, Attrs: attrs})
		}
		col += w
	}
	return col
}

// RowText returns the text content of one row and, for cursor and
// selection mapping, the starting byte offset of each column within the
// returned string. Spacer cells after wide clusters contribute no bytes;
// their offset equals the next cell's offset. Blank cells contribute a
// single space so column positions survive round trips through shaping.
func (g *Grid) RowText(row int) (string, []int) {
	if row < 0 || row >= g.rows {
		return "", nil
	}
	var b strings.Builder
	offsets := make([]int, g.cols+1)
	skipSpacer := false
	for col := 0; col < g.cols; col++ {
		offsets[col] = b.Len()
		if skipSpacer {
			skipSpacer = false
			continue
		}
		c := g.cells[row*g.cols+col]
		if c.Content == "" {
			b.WriteByte(' ')
		} else {
			b.WriteString(c.Content)
		}
		if c.Wide {
			skipSpacer = true
		}
	}
	offsets[g.cols] = b.Len()
	return b.String(), offsets
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	cp := &Grid{
		cols:  g.cols,
		rows:  g.rows,
		cells: make([]Cell, len(g.cells)),
	}
	copy(cp.cells, g.cells)
	return cp
}

// Equal reports whether two grids have identical dimensions and cells.
func (g *Grid) Equal(o *Grid) bool {
	if o == nil || g.cols != o.cols || g.rows != o.rows {
		return false
	}
	for i := range g.cells {
		if !g.cells[i].Equal(o.cells[i]) {
			return false
		}
	}
	return true
}

// Cursor is the cursor position overlay.
type Cursor struct {
	// Row and Col locate the cursor cell.
	Row, Col int

	// Visible reports whether the cursor is currently drawn.
	Visible bool
}

// Selection is the selection overlay, expressed in cell coordinates.
// The range is inclusive on both ends and normalized (Start before End
// in reading order).
type Selection struct {
	StartRow, StartCol int
	EndRow, EndCol     int

	// Active reports whether a selection exists.
	Active bool
}

// Contains reports whether the given cell lies inside the selection.
func (s Selection) Contains(row, col int) bool {
	if !s.Active {
		return false
	}
	if row < s.StartRow || row > s.EndRow {
		return false
	}
	if row == s.StartRow && col < s.StartCol {
		return false
	}
	if row == s.EndRow && col > s.EndCol {
		return false
	}
	return true
}

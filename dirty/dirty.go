// Package dirty computes which screen regions changed between frames.
//
// The tracker diffs the current cell grid against the previous frame's
// snapshot, coalesces changed cells into rectangular regions, folds in
// cursor and selection movement, and applies the scroll shift so a
// scrolled viewport dirties only the freshly revealed rows. The
// resulting region list is deterministic: top to bottom, left to right.
package dirty

import (
	"sort"

	"github.com/merenut/QuantaTerm/grid"
)

// Region is a rectangular block of cells, all bounds inclusive.
type Region struct {
	StartRow, EndRow int
	StartCol, EndCol int
}

// Area returns the number of cells the region covers.
func (r Region) Area() int {
	return (r.EndRow - r.StartRow + 1) * (r.EndCol - r.StartCol + 1)
}

// Contains reports whether the cell lies inside the region.
func (r Region) Contains(row, col int) bool {
	return row >= r.StartRow && row <= r.EndRow && col >= r.StartCol && col <= r.EndCol
}

func (r Region) union(o Region) Region {
	return Region{
		StartRow: min(r.StartRow, o.StartRow),
		EndRow:   max(r.EndRow, o.EndRow),
		StartCol: min(r.StartCol, o.StartCol),
		EndCol:   max(r.EndCol, o.EndCol),
	}
}

// Config holds coalescing parameters.
type Config struct {
	// MergeSlack bounds region merging: two regions merge only if the
	// merged rectangle's area is at most MergeSlack times the sum of
	// their areas. Must be at least 1. Default: 2.
	MergeSlack float64

	// GapLimit is the widest run of unchanged cells bridged when
	// coalescing changed cells within one row. Default: 2.
	GapLimit int
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{MergeSlack: 2, GapLimit: 2}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MergeSlack < 1 {
		return &ConfigError{Field: "MergeSlack", Reason: "must be at least 1"}
	}
	if c.GapLimit < 0 {
		return &ConfigError{Field: "GapLimit", Reason: "must be non-negative"}
	}
	return nil
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "dirty: invalid config " + e.Field + ": " + e.Reason
}

// Frame carries the per-frame state that dirties cells beyond grid
// content: viewport scroll and the cursor/selection overlays.
type Frame struct {
	// Scroll is the number of rows the content moved up since the
	// previous frame; negative values mean it moved down.
	Scroll int

	Cursor    grid.Cursor
	Selection grid.Selection
}

// Tracker diffs successive frames. It remembers the cursor and
// selection of the last committed frame so their old positions are
// redrawn when they move; call Commit once a frame is presented.
//
// Tracker is not safe for concurrent use; one tracker belongs to one
// render pipeline.
type Tracker struct {
	cfg           Config
	prevCursor    grid.Cursor
	prevSelection grid.Selection
}

// NewTracker creates a tracker. Invalid configurations fall back to
// defaults field by field.
func NewTracker(cfg Config) *Tracker {
	if cfg.MergeSlack < 1 {
		cfg.MergeSlack = DefaultConfig().MergeSlack
	}
	if cfg.GapLimit < 0 {
		cfg.GapLimit = DefaultConfig().GapLimit
	}
	return &Tracker{cfg: cfg}
}

// Diff returns the regions of cur that must be redrawn given the
// previous frame's grid.
//
// A nil or differently sized prev dirties the whole screen. When
// frame.Scroll is set, rows are compared against their pre-scroll
// position so unchanged scrolled content stays clean and only revealed
// rows redraw. Cursor and selection movement dirty both old and new
// positions. Regions never overlap and arrive sorted top to bottom,
// left to right.
func (t *Tracker) Diff(cur, prev *grid.Grid, frame Frame) []Region {
	if cur == nil {
		return nil
	}
	cols, rows := cur.Cols(), cur.Rows()
	full := []Region{{StartRow: 0, EndRow: rows - 1, StartCol: 0, EndCol: cols - 1}}

	if prev == nil || prev.Cols() != cols || prev.Rows() != rows {
		return full
	}

	var regions []Region
	for row := 0; row < rows; row++ {
		srcRow := row + frame.Scroll
		if srcRow < 0 || srcRow >= rows {
			// Revealed by scrolling; no previous content to compare.
			regions = append(regions, Region{StartRow: row, EndRow: row, StartCol: 0, EndCol: cols - 1})
			continue
		}
		regions = t.appendRowDiff(regions, cur, prev, row, srcRow)
	}

	regions = append(regions, t.cursorRegions(frame, rows, cols)...)
	regions = append(regions, t.selectionRegions(frame, rows, cols)...)

	// Each pass removes at least one region or leaves the list alone;
	// repeating until stable guarantees the result is overlap-free.
	for {
		n := len(regions)
		regions = t.coalesce(regions)
		if len(regions) == n {
			break
		}
	}
	sortRegions(regions)
	return regions
}

// Commit records the cursor and selection of a presented frame. Callers
// invoke it alongside their previous-grid snapshot update; after a
// failed frame the tracker keeps diffing against the last presented
// overlays, so their old cells come back as damage on the retry.
func (t *Tracker) Commit(frame Frame) {
	t.prevCursor = frame.Cursor
	t.prevSelection = frame.Selection
}

// appendRowDiff scans one row and appends the changed-cell runs,
// bridging gaps of up to GapLimit unchanged cells.
func (t *Tracker) appendRowDiff(regions []Region, cur, prev *grid.Grid, row, srcRow int) []Region {
	runStart, runEnd := -1, -1
	for col := 0; col < cur.Cols(); col++ {
		if cur.Cell(row, col).Equal(prev.Cell(srcRow, col)) {
			continue
		}
		if runStart >= 0 && col-runEnd-1 > t.cfg.GapLimit {
			regions = append(regions, Region{StartRow: row, EndRow: row, StartCol: runStart, EndCol: runEnd})
			runStart = col
		}
		if runStart < 0 {
			runStart = col
		}
		runEnd = col
	}
	if runStart >= 0 {
		regions = append(regions, Region{StartRow: row, EndRow: row, StartCol: runStart, EndCol: runEnd})
	}
	return regions
}

// cursorRegions dirties the previous and current cursor cells when
// either is visible and they differ.
func (t *Tracker) cursorRegions(frame Frame, rows, cols int) []Region {
	var out []Region
	add := func(c grid.Cursor) {
		if !c.Visible || c.Row < 0 || c.Row >= rows || c.Col < 0 || c.Col >= cols {
			return
		}
		out = append(out, Region{StartRow: c.Row, EndRow: c.Row, StartCol: c.Col, EndCol: c.Col})
	}
	if t.prevCursor != frame.Cursor {
		add(t.prevCursor)
		add(frame.Cursor)
	} else {
		// An unmoved visible cursor still needs its cell current when
		// the content under it changed; the row diff covers that.
		return nil
	}
	return out
}

// selectionRegions dirties every row span where the old and new
// selections disagree.
func (t *Tracker) selectionRegions(frame Frame, rows, cols int) []Region {
	if t.prevSelection == frame.Selection {
		return nil
	}
	var out []Region
	for row := 0; row < rows; row++ {
		oldStart, oldEnd, oldOK := selectionSpan(t.prevSelection, row, cols)
		newStart, newEnd, newOK := selectionSpan(frame.Selection, row, cols)
		switch {
		case !oldOK && !newOK:
			continue
		case oldOK && newOK && oldStart == newStart && oldEnd == newEnd:
			continue
		}
		r := Region{StartRow: row, EndRow: row, StartCol: cols - 1, EndCol: 0}
		if oldOK {
			r.StartCol = min(r.StartCol, oldStart)
			r.EndCol = max(r.EndCol, oldEnd)
		}
		if newOK {
			r.StartCol = min(r.StartCol, newStart)
			r.EndCol = max(r.EndCol, newEnd)
		}
		out = append(out, r)
	}
	return out
}

// selectionSpan returns the selected column range on a row. Rows
// strictly between the endpoints are selected across their full width.
func selectionSpan(s grid.Selection, row, cols int) (start, end int, ok bool) {
	if !s.Active || row < s.StartRow || row > s.EndRow {
		return 0, 0, false
	}
	start, end = 0, cols-1
	if row == s.StartRow {
		start = s.StartCol
	}
	if row == s.EndRow {
		end = s.EndCol
	}
	return start, end, true
}

// coalesce merges overlapping regions unconditionally and adjacent
// regions when the merged rectangle wastes little area.
func (t *Tracker) coalesce(regions []Region) []Region {
	if len(regions) < 2 {
		return regions
	}
	sortRegions(regions)

	out := regions[:1]
	for _, r := range regions[1:] {
		last := &out[len(out)-1]
		switch {
		case overlaps(*last, r):
			*last = last.union(r)
		case r.StartRow <= last.EndRow+1 && mergeWorthwhile(*last, r, t.cfg.MergeSlack):
			*last = last.union(r)
		default:
			out = append(out, r)
		}
	}
	return out
}

func overlaps(a, b Region) bool {
	return a.StartRow <= b.EndRow && b.StartRow <= a.EndRow &&
		a.StartCol <= b.EndCol && b.StartCol <= a.EndCol
}

// mergeWorthwhile applies the slack bound: merging may grow the total
// area by at most the configured factor.
func mergeWorthwhile(a, b Region, slack float64) bool {
	return float64(a.union(b).Area()) <= slack*float64(a.Area()+b.Area())
}

func sortRegions(regions []Region) {
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].StartRow != regions[j].StartRow {
			return regions[i].StartRow < regions[j].StartRow
		}
		return regions[i].StartCol < regions[j].StartCol
	})
}

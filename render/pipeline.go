// Package render drives the frame loop: it diffs the cell grid, shapes
// the affected rows, pulls glyph bitmaps through the atlas and turns
// the result into vertex quads for the GPU device.
//
// Frames are partial by default. Only dirty regions are re-tessellated;
// when the dirty area crosses a configurable fraction of the screen, or
// the region list grows too long, the pipeline falls back to one full
// redraw. Both paths produce identical pixels because every row is
// shaped whole and glyphs are merely filtered by column afterwards.
package render

import (
	"fmt"
	"math"
	"sort"
	"time"

	qt "github.com/merenut/QuantaTerm"
	"github.com/merenut/QuantaTerm/atlas"
	"github.com/merenut/QuantaTerm/dirty"
	"github.com/merenut/QuantaTerm/font"
	"github.com/merenut/QuantaTerm/gpu"
	"github.com/merenut/QuantaTerm/grid"
	"github.com/merenut/QuantaTerm/shape"
)

// Metrics is a per-frame snapshot of pipeline behavior.
type Metrics struct {
	// Regions is the number of dirty regions this frame produced
	// before any full-redraw fallback.
	Regions int

	// FullRedraw reports whether the frame fell back to a full redraw.
	FullRedraw bool

	// FrameTime is the CPU time spent building the frame.
	FrameTime time.Duration

	// Frames counts successfully presented frames.
	Frames uint64

	// Shaping and Atlas expose the cache statistics of the shaper and
	// the glyph atlas.
	Shaping shape.CacheStats
	Atlas   atlas.Stats
}

// Pipeline renders cell grids through a gpu.Device.
//
// Pipeline is not safe for concurrent use; frames are serialized by the
// caller's render loop.
type Pipeline struct {
	cfg      Config
	device   gpu.Device
	resolver *font.Resolver
	shaper   *shape.Shaper
	atlas    *atlas.Atlas
	tracker  *dirty.Tracker

	tex  *gpu.Texture
	prev *grid.Grid

	// Cell geometry, derived from the primary font.
	cellW   float64
	cellH   float64
	ascent  float64
	baseKey font.Key

	bgVerts    []gpu.Vertex
	glyphVerts []gpu.Vertex
	frames     uint64
}

// NewPipeline creates a pipeline drawing through device.
func NewPipeline(device gpu.Device, cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if device == nil {
		return nil, &ConfigError{Field: "device", Reason: "must not be nil"}
	}

	fonts := cfg.Fonts
	if fonts.FallbackFamilies == nil {
		fonts.FallbackFamilies = cfg.Font.FallbackFamilies
	}
	resolver := font.NewResolver(fonts)

	a, err := atlas.New(cfg.Atlas)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:      cfg,
		device:   device,
		resolver: resolver,
		shaper: shape.NewShaper(resolver, shape.Options{
			Ligatures: cfg.Font.Ligatures,
			Features:  cfg.Font.Features,
		}),
		atlas:   a,
		tracker: dirty.NewTracker(cfg.Dirty),
		baseKey: font.NewKey(cfg.Font.Family, font.StyleNormal, font.WeightNormal, cfg.Font.Size),
	}

	primary, err := resolver.Resolve(p.baseKey)
	if err != nil {
		return nil, fmt.Errorf("render: resolving primary font: %w", err)
	}
	m := primary.Metrics(cfg.Font.Size)
	p.cellW = primary.CellAdvance(cfg.Font.Size)
	p.cellH = m.LineHeight()
	p.ascent = m.Ascent

	qt.Logger().Info("render: pipeline ready",
		"family", primary.Family(),
		"cell_w", p.cellW,
		"cell_h", p.cellH)
	return p, nil
}

// CellSize returns the pixel size of one grid cell.
func (p *Pipeline) CellSize() (w, h float64) { return p.cellW, p.cellH }

// Atlas exposes the glyph atlas for diagnostics.
func (p *Pipeline) Atlas() *atlas.Atlas { return p.atlas }

// Invalidate drops the previous-frame snapshot so the next frame
// redraws the whole screen.
func (p *Pipeline) Invalidate() { p.prev = nil }

// RenderFrame diffs g against the previously presented grid, draws the
// changed regions and presents the frame.
//
// On error nothing is presented and the previous snapshot is kept, so
// the next frame retries the same damage. A full grid pass happens on
// the first frame, after Invalidate, on resize, and whenever the dirty
// area or region count crosses the configured fallback thresholds.
func (p *Pipeline) RenderFrame(g *grid.Grid, frame dirty.Frame) (Metrics, error) {
	start := time.Now()
	m := Metrics{Frames: p.frames}
	if g == nil {
		return m, nil
	}

	regions := p.tracker.Diff(g, p.prev, frame)
	m.Regions = len(regions)
	if len(regions) == 0 {
		m.FrameTime = time.Since(start)
		return p.finish(m), nil
	}

	area := 0
	for _, r := range regions {
		area += r.Area()
	}
	screen := g.Rows() * g.Cols()
	if float64(area) >= p.cfg.FullRedrawRatio*float64(screen) || len(regions) > p.cfg.MaxRegions {
		m.FullRedraw = true
		regions = []dirty.Region{{EndRow: g.Rows() - 1, EndCol: g.Cols() - 1}}
		qt.Logger().Warn("render: falling back to full redraw",
			"dirty_area", area,
			"screen_area", screen,
			"regions", m.Regions)
	}

	spans := p.rowSpans(g, regions)

	// Growth or eviction during the build regenerates the atlas and
	// stales the UVs collected so far, so rebuild until the generation
	// holds still. The second pass finds every glyph resident, which
	// bounds the loop in practice.
	for attempt := 0; ; attempt++ {
		gen := p.atlas.Generation()
		if err := p.buildSpans(g, spans, frame); err != nil {
			return m, err
		}
		if p.atlas.Generation() == gen || attempt >= 2 {
			break
		}
	}

	if err := p.syncAtlasTexture(); err != nil {
		return m, err
	}

	verts := make([]gpu.Vertex, 0, len(p.bgVerts)+len(p.glyphVerts))
	verts = append(verts, p.bgVerts...)
	verts = append(verts, p.glyphVerts...)
	if err := p.device.WriteVertices(verts); err != nil {
		return m, err
	}
	calls := []gpu.DrawCall{
		{FirstVertex: 0, VertexCount: len(p.bgVerts)},
		{Texture: p.tex, FirstVertex: len(p.bgVerts), VertexCount: len(p.glyphVerts)},
	}
	if err := p.device.Draw(calls); err != nil {
		return m, err
	}

	p.prev = g.Clone()
	p.tracker.Commit(frame)
	p.frames++
	m.FrameTime = time.Since(start)
	return p.finish(m), nil
}

func (p *Pipeline) finish(m Metrics) Metrics {
	m.Frames = p.frames
	m.Shaping = p.shaper.CacheStats()
	m.Atlas = p.atlas.Stats()
	return m
}

// rowSpan is one contiguous column range of one row scheduled for
// repaint.
type rowSpan struct {
	row      int
	col0     int
	col1     int // inclusive
}

// rowSpans expands the dirty regions by the overdraw margin, widens
// them over wide-cluster boundaries and merges per-row overlaps so no
// cell is painted twice in a frame.
func (p *Pipeline) rowSpans(g *grid.Grid, regions []dirty.Region) []rowSpan {
	var spans []rowSpan
	for _, r := range regions {
		c0 := max(0, r.StartCol-p.cfg.Overdraw)
		c1 := min(g.Cols()-1, r.EndCol+p.cfg.Overdraw)
		for row := r.StartRow; row <= r.EndRow; row++ {
			s0, s1 := c0, c1
			if s0 > 0 && g.Cell(row, s0-1).Wide {
				s0--
			}
			if g.Cell(row, s1).Wide && s1+1 < g.Cols() {
				s1++
			}
			spans = append(spans, rowSpan{row: row, col0: s0, col1: s1})
		}
	}

	// Regions are non-overlapping rectangles, but per-row expansion can
	// make spans from different regions touch or overlap.
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].row != spans[j].row {
			return spans[i].row < spans[j].row
		}
		return spans[i].col0 < spans[j].col0
	})
	var merged []rowSpan
	for _, s := range spans {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.row == s.row && s.col0 <= last.col1+1 {
				last.col1 = max(last.col1, s.col1)
				continue
			}
		}
		merged = append(merged, s)
	}
	return merged
}

// buildSpans tessellates the spans into the background and glyph vertex
// buffers.
func (p *Pipeline) buildSpans(g *grid.Grid, spans []rowSpan, frame dirty.Frame) error {
	p.bgVerts = p.bgVerts[:0]
	p.glyphVerts = p.glyphVerts[:0]
	for _, s := range spans {
		if err := p.buildRow(g, s, frame); err != nil {
			return err
		}
	}
	return nil
}

// buildRow draws the backgrounds, decorations and glyphs of one span.
// The whole row is shaped regardless of the span so partial repaints
// see the same shaping context as full ones; glyphs are then filtered
// by column.
func (p *Pipeline) buildRow(g *grid.Grid, s rowSpan, frame dirty.Frame) error {
	row := s.row
	y0 := float32(float64(row) * p.cellH)
	y1 := float32(float64(row+1) * p.cellH)
	baseline := float64(row)*p.cellH + p.ascent

	for col := s.col0; col <= s.col1; col++ {
		cell := g.Cell(row, col)
		fg, bg := p.cellColors(cell, row, col, frame)
		x0 := float32(float64(col) * p.cellW)
		x1 := float32(float64(col+1) * p.cellW)
		p.bgVerts = appendQuad(p.bgVerts, x0, y0, x1, y1, [4]float32{}, bg)
		p.appendDecorations(cell, row, col, fg)
	}

	line, offsets := g.RowText(row)
	colOf := columnOfByte(offsets, len(line))

	for _, group := range p.styleGroups(g, row) {
		sub := line[offsets[group.col0]:offsets[group.col1+1]]
		shaped, err := p.shaper.ShapeLine(sub, group.key)
		if err != nil {
			return fmt.Errorf("render: shaping row %d: %w", row, err)
		}
		base := offsets[group.col0]
		for _, run := range shaped.Runs {
			for _, gl := range run.Glyphs {
				col := colOf[base+gl.Cluster]
				if col < s.col0 || col > s.col1 {
					continue
				}
				cell := g.Cell(row, col)
				fg, _ := p.cellColors(cell, row, col, frame)
				if err := p.appendGlyph(run.Font, group.key, gl, col, baseline, fg); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// appendGlyph pulls one glyph through the atlas and emits its quad.
func (p *Pipeline) appendGlyph(src *font.Source, key font.Key, gl shape.Glyph, col int, baseline float64, fg [4]float32) error {
	penX := float64(col)*p.cellW + gl.XOffset
	akey := atlas.GlyphKey{
		FontID: src.ID(),
		GID:    gl.GID,
		Size64: key.Size64,
		Phase:  atlas.PhaseOf(penX),
	}
	region, err := p.atlas.GetOrInsert(akey, rasterizer(src, key))
	if err != nil {
		return fmt.Errorf("render: glyph %d: %w", gl.GID, err)
	}
	if region.Empty {
		return nil
	}

	x0 := float32(math.Floor(penX) + float64(region.Left))
	y0 := float32(math.Round(baseline+gl.YOffset) + float64(region.Top))
	x1 := x0 + float32(region.Width)
	y1 := y0 + float32(region.Height)
	p.glyphVerts = appendQuad(p.glyphVerts, x0, y0, x1, y1, region.UV, fg)
	return nil
}

// appendDecorations emits underline and strikethrough bars for a cell.
func (p *Pipeline) appendDecorations(cell grid.Cell, row, col int, fg [4]float32) {
	if !cell.Attrs.Has(grid.AttrUnderline) && !cell.Attrs.Has(grid.AttrStrikethrough) {
		return
	}
	x0 := float32(float64(col) * p.cellW)
	x1 := float32(float64(col+1) * p.cellW)
	thickness := float32(max(1, int(p.cfg.Font.Size/14+0.5)))
	baseline := float32(float64(row)*p.cellH + p.ascent)

	if cell.Attrs.Has(grid.AttrUnderline) {
		y := baseline + 1
		p.bgVerts = appendQuad(p.bgVerts, x0, y, x1, y+thickness, [4]float32{}, fg)
	}
	if cell.Attrs.Has(grid.AttrStrikethrough) {
		y := baseline - float32(p.ascent*0.3)
		p.bgVerts = appendQuad(p.bgVerts, x0, y, x1, y+thickness, [4]float32{}, fg)
	}
}

// cellColors resolves the effective foreground and background of a
// cell, applying default colors and reverse video from the cell
// attribute, the selection and the cursor. Two reversals cancel.
func (p *Pipeline) cellColors(cell grid.Cell, row, col int, frame dirty.Frame) (fg, bg [4]float32) {
	f, b := cell.FG, cell.BG
	if f.A == 0 {
		f = p.cfg.Foreground
	}
	if b.A == 0 {
		b = p.cfg.Background
	}
	rev := cell.Attrs.Has(grid.AttrReverse)
	if frame.Selection.Contains(row, col) {
		rev = !rev
	}
	if frame.Cursor.Visible && frame.Cursor.Row == row && frame.Cursor.Col == col {
		rev = !rev
	}
	if rev {
		f, b = b, f
	}
	return colorVec(f), colorVec(b)
}

// styleGroup is a run of columns sharing one font key.
type styleGroup struct {
	col0 int
	col1 int // inclusive
	key  font.Key
}

// styleGroups splits a row into maximal column runs whose cells demand
// the same face. Spacer cells after wide clusters inherit the wide
// cell's attributes, so they never break a group.
func (p *Pipeline) styleGroups(g *grid.Grid, row int) []styleGroup {
	var groups []styleGroup
	for col := 0; col < g.Cols(); col++ {
		key := p.styleKey(g.Cell(row, col).Attrs)
		if n := len(groups); n > 0 && groups[n-1].key == key {
			groups[n-1].col1 = col
			continue
		}
		groups = append(groups, styleGroup{col0: col, col1: col, key: key})
	}
	return groups
}

// styleKey derives the font key for a cell's bold and italic flags.
func (p *Pipeline) styleKey(attrs grid.Attr) font.Key {
	style := font.StyleNormal
	if attrs.Has(grid.AttrItalic) {
		style = font.StyleItalic
	}
	weight := font.WeightNormal
	if attrs.Has(grid.AttrBold) {
		weight = font.WeightBold
	}
	if style == font.StyleNormal && weight == font.WeightNormal {
		return p.baseKey
	}
	return font.NewKey(p.cfg.Font.Family, style, weight, p.cfg.Font.Size)
}

// rasterizer adapts a font source to the atlas callback.
func rasterizer(src *font.Source, key font.Key) atlas.RasterizeFunc {
	return func(k atlas.GlyphKey) (*font.GlyphImage, error) {
		return src.RasterizeGlyph(k.GID, key.SizePts(), atlas.PhaseOffset(k.Phase))
	}
}

// syncAtlasTexture pushes atlas changes to the device, recreating the
// texture when the atlas resized.
func (p *Pipeline) syncAtlasTexture() error {
	size := p.atlas.Size()
	if p.tex == nil || p.tex.Width() != size {
		if p.tex != nil {
			p.tex.Release()
		}
		tex, err := p.device.CreateTexture(gpu.TextureConfig{
			Width:  size,
			Height: size,
			Format: gpu.TextureFormatR8,
			Label:  "glyph-atlas",
		})
		if err != nil {
			return fmt.Errorf("render: creating atlas texture: %w", err)
		}
		p.tex = tex
		p.atlas.TakeDirty()
		return p.device.WriteTexture(tex, p.atlas.Data(), nil)
	}

	rects := p.atlas.TakeDirty()
	if len(rects) == 0 {
		return nil
	}
	uploads := make([]gpu.UploadRect, len(rects))
	for i, r := range rects {
		uploads[i] = gpu.UploadRect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	return p.device.WriteTexture(p.tex, p.atlas.Data(), uploads)
}

// colorVec converts an 8-bit color to normalized RGBA.
func colorVec(c grid.Color) [4]float32 {
	return [4]float32{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

// columnOfByte maps every byte offset of a row's text to the column of
// the cluster it belongs to. Spacer columns contribute no bytes and are
// skipped.
func columnOfByte(offsets []int, n int) []int {
	colOf := make([]int, n+1)
	for col := 0; col+1 < len(offsets); col++ {
		for b := offsets[col]; b < offsets[col+1]; b++ {
			colOf[b] = col
		}
	}
	if n > 0 {
		colOf[n] = colOf[n-1]
	}
	return colOf
}

// appendQuad emits the two triangles of an axis-aligned rectangle.
// uv is [u0, v0, u1, v1]; an all-zero uv paired with a nil-texture draw
// call fills solid.
func appendQuad(verts []gpu.Vertex, x0, y0, x1, y1 float32, uv [4]float32, color [4]float32) []gpu.Vertex {
	return append(verts,
		gpu.Vertex{X: x0, Y: y0, U: uv[0], V: uv[1], Color: color},
		gpu.Vertex{X: x1, Y: y0, U: uv[2], V: uv[1], Color: color},
		gpu.Vertex{X: x0, Y: y1, U: uv[0], V: uv[3], Color: color},
		gpu.Vertex{X: x1, Y: y0, U: uv[2], V: uv[1], Color: color},
		gpu.Vertex{X: x1, Y: y1, U: uv[2], V: uv[3], Color: color},
		gpu.Vertex{X: x0, Y: y1, U: uv[0], V: uv[3], Color: color},
	)
}

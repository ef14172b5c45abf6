package gpu

import (
	"errors"
	"math"
)

// ErrVertexRange is returned when a draw call addresses vertices
// outside the written buffer.
var ErrVertexRange = errors.New("gpu: draw call outside vertex buffer")

// SoftwareDevice implements Device on a CPU framebuffer. Glyph quads
// are sampled nearest-neighbor from the texture staging data, which is
// exact for the pipeline's 1:1 texel-to-pixel quads. It backs tests
// and headless rendering.
type SoftwareDevice struct {
	width  int
	height int
	fb     []byte // RGBA, row-major

	verts []Vertex
	draws int
}

// NewSoftwareDevice creates a software device with a cleared
// framebuffer of the given pixel size.
func NewSoftwareDevice(width, height int) *SoftwareDevice {
	return &SoftwareDevice{
		width:  width,
		height: height,
		fb:     make([]byte, width*height*4),
	}
}

// CreateTexture implements Device.
func (d *SoftwareDevice) CreateTexture(config TextureConfig) (*Texture, error) {
	return NewTexture(config)
}

// WriteTexture implements Device.
func (d *SoftwareDevice) WriteTexture(t *Texture, data []byte, rects []UploadRect) error {
	return t.Upload(data, rects...)
}

// WriteVertices implements Device.
func (d *SoftwareDevice) WriteVertices(verts []Vertex) error {
	d.verts = append(d.verts[:0], verts...)
	return nil
}

// Draw implements Device.
func (d *SoftwareDevice) Draw(calls []DrawCall) error {
	for _, call := range calls {
		if call.FirstVertex < 0 || call.FirstVertex+call.VertexCount > len(d.verts) {
			return ErrVertexRange
		}
		for i := call.FirstVertex; i+6 <= call.FirstVertex+call.VertexCount; i += 6 {
			d.drawQuad(call.Texture, d.verts[i:i+6])
		}
		d.draws++
	}
	return nil
}

// drawQuad rasterizes one axis-aligned quad.
func (d *SoftwareDevice) drawQuad(tex *Texture, quad []Vertex) {
	minX, minY := quad[0].X, quad[0].Y
	maxX, maxY := minX, minY
	minU, minV := quad[0].U, quad[0].V
	for _, v := range quad[1:] {
		minX, maxX = min(minX, v.X), max(maxX, v.X)
		minY, maxY = min(minY, v.Y), max(maxY, v.Y)
		minU = min(minU, v.U)
		minV = min(minV, v.V)
	}

	x0 := int(math.Round(float64(minX)))
	y0 := int(math.Round(float64(minY)))
	x1 := int(math.Round(float64(maxX)))
	y1 := int(math.Round(float64(maxY)))
	color := quad[0].Color

	var staging []byte
	var texW, tu, tv int
	if tex != nil {
		staging = tex.Staging()
		texW = tex.Width()
		tu = int(math.Round(float64(minU) * float64(texW)))
		tv = int(math.Round(float64(minV) * float64(tex.Height())))
	}

	for y := y0; y < y1; y++ {
		if y < 0 || y >= d.height {
			continue
		}
		for x := x0; x < x1; x++ {
			if x < 0 || x >= d.width {
				continue
			}
			alpha := color[3]
			if tex != nil {
				sx, sy := tu+(x-x0), tv+(y-y0)
				if sx < 0 || sy < 0 || sy*texW+sx >= len(staging) {
					continue
				}
				alpha *= float32(staging[sy*texW+sx]) / 255
			}
			d.blend(x, y, color, alpha)
		}
	}
}

// blend applies source-over compositing at one pixel.
func (d *SoftwareDevice) blend(x, y int, color [4]float32, alpha float32) {
	if alpha <= 0 {
		return
	}
	off := (y*d.width + x) * 4
	for c := 0; c < 3; c++ {
		src := color[c] * 255 * alpha
		dst := float32(d.fb[off+c]) * (1 - alpha)
		d.fb[off+c] = byte(min(src+dst, 255))
	}
	a := alpha*255 + float32(d.fb[off+3])*(1-alpha)
	d.fb[off+3] = byte(min(a, 255))
}

// Framebuffer exposes the RGBA framebuffer, row-major.
func (d *SoftwareDevice) Framebuffer() []byte { return d.fb }

// Pixel returns the RGBA value at (x, y).
func (d *SoftwareDevice) Pixel(x, y int) [4]byte {
	off := (y*d.width + x) * 4
	return [4]byte{d.fb[off], d.fb[off+1], d.fb[off+2], d.fb[off+3]}
}

// Clear resets the framebuffer to transparent black.
func (d *SoftwareDevice) Clear() {
	clear(d.fb)
}

// Draws returns the number of draw calls executed.
func (d *SoftwareDevice) Draws() int { return d.draws }

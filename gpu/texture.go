// Package gpu is the thin device abstraction the render pipeline draws
// through. It tracks logical textures with CPU staging data and wgpu
// handle IDs, records sub-region uploads, and defines the vertex and
// draw-call formats handed to the device. A software device renders
// frames into a plain byte framebuffer for tests and headless use.
package gpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// Texture-related errors.
var (
	// ErrTextureReleased is returned when operating on a released texture.
	ErrTextureReleased = errors.New("gpu: texture has been released")

	// ErrSizeMismatch is returned when upload data does not match the
	// texture dimensions.
	ErrSizeMismatch = errors.New("gpu: data size does not match texture")

	// ErrInvalidDimensions is returned for non-positive texture sizes.
	ErrInvalidDimensions = errors.New("gpu: invalid texture dimensions")

	// ErrNilData is returned when upload data is nil.
	ErrNilData = errors.New("gpu: upload data is nil")
)

// TextureFormat represents the pixel format of a texture.
type TextureFormat uint8

const (
	// TextureFormatR8 is single-channel 8-bit coverage, the glyph
	// atlas format.
	TextureFormatR8 TextureFormat = iota

	// TextureFormatRGBA8 is standard RGBA with 8 bits per channel.
	TextureFormatRGBA8

	// TextureFormatBGRA8 is BGRA, common for surface presentation.
	TextureFormatBGRA8
)

// String returns a human-readable name for the format.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatR8:
		return "R8"
	case TextureFormatRGBA8:
		return "RGBA8"
	case TextureFormatBGRA8:
		return "BGRA8"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f TextureFormat) BytesPerPixel() int {
	if f == TextureFormatR8 {
		return 1
	}
	return 4
}

// ToWGPUFormat converts to the wgpu texture format.
func (f TextureFormat) ToWGPUFormat() gputypes.TextureFormat {
	switch f {
	case TextureFormatR8:
		return gputypes.TextureFormatR8Unorm
	case TextureFormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// UploadRect is a sub-region of a texture scheduled for upload.
type UploadRect struct {
	X, Y, Width, Height int
}

// TextureConfig holds parameters for creating a texture.
type TextureConfig struct {
	Width  int
	Height int
	Format TextureFormat

	// Label is an optional debug label.
	Label string

	// Usage defaults to CopyDst | TextureBinding.
	Usage gputypes.TextureUsage
}

// DefaultTextureUsage is applied when TextureConfig.Usage is zero.
const DefaultTextureUsage = gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding

// Texture is a logical GPU texture: wgpu handle IDs plus a CPU staging
// buffer and the list of regions changed since the last flush. Handle
// IDs stay zero until a real wgpu device backs the texture; the
// staging path works either way.
//
// Texture is safe for concurrent reads. Uploads and Release must be
// synchronized externally.
type Texture struct {
	mu sync.RWMutex

	textureID core.TextureID
	viewID    core.TextureViewID

	width  int
	height int
	format TextureFormat
	label  string

	staging []byte
	pending []UploadRect

	released atomic.Bool
}

// NewTexture creates a logical texture with zeroed staging data.
func NewTexture(config TextureConfig) (*Texture, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if config.Usage == 0 {
		config.Usage = DefaultTextureUsage
	}
	return &Texture{
		width:   config.Width,
		height:  config.Height,
		format:  config.Format,
		label:   config.Label,
		staging: make([]byte, config.Width*config.Height*config.Format.BytesPerPixel()),
	}, nil
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the pixel format.
func (t *Texture) Format() TextureFormat { return t.format }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// SizeBytes returns the staging buffer size.
func (t *Texture) SizeBytes() int { return len(t.staging) }

// TextureID returns the wgpu texture handle, zero for logical textures.
func (t *Texture) TextureID() core.TextureID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.textureID
}

// ViewID returns the wgpu texture view handle, zero for logical
// textures.
func (t *Texture) ViewID() core.TextureViewID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.viewID
}

// IsReleased reports whether Release has been called.
func (t *Texture) IsReleased() bool { return t.released.Load() }

// Release drops the staging data and marks the texture unusable.
func (t *Texture) Release() {
	if t.released.Swap(true) {
		return
	}
	t.mu.Lock()
	t.staging = nil
	t.pending = nil
	t.mu.Unlock()
}

// Upload copies pixel data into the staging buffer and records the
// regions for the next flush. data must cover the full texture; rects
// select which parts of it changed. With no rects the whole texture is
// re-uploaded.
func (t *Texture) Upload(data []byte, rects ...UploadRect) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if data == nil {
		return ErrNilData
	}
	if len(data) != len(t.staging) {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrSizeMismatch, len(t.staging), len(data))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(rects) == 0 {
		copy(t.staging, data)
		t.pending = []UploadRect{{Width: t.width, Height: t.height}}
		return nil
	}

	bpp := t.format.BytesPerPixel()
	for _, r := range rects {
		if r.X < 0 || r.Y < 0 || r.X+r.Width > t.width || r.Y+r.Height > t.height {
			return fmt.Errorf("%w: rect %+v outside %dx%d", ErrSizeMismatch, r, t.width, t.height)
		}
		for row := r.Y; row < r.Y+r.Height; row++ {
			off := (row*t.width + r.X) * bpp
			copy(t.staging[off:off+r.Width*bpp], data[off:off+r.Width*bpp])
		}
		t.pending = append(t.pending, r)
	}
	return nil
}

// Staging exposes the CPU copy of the texture. The slice is owned by
// the texture.
func (t *Texture) Staging() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.staging
}

// TakePending returns the regions uploaded since the last call and
// clears the list.
func (t *Texture) TakePending() []UploadRect {
	t.mu.Lock()
	defer t.mu.Unlock()
	rects := t.pending
	t.pending = nil
	return rects
}

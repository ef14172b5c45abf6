package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

func TestTextureFormat(t *testing.T) {
	tests := []struct {
		format TextureFormat
		name   string
		bpp    int
		wgpu   gputypes.TextureFormat
	}{
		{TextureFormatR8, "R8", 1, gputypes.TextureFormatR8Unorm},
		{TextureFormatRGBA8, "RGBA8", 4, gputypes.TextureFormatRGBA8Unorm},
		{TextureFormatBGRA8, "BGRA8", 4, gputypes.TextureFormatBGRA8Unorm},
	}
	for _, tt := range tests {
		if got := tt.format.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.format.BytesPerPixel(); got != tt.bpp {
			t.Errorf("%v BytesPerPixel() = %d, want %d", tt.format, got, tt.bpp)
		}
		if got := tt.format.ToWGPUFormat(); got != tt.wgpu {
			t.Errorf("%v ToWGPUFormat() = %v, want %v", tt.format, got, tt.wgpu)
		}
	}
}

func TestNewTexture_Validation(t *testing.T) {
	if _, err := NewTexture(TextureConfig{Width: 0, Height: 8}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("expected ErrInvalidDimensions, got %v", err)
	}
	tex, err := NewTexture(TextureConfig{Width: 8, Height: 4, Format: TextureFormatR8, Label: "atlas"})
	if err != nil {
		t.Fatal(err)
	}
	if tex.SizeBytes() != 32 {
		t.Errorf("R8 8x4 staging = %d bytes, want 32", tex.SizeBytes())
	}
	if tex.Label() != "atlas" {
		t.Errorf("label = %q", tex.Label())
	}
	if tex.TextureID() != (core.TextureID{}) || tex.ViewID() != (core.TextureViewID{}) {
		t.Error("logical textures carry zero handles")
	}
}

func TestTexture_UploadFull(t *testing.T) {
	tex, _ := NewTexture(TextureConfig{Width: 4, Height: 4, Format: TextureFormatR8})

	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	if err := tex.Upload(data); err != nil {
		t.Fatal(err)
	}
	if got := tex.Staging()[5]; got != 5 {
		t.Errorf("staging[5] = %d, want 5", got)
	}

	pending := tex.TakePending()
	if len(pending) != 1 || pending[0].Width != 4 || pending[0].Height != 4 {
		t.Errorf("full upload should record one full rect, got %v", pending)
	}
	if len(tex.TakePending()) != 0 {
		t.Error("TakePending should drain")
	}
}

func TestTexture_UploadRect(t *testing.T) {
	tex, _ := NewTexture(TextureConfig{Width: 4, Height: 4, Format: TextureFormatR8})

	data := make([]byte, 16)
	for i := range data {
		data[i] = 0xFF
	}
	if err := tex.Upload(data, UploadRect{X: 1, Y: 1, Width: 2, Height: 2}); err != nil {
		t.Fatal(err)
	}

	staging := tex.Staging()
	if staging[1*4+1] != 0xFF || staging[2*4+2] != 0xFF {
		t.Error("rect interior not copied")
	}
	if staging[0] != 0 || staging[3*4+3] != 0 {
		t.Error("pixels outside the rect must not change")
	}
}

func TestTexture_UploadErrors(t *testing.T) {
	tex, _ := NewTexture(TextureConfig{Width: 4, Height: 4, Format: TextureFormatR8})

	if err := tex.Upload(nil); !errors.Is(err, ErrNilData) {
		t.Errorf("nil data: got %v", err)
	}
	if err := tex.Upload(make([]byte, 3)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("short data: got %v", err)
	}
	err := tex.Upload(make([]byte, 16), UploadRect{X: 3, Y: 0, Width: 2, Height: 1})
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("out-of-bounds rect: got %v", err)
	}

	tex.Release()
	if !tex.IsReleased() {
		t.Error("IsReleased after Release")
	}
	if err := tex.Upload(make([]byte, 16)); !errors.Is(err, ErrTextureReleased) {
		t.Errorf("upload after release: got %v", err)
	}
}

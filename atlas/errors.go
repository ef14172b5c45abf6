package atlas

import (
	"errors"
	"fmt"
)

// ErrAtlasExhausted is returned when a glyph cannot be stored even
// after growing to the configured maximum and evicting every evictable
// shelf. The caller cannot recover by retrying; rendering must stop.
var ErrAtlasExhausted = errors.New("atlas: glyph storage exhausted")

// ExhaustedError carries the failing request alongside
// ErrAtlasExhausted.
type ExhaustedError struct {
	// GlyphWidth and GlyphHeight are the dimensions of the rejected
	// bitmap, including padding.
	GlyphWidth  int
	GlyphHeight int

	// Size is the atlas dimension at the time of failure.
	Size int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("atlas: cannot place %dx%d glyph in %dx%d texture at maximum size",
		e.GlyphWidth, e.GlyphHeight, e.Size, e.Size)
}

func (e *ExhaustedError) Unwrap() error { return ErrAtlasExhausted }

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config " + e.Field + ": " + e.Reason
}

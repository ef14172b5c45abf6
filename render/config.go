package render

import (
	"fmt"

	"github.com/merenut/QuantaTerm/atlas"
	"github.com/merenut/QuantaTerm/dirty"
	"github.com/merenut/QuantaTerm/font"
	"github.com/merenut/QuantaTerm/grid"
)

// Defaults for Config fields left zero.
const (
	// DefaultFullRedrawRatio is the dirty-area fraction above which a
	// full redraw beats per-region updates.
	DefaultFullRedrawRatio = 0.6

	// DefaultMaxRegions caps the number of regions drawn individually
	// before falling back to a full redraw.
	DefaultMaxRegions = 64

	// DefaultOverdraw is how many columns each region is widened on
	// both sides so glyphs overhanging their cell are repainted.
	DefaultOverdraw = 1
)

// Config holds the render pipeline configuration.
type Config struct {
	// Font is the font configuration (family, size, ligatures,
	// fallback chain).
	Font font.Config

	// Fonts configures font discovery. A nil Paths resolver scans the
	// platform font directories.
	Fonts font.ResolverConfig

	// Atlas configures the glyph atlas texture.
	Atlas atlas.Config

	// Dirty configures region diffing and coalescing.
	Dirty dirty.Config

	// FullRedrawRatio is the fraction of the screen area at which
	// per-region updates give way to a full redraw. Zero means
	// DefaultFullRedrawRatio.
	FullRedrawRatio float64

	// MaxRegions bounds how many regions are drawn individually.
	// Zero means DefaultMaxRegions.
	MaxRegions int

	// Overdraw widens each drawn region by this many columns on both
	// sides. Zero means DefaultOverdraw; use a negative value for none.
	Overdraw int

	// Foreground is the text color used by cells with no explicit
	// foreground. Zero means opaque white.
	Foreground grid.Color

	// Background is the fill color used by cells with no explicit
	// background. Zero means opaque black.
	Background grid.Color
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Font:            font.DefaultConfig(),
		Atlas:           atlas.DefaultConfig(),
		Dirty:           dirty.DefaultConfig(),
		FullRedrawRatio: DefaultFullRedrawRatio,
		MaxRegions:      DefaultMaxRegions,
		Overdraw:        DefaultOverdraw,
		Foreground:      grid.White,
		Background:      grid.Black,
	}
}

// ConfigError describes an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("render: invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks the configuration, filling defaults for zero values.
func (c *Config) Validate() error {
	if c.FullRedrawRatio == 0 {
		c.FullRedrawRatio = DefaultFullRedrawRatio
	}
	if c.FullRedrawRatio < 0 || c.FullRedrawRatio > 1 {
		return &ConfigError{Field: "FullRedrawRatio", Reason: "must be in (0, 1]"}
	}
	if c.MaxRegions == 0 {
		c.MaxRegions = DefaultMaxRegions
	}
	if c.MaxRegions < 1 {
		return &ConfigError{Field: "MaxRegions", Reason: "must be at least 1"}
	}
	if c.Overdraw == 0 {
		c.Overdraw = DefaultOverdraw
	} else if c.Overdraw < 0 {
		c.Overdraw = 0
	}
	if c.Font.Family == "" {
		c.Font = font.DefaultConfig()
	}
	if c.Font.Size <= 0 {
		return &ConfigError{Field: "Font.Size", Reason: "must be positive"}
	}
	if (c.Foreground == grid.Color{}) {
		c.Foreground = grid.White
	}
	if (c.Background == grid.Color{}) {
		c.Background = grid.Black
	}
	if (c.Atlas == atlas.Config{}) {
		c.Atlas = atlas.DefaultConfig()
	}
	if err := c.Atlas.Validate(); err != nil {
		return err
	}
	if (c.Dirty == dirty.Config{}) {
		c.Dirty = dirty.DefaultConfig()
	}
	return c.Dirty.Validate()
}

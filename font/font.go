// Package font provides font discovery, loading, and fallback
// resolution for the rendering pipeline.
//
// Fonts are addressed by a Key (family, style, weight, fixed-point
// size). The Resolver loads font files through a platform PathResolver,
// caches parsed fonts, and walks a deterministic fallback chain ending
// in an embedded monospace font, so resolution never fails visibly
// unless no font at all can be loaded.
package font

import (
	"golang.org/x/image/math/fixed"
)

// Style is the slant style of a font face.
type Style uint8

const (
	// StyleNormal is the upright style.
	StyleNormal Style = iota
	// StyleItalic is the italic style.
	StyleItalic
	// StyleOblique is the oblique (slanted) style.
	StyleOblique
)

// String returns the string representation of the style.
func (s Style) String() string {
	switch s {
	case StyleNormal:
		return "Normal"
	case StyleItalic:
		return "Italic"
	case StyleOblique:
		return "Oblique"
	default:
		return "Unknown"
	}
}

// Weight is the weight class of a font face.
type Weight uint8

const (
	// WeightNormal is the regular weight.
	WeightNormal Weight = iota
	// WeightLight is a light weight.
	WeightLight
	// WeightBold is the bold weight.
	WeightBold
	// WeightExtraBold is a weight heavier than bold.
	WeightExtraBold
)

// String returns the string representation of the weight.
func (w Weight) String() string {
	switch w {
	case WeightNormal:
		return "Normal"
	case WeightLight:
		return "Light"
	case WeightBold:
		return "Bold"
	case WeightExtraBold:
		return "ExtraBold"
	default:
		return "Unknown"
	}
}

// Key identifies a loaded font in the font cache.
// Size64 stores the size in points multiplied by 64 for sub-pixel
// precision, so keys stay exact under fractional sizes.
type Key struct {
	Family string
	Style  Style
	Weight Weight
	Size64 int32
}

// NewKey builds a Key from a size in points.
func NewKey(family string, style Style, weight Weight, sizePts float64) Key {
	return Key{
		Family: family,
		Style:  style,
		Weight: weight,
		Size64: int32(fixed.Int26_6(sizePts * 64)),
	}
}

// SizePts returns the size in points.
func (k Key) SizePts() float64 {
	return float64(k.Size64) / 64.0
}

// Feature is one OpenType feature toggle handed in by the configuration
// collaborator, e.g. {"calt", 1}.
type Feature struct {
	Tag   string
	Value uint32
}

// Config is the font configuration consumed from the configuration
// collaborator. Values arrive already validated.
type Config struct {
	// Family is the primary font family.
	Family string

	// Size is the font size in points.
	Size float64

	// Ligatures enables the programming-ligature allow-list.
	Ligatures bool

	// FallbackFamilies is the ordered list of substitute families tried
	// when the primary family is unavailable or lacks a glyph.
	FallbackFamilies []string

	// Features holds OpenType feature toggles.
	Features []Feature
}

// DefaultConfig returns the default font configuration.
func DefaultConfig() Config {
	return Config{
		Family:    "monospace",
		Size:      14.0,
		Ligatures: true,
		FallbackFamilies: []string{
			"JetBrains Mono",
			"Fira Code",
			"Source Code Pro",
			"DejaVu Sans Mono",
			"Liberation Mono",
			"Consolas",
			"Menlo",
			"Monaco",
			"Courier New",
		},
	}
}

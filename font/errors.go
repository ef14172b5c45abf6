package font

import "errors"

// Sentinel errors for the font package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("font: empty font data")

	// ErrNoUsableFont is returned when neither the requested family, nor
	// any fallback family, nor the embedded fallback could be loaded.
	// This is the only fatal resolution failure.
	ErrNoUsableFont = errors.New("font: no usable font found")

	// ErrFamilyNotFound is returned by a PathResolver when it cannot
	// locate a file for the requested family. The Resolver absorbs this
	// by walking the fallback chain.
	ErrFamilyNotFound = errors.New("font: family not found")
)

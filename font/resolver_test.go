package font

import (
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func newTestResolver() *Resolver {
	return NewResolver(ResolverConfig{
		Paths:            NewStaticResolver(nil),
		FallbackFamilies: []string{"DejaVu Sans Mono", "Liberation Mono"},
	})
}

func TestResolver_FallbackNeverFails(t *testing.T) {
	r := newTestResolver()

	src, err := r.Resolve(NewKey("NonExistentFont123", StyleNormal, WeightNormal, 14))
	if err != nil {
		t.Fatalf("resolution must not fail visibly: %v", err)
	}
	if src == nil || src.NumGlyphs() == 0 {
		t.Fatal("fallback font should be loaded and non-empty")
	}
}

func TestResolver_CachesByKey(t *testing.T) {
	r := newTestResolver()
	key := NewKey("monospace", StyleNormal, WeightNormal, 14)

	src1, err := r.Resolve(key)
	if err != nil {
		t.Fatal(err)
	}
	src2, err := r.Resolve(key)
	if err != nil {
		t.Fatal(err)
	}
	if src1 != src2 {
		t.Error("repeated resolution of the same key should return the cached handle")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 cached binding, got %d", r.Len())
	}
}

func TestResolver_DistinctSizesShareNothing(t *testing.T) {
	r := newTestResolver()

	_, _ = r.Resolve(NewKey("monospace", StyleNormal, WeightNormal, 14))
	_, _ = r.Resolve(NewKey("monospace", StyleNormal, WeightNormal, 16))

	if r.Len() != 2 {
		t.Errorf("expected 2 cached bindings, got %d", r.Len())
	}
}

func TestResolver_CapacityEviction(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Paths:    NewStaticResolver(nil),
		Capacity: 2,
	})

	for i := 0; i < 4; i++ {
		_, err := r.Resolve(NewKey("family", StyleNormal, WeightNormal, float64(10+i)))
		if err != nil {
			t.Fatal(err)
		}
	}
	if r.Len() > 2 {
		t.Errorf("cache should stay within capacity, got %d", r.Len())
	}
}

func TestResolver_StaticResolverPreferred(t *testing.T) {
	paths := NewStaticResolver(map[string][]byte{
		"Custom Mono": gomono.TTF,
	})
	r := NewResolver(ResolverConfig{Paths: paths})

	src, err := r.Resolve(NewKey("Custom Mono", StyleNormal, WeightNormal, 14))
	if err != nil {
		t.Fatal(err)
	}
	if src.NumGlyphs() == 0 {
		t.Error("custom font should be loaded")
	}
}

func TestResolver_ResolveForRune(t *testing.T) {
	r := newTestResolver()
	key := NewKey("monospace", StyleNormal, WeightNormal, 14)

	// ASCII is covered by the primary (embedded) font.
	src, err := r.ResolveForRune(key, 'A')
	if err != nil {
		t.Fatal(err)
	}
	if !src.HasGlyph('A') {
		t.Error("resolved font should cover the requested rune")
	}

	// A rune no font in the chain covers still returns the primary
	// font so the caller can substitute the placeholder glyph.
	src, err = r.ResolveForRune(key, '\U000E0000')
	if err != nil {
		t.Fatal(err)
	}
	if src == nil {
		t.Fatal("uncovered rune should still return the primary font")
	}
}

func TestResolver_Available(t *testing.T) {
	paths := NewStaticResolver(map[string][]byte{"Alpha": gomono.TTF})
	r := NewResolver(ResolverConfig{Paths: paths})

	families := r.Available()
	if len(families) != 2 {
		t.Fatalf("expected Alpha plus builtin, got %v", families)
	}
	if families[len(families)-1] != BuiltinFamily {
		t.Errorf("builtin family should be listed last, got %v", families)
	}
}

func TestNewSource_EmptyData(t *testing.T) {
	_, err := NewSource(nil)
	if !errors.Is(err, ErrEmptyFontData) {
		t.Errorf("expected ErrEmptyFontData, got %v", err)
	}
}

func TestKey_SizeFixedPoint(t *testing.T) {
	key := NewKey("m", StyleNormal, WeightNormal, 13.5)
	if key.Size64 != 13*64+32 {
		t.Errorf("expected 13.5pt to encode as %d, got %d", 13*64+32, key.Size64)
	}
	if key.SizePts() != 13.5 {
		t.Errorf("round trip mismatch: %v", key.SizePts())
	}
}

func TestBuiltinTTF_Variants(t *testing.T) {
	tests := []struct {
		style  Style
		weight Weight
	}{
		{StyleNormal, WeightNormal},
		{StyleNormal, WeightBold},
		{StyleItalic, WeightNormal},
		{StyleOblique, WeightExtraBold},
		{StyleNormal, WeightLight},
	}
	for _, tt := range tests {
		data := builtinTTF(tt.style, tt.weight)
		if len(data) == 0 {
			t.Errorf("builtinTTF(%v, %v) returned no data", tt.style, tt.weight)
		}
		if _, err := NewSource(data); err != nil {
			t.Errorf("builtin variant %v/%v should parse: %v", tt.style, tt.weight, err)
		}
	}
}

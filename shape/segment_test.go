package shape

import (
	"testing"

	"github.com/go-text/typesetting/language"
)

func segmentsOf(text string) []segment {
	return splitSegments(text, []rune(text), DirectionLTR)
}

func TestSplitSegments_SingleScript(t *testing.T) {
	segs := segmentsOf("hello")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].script != language.Latin {
		t.Errorf("script = %v, want Latin", segs[0].script)
	}
	if segs[0].direction() != DirectionLTR {
		t.Errorf("direction = %v, want LTR", segs[0].direction())
	}
	if segs[0].start != 0 || segs[0].end != 5 {
		t.Errorf("bounds = [%d, %d), want [0, 5)", segs[0].start, segs[0].end)
	}
}

func TestSplitSegments_ScriptBoundary(t *testing.T) {
	segs := segmentsOf("ab漢字cd")
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[0].script != language.Latin || segs[1].script != language.Han || segs[2].script != language.Latin {
		t.Errorf("scripts = %v %v %v, want Latin Han Latin",
			segs[0].script, segs[1].script, segs[2].script)
	}
	if segs[1].start != 2 || segs[1].end != 4 {
		t.Errorf("Han bounds = [%d, %d), want [2, 4)", segs[1].start, segs[1].end)
	}
}

func TestSplitSegments_PunctuationJoinsNeighbors(t *testing.T) {
	// Shared punctuation must not force a run break inside Latin text.
	segs := segmentsOf("ab, cd!")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d: %v", len(segs), segs)
	}
	if segs[0].script != language.Latin {
		t.Errorf("script = %v, want Latin", segs[0].script)
	}
}

func TestSplitSegments_PureCommonShapesAsLatin(t *testing.T) {
	segs := segmentsOf("123 !?")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].script != language.Latin {
		t.Errorf("script = %v, want Latin fallback", segs[0].script)
	}
}

func TestSplitSegments_Bidi(t *testing.T) {
	segs := segmentsOf("abcאבג")
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].direction() != DirectionLTR {
		t.Errorf("first segment should be LTR")
	}
	if segs[1].direction() != DirectionRTL {
		t.Errorf("second segment should be RTL")
	}
	if segs[1].script != language.Hebrew {
		t.Errorf("script = %v, want Hebrew", segs[1].script)
	}
}

func TestSplitSegments_Empty(t *testing.T) {
	if segs := segmentsOf(""); segs != nil {
		t.Errorf("empty text should yield no segments, got %v", segs)
	}
}

func TestRuneScripts_CombiningMarkInherits(t *testing.T) {
	scripts := runeScripts([]rune{'e', 0x0301})
	if scripts[0] != language.Latin || scripts[1] != language.Latin {
		t.Errorf("scripts = %v, combining mark should inherit Latin", scripts)
	}
}

func TestVisualOrder_ReversesRTLSequence(t *testing.T) {
	runs := []Run{
		{Start: 0, Direction: DirectionLTR},
		{Start: 1, Direction: DirectionRTL},
		{Start: 2, Direction: DirectionRTL},
		{Start: 3, Direction: DirectionLTR},
	}
	visualOrder(runs)

	want := []int{0, 2, 1, 3}
	for i, run := range runs {
		if run.Start != want[i] {
			t.Errorf("position %d holds run %d, want %d", i, run.Start, want[i])
		}
	}
}

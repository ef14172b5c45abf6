package shape

import (
	"github.com/go-text/typesetting/language"
	"golang.org/x/text/unicode/bidi"
)

// segment is a run of runes sharing one bidi embedding level and one
// resolved script. Indices are rune positions, end exclusive.
type segment struct {
	start  int
	end    int
	level  int
	script language.Script
}

func (s segment) direction() Direction {
	if s.level%2 == 1 {
		return DirectionRTL
	}
	return DirectionLTR
}

// splitSegments divides text into shapeable segments. Boundaries fall
// wherever the bidi embedding level or the resolved script changes.
func splitSegments(text string, runes []rune, base Direction) []segment {
	if len(runes) == 0 {
		return nil
	}

	levels := bidiLevels(text, len(runes), base)
	scripts := runeScripts(runes)

	segs := make([]segment, 0, 2)
	start := 0
	for i := 1; i < len(runes); i++ {
		if levels[i] == levels[start] && scripts[i] == scripts[start] {
			continue
		}
		segs = append(segs, segment{start: start, end: i, level: levels[start], script: scripts[start]})
		start = i
	}
	return append(segs, segment{start: start, end: len(runes), level: levels[start], script: scripts[start]})
}

// bidiLevels computes a per-rune embedding level via UAX #9. Levels are
// collapsed to even/odd; the renderer only needs run direction, not
// nesting depth.
func bidiLevels(text string, n int, base Direction) []int {
	levels := make([]int, n)

	def := bidi.Neutral
	if base == DirectionRTL {
		def = bidi.RightToLeft
	}

	var p bidi.Paragraph
	if _, err := p.SetString(text, bidi.DefaultDirection(def)); err != nil {
		return levels
	}
	ordering, err := p.Order()
	if err != nil {
		return levels
	}

	// Run.Pos reports rune indices, start and end inclusive.
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		start, end := run.Pos()
		level := 0
		if run.Direction() == bidi.RightToLeft {
			level = 1
		}
		for j := start; j <= end && j < n; j++ {
			levels[j] = level
		}
	}
	return levels
}

// runeScripts looks up each rune's script and resolves the Inherited
// and Common placeholders so that punctuation and combining marks join
// the surrounding concrete script instead of forcing run breaks.
func runeScripts(runes []rune) []language.Script {
	scripts := make([]language.Script, len(runes))
	for i, r := range runes {
		scripts[i] = language.LookupScript(r)
	}

	// Combining marks inherit the script of their base character.
	last := language.Common
	for i, sc := range scripts {
		switch sc {
		case language.Inherited:
			scripts[i] = last
		case language.Common:
		default:
			last = sc
		}
	}

	// Shared characters take the preceding concrete script, or the
	// following one at the start of the text.
	last = language.Common
	for i, sc := range scripts {
		if sc != language.Common {
			last = sc
			continue
		}
		if last != language.Common {
			scripts[i] = last
			continue
		}
		scripts[i] = nextConcrete(scripts, i+1)
	}

	// All-Common text (pure punctuation) shapes as Latin.
	for i, sc := range scripts {
		if sc == language.Common {
			scripts[i] = language.Latin
		}
	}
	return scripts
}

func nextConcrete(scripts []language.Script, from int) language.Script {
	for _, sc := range scripts[from:] {
		if sc != language.Common {
			return sc
		}
	}
	return language.Common
}

// visualOrder rearranges logically ordered runs into display order by
// reversing each maximal sequence of right-to-left runs, the L2 rule of
// UAX #9 collapsed to two levels.
func visualOrder(runs []Run) {
	for i := 0; i < len(runs); {
		if runs[i].Direction != DirectionRTL {
			i++
			continue
		}
		j := i
		for j < len(runs) && runs[j].Direction == DirectionRTL {
			j++
		}
		for lo, hi := i, j-1; lo < hi; lo, hi = lo+1, hi-1 {
			runs[lo], runs[hi] = runs[hi], runs[lo]
		}
		i = j
	}
}

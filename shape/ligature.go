package shape

import "strings"

// Programming ligatures are substituted textually before shaping: a
// matched operator sequence is replaced by its single-codepoint
// equivalent, and the replacement inherits the cluster offset of the
// sequence start so the glyph maps back to every source cell it covers.
//
// Only sequences on this allow-list are ever merged. Longer sequences
// are listed first so "===" wins over "==".
var ligatureTable = []struct {
	seq  string
	repl rune
}{
	{"!==", '≢'},
	{"===", '≣'},
	{"...", '…'},
	{"->", '→'},
	{"=>", '⇒'},
	{"<=", '≤'},
	{">=", '≥'},
	{"!=", '≠'},
	{"==", '≡'},
	{"&&", '∧'},
	{"||", '∨'},
	{"..", '‥'},
}

// operator characters that extend a sequence. A match flanked by one of
// these is part of a longer operator ("-->", "<==") and is left alone.
const ligatureBoundary = "<>=!&|.-+"

func isLigatureBoundary(text string, pos int) bool {
	if pos < 0 || pos >= len(text) {
		return true
	}
	return !strings.ContainsRune(ligatureBoundary, rune(text[pos]))
}

// applyLigatures rewrites allow-listed operator sequences in text and
// returns the rewritten string with an updated offset map. toSrc maps
// each byte of text to a source byte offset and has len(text)+1
// entries; the returned map has the same shape for the rewritten text.
// covers reports whether the active font has a glyph for a replacement
// rune; uncovered replacements are skipped.
func applyLigatures(text string, toSrc []int, covers func(rune) bool) (string, []int) {
	var b strings.Builder
	out := make([]int, 0, len(toSrc))

	i := 0
scan:
	for i < len(text) {
		for _, lig := range ligatureTable {
			if !strings.HasPrefix(text[i:], lig.seq) {
				continue
			}
			if !isLigatureBoundary(text, i-1) || !isLigatureBoundary(text, i+len(lig.seq)) {
				continue
			}
			if !covers(lig.repl) {
				continue
			}
			n, _ := b.WriteRune(lig.repl)
			for k := 0; k < n; k++ {
				out = append(out, toSrc[i])
			}
			i += len(lig.seq)
			continue scan
		}
		b.WriteByte(text[i])
		out = append(out, toSrc[i])
		i++
	}

	out = append(out, toSrc[len(text)])
	return b.String(), out
}

package memory

import "strings"

// Character classes for tokenization. A class boundary always breaks a
// token, so "GPT5モデル" splits into "gpt5" and "モデル".
const (
	classOther = iota
	classASCII
	classCJK
)

func classOf(r rune) int {
	switch {
	case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return classASCII
	case r >= 0x3040 && r <= 0x30FF: // hiragana + katakana
		return classCJK
	case r >= 0x4E00 && r <= 0x9FFF: // CJK unified ideographs
		return classCJK
	default:
		return classOther
	}
}

// Normalize lower-cases text and folds full-width spaces so search text and
// queries compare on the same plane.
func Normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "　", " "))
}

// Tokenize splits normalized text into runs of a single character class.
// Tokens shorter than two runes are discarded unless they are purely
// numeric, so "a" drops but "5" survives.
func Tokenize(s string) []string {
	s = Normalize(s)

	var toks []string
	var cur []rune
	last := classOther

	flush := func() {
		if len(cur) > 0 {
			toks = append(toks, string(cur))
			cur = cur[:0]
		}
	}

	for _, r := range s {
		cl := classOf(r)
		if cl == classOther {
			flush()
			last = classOther
			continue
		}
		if last != classOther && cl != last {
			flush()
		}
		cur = append(cur, r)
		last = cl
	}
	flush()

	kept := toks[:0]
	for _, t := range toks {
		if len([]rune(t)) >= 2 || isNumeric(t) {
			kept = append(kept, t)
		}
	}
	return kept
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// tagOverlap counts tags that match any query token by substring in either
// direction. Each tag contributes at most once.
func tagOverlap(tags []string, queryTokens []string) int {
	n := 0
	for _, tag := range tags {
		tl := Normalize(tag)
		if tl == "" {
			continue
		}
		for _, qt := range queryTokens {
			if strings.Contains(tl, qt) || strings.Contains(qt, tl) {
				n++
				break
			}
		}
	}
	return n
}

// Package sanitize strips meta-commentary that worker models sometimes leak
// into their replies (classification rationale, prefixed labels) before the
// text reaches the user or the action transcript.
//
// This is best-effort leak suppression, not guaranteed-correct parsing.
package sanitize

import "strings"

// Markers that indicate leaked classification rationale. When any of these
// survive the earlier rules, everything before the last blank line is
// treated as discarded reasoning.
var leakMarkers = []string{"To classify", "[Phase", "Therefore,"}

// Clean applies the leak-suppression rules in order: trim, strip a leading
// "CONVERSATION:" label, keep only what follows the last
// "Here's a natural response:" marker, and drop rationale preceding the last
// blank line when classification markers remain. Text with no markers
// passes through unchanged.
func Clean(s string) string {
	out := strings.TrimSpace(s)

	if rest, ok := strings.CutPrefix(out, "CONVERSATION:"); ok {
		out = strings.TrimSpace(rest)
	}

	const natural = "Here's a natural response:"
	if pos := strings.LastIndex(out, natural); pos >= 0 {
		out = strings.TrimSpace(out[pos+len(natural):])
	}

	for _, marker := range leakMarkers {
		if strings.Contains(out, marker) {
			if pos := strings.LastIndex(out, "\n\n"); pos >= 0 {
				out = strings.TrimSpace(out[pos+2:])
			}
			break
		}
	}

	return out
}

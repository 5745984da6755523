package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// paragraphBreak matches two or more newlines with optional whitespace between them
var paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n\s*`)

// Normalize collapses whitespace inside paragraphs to single spaces and
// separates paragraphs with exactly one blank line. Applying it twice gives
// the same result.
func Normalize(text string) string {
	paragraphs := paragraphBreak.Split(text, -1)

	kept := paragraphs[:0]
	for _, p := range paragraphs {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, "\n\n")
}

// Truncate cuts text to at most limit runes and appends notice when it cut
func Truncate(text string, limit int, notice string) (string, bool) {
	if utf8.RuneCountInString(text) <= limit {
		return text, false
	}

	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + notice, true
		}
		n++
	}
	return text, false
}

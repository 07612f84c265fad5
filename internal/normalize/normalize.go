package normalize

import (
	"strings"
	"unicode"
)

// Normalize replaces control characters and line breaks with single spaces,
// collapses whitespace runs and trims the ends. Pure function.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(raw))
	lastSpace := false
	for _, r := range raw {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// TooShort reports whether a normalized page is below the quality threshold.
func TooShort(normalized string, minChars int) bool {
	return len(normalized) < minChars
}

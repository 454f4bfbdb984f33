package pipeline

import (
	"strings"
	"unicode"
)

// SanitizeSymbol makes a ticker safe for use in file names by replacing
// every non-alphanumeric rune with an underscore. The mapping is
// idempotent: sanitizing already-sanitized output is a no-op.
func SanitizeSymbol(symbol string) string {
	var b strings.Builder
	b.Grow(len(symbol))
	for _, r := range symbol {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

package valueobjects

import (
	"strings"
	"unicode"
)

// NormalizeLabel trims leading and trailing whitespace from a label.
// A whitespace-only label normalizes to the empty string and is kept that way.
func NormalizeLabel(raw string) string {
	return strings.TrimFunc(raw, isLabelSpace)
}

// U+FEFF is not unicode.IsSpace but is trimmed as whitespace by most clients.
func isLabelSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

package strings

import (
	"strings"
)

// DefaultTitleMaxLen bounds track titles in table output.
const DefaultTitleMaxLen = 48

// DefaultURIMaxLen bounds track URIs in table output.
const DefaultURIMaxLen = 40

// MinTruncateLen leaves room for one character plus "...".
const MinTruncateLen = 4

// Truncate collapses whitespace to single spaces and cuts s to maxLen
// runes, ending in "..." when it was cut. maxLen below MinTruncateLen is
// raised to it.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

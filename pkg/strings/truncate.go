// Package strings holds text helpers shared by the CLI output code.
package strings

import (
	"strings"
)

// CellMaxLen is the widest a free-text table cell is allowed to grow.
const CellMaxLen = 40

// minTruncateLen leaves room for one character plus "...".
const minTruncateLen = 4

// Truncate collapses whitespace in s to single spaces and cuts it to
// maxLen runes, ending in "..." when shortened. maxLen below 4 is raised
// to 4.
func Truncate(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

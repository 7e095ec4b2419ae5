package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalize NFC-composes s, trims and collapses runs of whitespace and
// lowercases it so that composed and decomposed accents compare equal.
func normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(s)), " "))
}

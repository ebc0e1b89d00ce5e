package dataset

import (
	"strings"
	"unicode"
)

// Label derives the display label of a field: underscores become spaces and
// every run of letters is title-cased (first letter upper, the rest lower).
// A letter following a digit or punctuation starts a new run, so
// "total_idealCooling" becomes "Total Idealcooling" and "q2heat" becomes "Q2Heat".
func Label(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevCased := false
	for _, r := range strings.ReplaceAll(name, "_", " ") {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case cased && !prevCased:
			b.WriteRune(unicode.ToTitle(r))
		case cased:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevCased = cased
	}
	return b.String()
}

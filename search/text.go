package search

import (
	"slices"
	"strings"
)

// cleanTerms trims each term, drops blanks and returns a sorted set.
func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// isBlank reports whether text has no visible content.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// mergeTerms returns the sorted union of two term lists.
func mergeTerms(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}

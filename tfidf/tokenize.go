package tfidf

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Analyzer prepares raw text before tokenization, e.g. lowercasing and
// accent stripping.
type Analyzer func(string) string

// minTokenRunes drops single-character tokens.
const minTokenRunes = 2

// tokenize splits text on non-alphanumeric boundaries and keeps tokens of
// at least two runes.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenRunes {
			out = append(out, f)
		}
	}
	return out
}

// ngrams emits every n-gram of tokens with n in [lo, hi], joined by spaces.
func ngrams(tokens []string, lo, hi int) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens)*(hi-lo+1))
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				out = append(out, tokens[i])
				continue
			}
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// termCounts analyzes text and counts its n-grams.
func (c *config) termCounts(text string) map[string]int {
	if c.analyzer != nil {
		text = c.analyzer(text)
	}
	counts := make(map[string]int)
	for _, g := range ngrams(tokenize(text), c.ngramMin, c.ngramMax) {
		counts[g]++
	}
	return counts
}

package normalize

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultAccents covers the Latin-1 and French diacritics. Thesaurus rules
// are layered on top of it.
var defaultAccents = map[string]string{
	"à": "a", "â": "a", "ä": "a", "á": "a", "ã": "a", "å": "a",
	"ç": "c",
	"é": "e", "è": "e", "ê": "e", "ë": "e",
	"î": "i", "ï": "i", "í": "i", "ì": "i",
	"ô": "o", "ö": "o", "ó": "o", "ò": "o", "õ": "o",
	"ù": "u", "û": "u", "ü": "u", "ú": "u",
	"ÿ": "y", "ý": "y",
	"ñ": "n",
	"œ": "oe",
	"æ": "ae",
}

// DefaultAccents returns a copy of the built-in accent map.
func DefaultAccents() map[string]string {
	return maps.Clone(defaultAccents)
}

// newAccentReplacer builds a replacer from the merged accent map. Keys are
// tried longest first so multi-character sequences take precedence.
func newAccentReplacer(accents map[string]string) *strings.Replacer {
	keys := slices.Collect(maps.Keys(accents))
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, accents[k])
	}
	return strings.NewReplacer(pairs...)
}

// stripMarks removes any combining marks left after the accent map, e.g.
// decomposed input or characters the map does not list.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isEdge(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}

// normalizeWith applies the full normalization chain using replacer for accents.
func normalizeWith(replacer *strings.Replacer, text string) string {
	if text == "" {
		return ""
	}
	s := norm.NFC.String(text)
	s = strings.ToLower(s)
	s = replacer.Replace(s)
	s = stripMarks(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimFunc(s, isEdge)
}

// isBoundary reports whether r separates tokens.
func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// containsOnBoundary reports whether needle occurs in haystack delimited by
// token boundaries or the string edges.
func containsOnBoundary(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	offset := 0
	for {
		i := strings.Index(haystack[offset:], needle)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(needle)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isBoundary(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isBoundary(r)
}

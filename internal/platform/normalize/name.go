// Package normalize canonicalizes the free-text values coming out of
// spreadsheet exports: athlete names, locale-formatted numbers, and dates.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Name canonicalizes an athlete name for grouping: lowercase, diacritics
// stripped, language-specific letters folded to base Latin, whitespace runs
// collapsed. Idempotent: Name(Name(x)) == Name(x).
func Name(raw string) string {
	lowered := strings.ToLower(raw)

	decomposed := norm.NFD.String(lowered)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(foldLetter(r))
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// foldLetter maps letters that NFD leaves intact onto their base form.
// The stroked l is the common case in this data set.
func foldLetter(r rune) rune {
	switch r {
	case 'ł':
		return 'l'
	case 'ø':
		return 'o'
	case 'đ':
		return 'd'
	case 'ß':
		return 's'
	default:
		return r
	}
}

// Package textnorm produces the canonical comparable form of chat text.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics: the text is decomposed (NFD),
// combining marks are dropped and the remainder is recomposed (NFC).
// Punctuation is left untouched.
func Fold(s string) string {
	lower := strings.ToLower(s)

	// Transformers carry state, so a fresh chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lower)
	if err != nil {
		return lower
	}
	return folded
}

// Tokens folds s and splits it on runs of whitespace.
// Empty or blank input yields an empty slice.
func Tokens(s string) []string {
	return strings.Fields(Fold(s))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package names generates alternate renderings of personal names and
// decides whether two renderings plausibly name the same person.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTable covers letters that have no canonical decomposition and would
// survive mark removal unchanged.
var foldTable = strings.NewReplacer(
	"ı", "i", "İ", "I",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ß", "ss",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"þ", "th", "Þ", "Th",
)

// Fold strips diacritics: "Ayşe Yılmaz" becomes "Ayse Yilmaz".
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = foldTable.Replace(s)
	// Chained transformers carry state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldLower folds and lowercases s.
func FoldLower(s string) string {
	return strings.ToLower(Fold(s))
}

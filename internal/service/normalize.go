package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a string and strips diacritics (e.g. "Café" -> "cafe").
// It is idempotent and returns "" for empty input. Normalized text is used for
// every comparison; values shown to the user keep their original form.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	result, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return result
}

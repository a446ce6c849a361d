package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const expiryLayout = "02/01/2006"

// SingleLine collapses newlines to spaces and trims the result. Every
// message leaving the API goes through this.
func SingleLine(msg string) string {
	return strings.TrimSpace(strings.ReplaceAll(msg, "\n", " "))
}

// formatExpiry renders an expiry date as dd/mm/yyyy, or "N/A" when absent.
func formatExpiry(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format(expiryLayout)
}

func formatPrice(p float64) string {
	return fmt.Sprintf("R$%.2f", p)
}

// capitalize uppercases the first rune and lowercases the rest, matching how
// stored names are rendered in responses.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// orNA substitutes "N/A" for an empty display value.
func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return capitalize(s)
}

// truncateRunes keeps the first n runes of s.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// firstWord returns the first whitespace-separated field of s, or s itself
// when it has no spaces.
func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}

// singularize drops a trailing "s" unless the word ends in "is". This is a
// deliberate heuristic, not a lemmatizer; genuinely singular words ending in
// "s" will mismatch.
func singularize(s string) string {
	if strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "is") {
		return s[:len(s)-1]
	}
	return s
}

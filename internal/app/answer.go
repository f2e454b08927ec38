package app

import "strings"

// NormalizeAnswer uppercases and strips surrounding whitespace. The admin
// path applies it once at write time; the matcher applies it to both sides
// anyway so hand-edited rows can never break matching.
func NormalizeAnswer(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeCategory lowercases and trims a category label. Categories are
// operator-entered with no format validation, so matching has to tolerate
// stray spaces and mixed case.
func NormalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsCorrect compares a stored answer against a submitted guess. Exact match
// after normalization; no partial credit, no edit distance.
func IsCorrect(stored, submitted string) bool {
	return NormalizeAnswer(stored) == NormalizeAnswer(submitted)
}

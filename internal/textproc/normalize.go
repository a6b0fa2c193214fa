// Package textproc provides the text preparation pipeline for ingestion:
// whitespace normalization, whitespace tokenization, and token-window
// chunking. All functions are total on arbitrary strings and allocate
// nothing beyond their results.
package textproc

import (
	"regexp"
	"strings"
)

var (
	// horizontalWS matches runs of spaces and tabs.
	horizontalWS = regexp.MustCompile(`[ \t]+`)
	// excessNewlines matches runs of three or more newlines.
	excessNewlines = regexp.MustCompile(`\n{3,}`)
)

// Normalize canonicalises whitespace: CRLF/CR become LF, runs of horizontal
// whitespace collapse to a single space, runs of three or more newlines
// collapse to exactly two, and leading/trailing whitespace is trimmed.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalWS.ReplaceAllString(text, " ")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Tokenize splits text on whitespace boundaries. Any run of whitespace or
// newlines is a separator; empty tokens are dropped. The empty string
// yields a nil slice.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// CountTokens returns the number of whitespace tokens in text.
func CountTokens(text string) int {
	return len(Tokenize(text))
}

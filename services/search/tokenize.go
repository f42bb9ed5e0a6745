package search

import (
	"strings"
	"unicode/utf8"
)

// Tokens of this length or shorter earn no per-token bonus.
const maxIgnoredTokenLength = 2

func tokenize(term string) []string {
	var tokens []string
	for _, word := range strings.Fields(term) {
		if utf8.RuneCountInString(word) <= maxIgnoredTokenLength {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Package normalizer cleans clinical note text and expands medical shorthand
// before the note is handed to the model.
package normalizer

import (
	"strings"
)

// Only these are stripped from token edges before lookup. Anything else,
// such as a trailing hyphen, leaves the token unexpanded.
const stripChars = ".,;:!?()[]"

// Normalize cleans text and then expands abbreviations. It is total and
// idempotent; line structure does not survive expansion.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	return Expand(Clean(text))
}

// Clean collapses whitespace inside every line, trims lines and drops the empty ones.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// Expand replaces every token whose stripped, lowercased form is a known
// abbreviation with its expansion. Replaced tokens lose their punctuation;
// other tokens are kept verbatim. Tokens are rejoined with single spaces.
func Expand(text string) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return ""
	}

	for i, token := range tokens {
		key := strings.ToLower(strings.Trim(token, stripChars))
		if expansion, ok := Lookup(key); ok {
			tokens[i] = expansion
		}
	}

	return strings.Join(tokens, " ")
}

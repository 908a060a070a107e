package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MultipleSpaces matches any sequence of whitespace (including newlines).
var MultipleSpaces = regexp.MustCompile(`\s+`)

// CompressAllWhitespace replaces all whitespace sequences (including newlines) with a single space.
func CompressAllWhitespace(s string) string {
	return strings.TrimSpace(MultipleSpaces.ReplaceAllString(s, " "))
}

// Truncate shortens s to at most maxRunes runes, ending it with an ellipsis when cut.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}

	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	if maxRunes == 1 {
		return "…"
	}

	runes := []rune(s)

	return string(runes[:maxRunes-1]) + "…"
}

// CodeBlock wraps s in a fenced block. Backticks inside s are broken up so they
// cannot close the fence.
func CodeBlock(s string) string {
	return "```\n" + strings.ReplaceAll(s, "`", "`\u200b") + "\n```"
}

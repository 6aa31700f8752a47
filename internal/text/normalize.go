// Package text provides input-text normalization for synthesis requests.
//
// Synthesis quality degrades on control characters, typographic punctuation
// variants, and ragged whitespace, so every line is normalized before it is
// sent to the service.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

// Typographic punctuation normalized to ASCII equivalents.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsisChar = "…"
	leftDouble   = "“"
	rightDouble  = "”"
	leftSingle   = "‘"
	rightSingle  = "’"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

var punctuationReplacer = strings.NewReplacer(
	emDash, ", ",
	enDash, "-",
	figureDash, "-",
	ellipsisChar, "...",
	leftDouble, `"`,
	rightDouble, `"`,
	leftSingle, "'",
	rightSingle, "'",
)

// Normalize prepares a line of input text for synthesis: control characters
// are stripped, typographic punctuation is mapped to ASCII, and whitespace is
// collapsed. The result is trimmed; an all-whitespace input becomes "".
func Normalize(input string) string {
	if input == "" {
		return input
	}

	cleaned := strings.Map(dropControl, input)
	cleaned = punctuationReplacer.Replace(cleaned)
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")

	return strings.TrimSpace(cleaned)
}

// dropControl removes control characters while keeping whitespace for the
// collapse step.
func dropControl(r rune) rune {
	if unicode.IsControl(r) && !unicode.IsSpace(r) {
		return -1
	}

	return r
}

// Package textnorm canonicalizes message text so every detector compares
// against the same representation: diacritics stripped, case folded,
// whitespace collapsed.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD and removes combining marks, so "Referência"
// and "referencia" normalize to the same bytes.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize returns the canonical form of input: NFD-decomposed with
// combining marks removed, lower-cased, runs of whitespace collapsed to a
// single space, trimmed. Blank input yields the empty string. Normalize is
// idempotent and total; it never fails.
func Normalize(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	withoutAccents, _, err := transform.String(stripMarks, input)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the raw
		// input so normalization stays total.
		withoutAccents = input
	}

	lowered := strings.ToLower(withoutAccents)
	collapsed := whitespaceRun.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(collapsed)
}

// Package spoof classifies host names by Unicode script mixture to surface
// homoglyph lookalike domains.
package spoof

import "unicode"

// HostScriptInfo describes the script mixture of a host's letters.
type HostScriptInfo struct {
	// HasNonLatinLetters is true when any letter belongs to a script other
	// than Latin. A weaker signal: legitimate internationalized domains
	// exist, so callers weight it below MixedLatinCyrillic.
	HasNonLatinLetters bool

	// HasMixedLatinCyrillic is true only when Latin and Cyrillic letters
	// occur in the same host. This is the classic homoglyph-attack shape
	// (Cyrillic "а" dropped into a Latin brand name).
	HasMixedLatinCyrillic bool
}

// Analyze classifies every letter in host by script. Non-letter runes
// (dots, digits, hyphens) are ignored.
func Analyze(host string) HostScriptInfo {
	var hasLatin, hasCyrillic, hasOtherNonLatin bool

	for _, r := range host {
		if !unicode.IsLetter(r) {
			continue
		}
		switch {
		case unicode.Is(unicode.Latin, r):
			hasLatin = true
		case unicode.Is(unicode.Cyrillic, r):
			hasCyrillic = true
			hasOtherNonLatin = true
		default:
			hasOtherNonLatin = true
		}
	}

	return HostScriptInfo{
		HasNonLatinLetters:    hasOtherNonLatin,
		HasMixedLatinCyrillic: hasLatin && hasCyrillic,
	}
}

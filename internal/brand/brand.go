// Package brand infers which organization a message claims to represent.
package brand

import (
	"strings"

	"github.com/opensource-finance/shrike/internal/domain"
)

// brandEntry pairs a brand name with the literal substrings that identify
// it in normalized text. Table order is the priority order: the first entry
// with any matching keyword wins.
type brandEntry struct {
	brand    string
	keywords []string
}

var explicitBrands = []brandEntry{
	{"ctt", []string{"ctt"}},
	{"dhl", []string{"dhl"}},
	{"ups", []string{"ups"}},
	{"dpd", []string{"dpd"}},
	{"financas", []string{"financas", "autoridade tributaria", "at"}},
	{"seguranca social", []string{"seguranca social"}},
	{"sns", []string{"sns", "sns24"}},
	{"edp", []string{"edp"}},
	{"meo", []string{"meo"}},
	{"vodafone", []string{"vodafone"}},
	{"nos", []string{"nos"}},
	{"mbway", []string{"mbway"}},
}

// DetectPrimary returns the brand the message most plausibly impersonates,
// or "" when none can be inferred. Explicit keyword hits win; otherwise a
// category brand is inferred from which keyword groups fired, so the
// correlation checks still have something to verify against.
func DetectPrimary(normalizedText string, matchedGroups map[domain.KeywordGroup]bool) string {
	for _, entry := range explicitBrands {
		for _, kw := range entry.keywords {
			if strings.Contains(normalizedText, kw) {
				return entry.brand
			}
		}
	}

	// Category fallback; the fixed priority order is deliberate.
	switch {
	case matchedGroups[domain.GroupDelivery]:
		return "ctt"
	case matchedGroups[domain.GroupPublicServices]:
		return "financas"
	case matchedGroups[domain.GroupBanking]:
		return "banking"
	default:
		return ""
	}
}

// Package payment recognizes Multibanco-style payment requests (a 5-digit
// entity code plus a 9+-digit reference, optionally an amount) embedded in
// free text.
package payment

import (
	"regexp"
	"strings"

	"github.com/opensource-finance/shrike/internal/domain"
)

var (
	// Labeled forms: "entidade: 12345", "ref 123456789", "10,50 eur".
	entityLabeled    = regexp.MustCompile(`entidade[:\s]*([0-9]{5})`)
	referenceLabeled = regexp.MustCompile(`(?:referencia|ref)[:\s]*([0-9]{9,})`)
	amountLabeled    = regexp.MustCompile(`([0-9]+[,.][0-9]{2})\s*(?:€|eur)`)

	// Lenient forms: standalone digit runs and bare amounts, used when the
	// sender omits clean labels.
	entityStandalone    = regexp.MustCompile(`\b([0-9]{5})\b`)
	referenceStandalone = regexp.MustCompile(`\b([0-9]{9,})\b`)
	amountLoose         = regexp.MustCompile(`(?:valor[:\s]*)?[0-9]+[,.][0-9]{2}\s*(?:€|eur)?`)
)

// parseFunc is one tier of the detection chain. It returns nil when its
// grammar does not match; the next tier then gets a chance.
type parseFunc func(text string) *domain.PaymentReference

var strategies = []parseFunc{parseLabeled, parseLenient}

// Detect extracts a payment reference from normalized text. It runs the
// strict labeled grammar first and falls back to the lenient one, returning
// nil when neither produces both an entity and a reference.
//
// The input must already be normalized (diacritic-free, lower-cased) so
// "Entidade", "ENTIDADE" and "Entidade" all match uniformly.
func Detect(normalizedText string) *domain.PaymentReference {
	for _, parse := range strategies {
		if ref := parse(normalizedText); ref != nil {
			return ref
		}
	}
	return nil
}

// parseLabeled requires explicit "entidade"/"referencia" labels next to the
// digit runs. Minimizes false positives on well-formatted messages.
func parseLabeled(text string) *domain.PaymentReference {
	entityMatch := entityLabeled.FindStringSubmatch(text)
	referenceMatch := referenceLabeled.FindStringSubmatch(text)
	if entityMatch == nil || referenceMatch == nil {
		return nil
	}

	amount := labeledAmount(text)

	return &domain.PaymentReference{
		EntityCode:        entityMatch[1],
		ReferenceCode:     referenceMatch[1],
		Amount:            amount,
		EntityDetected:    true,
		ReferenceDetected: true,
		AmountDetected:    amount != "",
	}
}

// parseLenient recovers unlabeled phrasings: both keywords must appear
// somewhere in the text, then any standalone 5-digit run is the entity and
// the first standalone 9+-digit run distinct from it is the reference.
func parseLenient(text string) *domain.PaymentReference {
	if !strings.Contains(text, "entidade") {
		return nil
	}
	if !strings.Contains(text, "ref") && !strings.Contains(text, "referencia") {
		return nil
	}

	entityMatch := entityStandalone.FindStringSubmatch(text)
	if entityMatch == nil {
		return nil
	}
	entity := entityMatch[1]

	var reference string
	for _, m := range referenceStandalone.FindAllStringSubmatch(text, -1) {
		if m[1] != entity {
			reference = m[1]
			break
		}
	}
	if reference == "" {
		return nil
	}

	amount := labeledAmount(text)

	return &domain.PaymentReference{
		EntityCode:        entity,
		ReferenceCode:     reference,
		Amount:            amount,
		EntityDetected:    true,
		ReferenceDetected: true,
		AmountDetected:    amount != "" || amountLoose.MatchString(text),
	}
}

func labeledAmount(text string) string {
	if m := amountLabeled.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

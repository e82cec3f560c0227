// Package rules implements the weighted-rule risk scoring engine.
package rules

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/shrike/internal/brand"
	"github.com/opensource-finance/shrike/internal/domain"
	"github.com/opensource-finance/shrike/internal/extract"
	"github.com/opensource-finance/shrike/internal/spoof"
	"github.com/opensource-finance/shrike/internal/textnorm"
)

// EngineVersion identifies the scoring core build in verdict metadata.
const EngineVersion = "shrike-core/1.0"

// Engine scores a message against a bound RuleSet. It is a pure function
// of its inputs: no hidden state, safe for concurrent use as long as the
// RuleSet is treated as immutable after construction.
type Engine struct {
	ruleSet *domain.RuleSet

	// Keyword lists pre-normalized at construction so scoring compares
	// normalized text against normalized keywords.
	normalizedKeywords map[domain.KeywordGroup][]string

	// Compiled operator-defined CEL signals; empty when none configured.
	customSignals []*compiledSignal
}

// NewEngine builds an engine bound to an immutable RuleSet. It fails only
// when a configured custom signal does not compile.
func NewEngine(rs *domain.RuleSet) (*Engine, error) {
	if rs == nil {
		return nil, fmt.Errorf("rule set is required")
	}

	normalized := make(map[domain.KeywordGroup][]string, len(domain.AllKeywordGroups))
	for _, group := range domain.AllKeywordGroups {
		keywords := rs.KeywordGroups.Keywords(group)
		list := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			if n := textnorm.Normalize(kw); n != "" {
				list = append(list, n)
			}
		}
		normalized[group] = list
	}

	signals, err := compileSignals(rs.CustomSignals)
	if err != nil {
		return nil, err
	}

	return &Engine{
		ruleSet:            rs,
		normalizedKeywords: normalized,
		customSignals:      signals,
	}, nil
}

// RuleSetVersion returns the version of the bound rule set.
func (e *Engine) RuleSetVersion() int {
	return e.ruleSet.Version
}

// RuleSet returns the bound rule set. Callers must treat it as read-only.
func (e *Engine) RuleSet() *domain.RuleSet {
	return e.ruleSet
}

// Analyze computes the risk verdict for one message. messageText is the
// raw (truncated) text, normalizedText its canonical form, urls the
// candidates found in the raw text, and payment the extracted payment
// reference, if any. Every input combination yields a valid result; empty
// evidence scores 0 / LOW with no reasons.
func (e *Engine) Analyze(messageText, normalizedText string, urls []string, payment *domain.PaymentReference) domain.RiskResult {
	score := 0
	reasons := newReasonList()

	// Step 1: keyword groups.
	matchedGroups := e.detectKeywordGroups(normalizedText)
	for _, group := range domain.AllKeywordGroups {
		if !matchedGroups[group] {
			continue
		}
		score += e.ruleSet.KeywordWeights.Weight(group)
		reasons.add(domain.ReasonKeywordPrefix + string(group))
	}

	// Step 2: URL signals.
	hosts := make([]string, 0, len(urls))
	for _, u := range urls {
		if host := strings.ToLower(extract.Domain(u)); host != "" {
			hosts = append(hosts, host)
		}
	}

	primaryURL := ""
	if len(urls) > 0 {
		primaryURL = urls[0]
	}
	primaryDomain := ""
	if len(hosts) > 0 {
		primaryDomain = hosts[0]
	}

	urlWeights := e.ruleSet.URLSignals.Weights
	if len(urls) > 0 {
		score += urlWeights.HasURL
		reasons.add(domain.ReasonURLPresent)
	}

	if anyHost(hosts, e.isShortener) {
		score += urlWeights.Shortener
		reasons.add(domain.ReasonURLShortener)
	}

	if anyHost(hosts, hasPunycodeLabel) {
		score += urlWeights.Punycode
		reasons.add(domain.ReasonURLPunycode)
	}

	if anyHost(hosts, e.hasSuspiciousTLD) {
		score += urlWeights.SuspiciousTLD
		reasons.add(domain.ReasonURLSuspiciousTLD)
	}

	var anyNonLatin, anyMixedScript bool
	for _, host := range hosts {
		info := spoof.Analyze(host)
		anyNonLatin = anyNonLatin || info.HasNonLatinLetters
		anyMixedScript = anyMixedScript || info.HasMixedLatinCyrillic
	}
	if anyNonLatin {
		score += urlWeights.NonLatinHostname
		reasons.add(domain.ReasonURLNonLatinHostname)
	}
	if anyMixedScript {
		// Stacks on top of the non-Latin weight: mixed script implies
		// non-Latin and is the stronger homoglyph signal.
		score += urlWeights.MixedScriptBonus
		reasons.add(domain.ReasonURLMixedScript)
	}

	// Step 3: payment-reference signals.
	paymentWeights := e.ruleSet.PaymentSignals.Weights
	entityOwner := ""
	if payment != nil {
		score += paymentWeights.HasEntityRef
		reasons.add(domain.ReasonPaymentRequest)
		reasons.add(domain.ReasonPaymentEntityRef)

		if payment.AmountDetected || payment.Amount != "" {
			score += paymentWeights.HasAmount
			reasons.add(domain.ReasonPaymentAmount)
		}

		directory := e.ruleSet.PaymentDirectory
		if owner, ok := directory.Entities[payment.EntityCode]; ok {
			entityOwner = owner
			score += paymentWeights.KnownEntity
			reasons.add(domain.ReasonPaymentKnown)
		} else if owner, ok := directory.Intermediaries[payment.EntityCode]; ok {
			entityOwner = owner
			score += paymentWeights.IntermediaryEntity
			reasons.add(domain.ReasonPaymentIntermediary)
		} else {
			score += paymentWeights.UnknownEntity
			reasons.add(domain.ReasonPaymentUnknown)
		}
	}

	// Steps 4-5: brand correlation.
	primaryBrand := brand.DetectPrimary(normalizedText, matchedGroups)

	if primaryBrand != "" && entityOwner != "" {
		if e.brandEntityMismatch(primaryBrand, entityOwner) {
			score += e.ruleSet.Correlation.Weights.BrandEntityMismatch
			reasons.add(domain.ReasonBrandEntityMismatch)
		}
	}

	if primaryBrand != "" && len(hosts) > 0 {
		if e.brandURLMismatch(primaryBrand, hosts) {
			score += e.ruleSet.Correlation.Weights.BrandURLMismatch
			reasons.add(domain.ReasonBrandURLMismatch)
		}
	}

	// Custom CEL signals, when configured.
	score += e.evalCustomSignals(messageText, normalizedText, urls, hosts, matchedGroups, payment, reasons)

	// Step 6: score floors. Each can only raise the score to the medium
	// threshold, never lower it.
	medium := e.ruleSet.Scoring.Thresholds.Medium
	if payment != nil && payment.EntityDetected && payment.ReferenceDetected && score < medium {
		score = medium
		if reasons.contains(domain.ReasonPaymentRequest) {
			reasons.add(domain.ReasonPaymentFloor)
		} else {
			reasons.add(domain.ReasonPaymentRequest)
		}
	}
	if matchedGroups[domain.GroupDataRequest] && score < medium {
		score = medium
		reasons.add(domain.ReasonDataRequestFloor)
	}
	if anyNonLatin && score < medium {
		score = medium
		reasons.add(domain.ReasonNonLatinURLFloor)
	}

	// Step 7: finalize.
	finalScore := clamp(score, 0, 100)

	level := domain.LevelLow
	switch {
	case finalScore >= e.ruleSet.Scoring.Thresholds.High:
		level = domain.LevelHigh
	case finalScore >= medium:
		level = domain.LevelMedium
	}

	return domain.RiskResult{
		Score:         finalScore,
		Level:         level,
		Reasons:       reasons.list(),
		PrimaryURL:    primaryURL,
		PrimaryDomain: primaryDomain,
		PrimaryBrand:  primaryBrand,
	}
}

// detectKeywordGroups tests every group's keywords against the normalized
// text by substring.
func (e *Engine) detectKeywordGroups(normalizedText string) map[domain.KeywordGroup]bool {
	matched := make(map[domain.KeywordGroup]bool)
	if normalizedText == "" {
		return matched
	}

	for _, group := range domain.AllKeywordGroups {
		for _, kw := range e.normalizedKeywords[group] {
			if strings.Contains(normalizedText, kw) {
				matched[group] = true
				break
			}
		}
	}
	return matched
}

func (e *Engine) isShortener(host string) bool {
	for _, shortener := range e.ruleSet.URLSignals.Shorteners {
		if strings.EqualFold(host, shortener) {
			return true
		}
	}
	return false
}

func (e *Engine) hasSuspiciousTLD(host string) bool {
	i := strings.LastIndexByte(host, '.')
	if i < 0 {
		return false
	}
	tld := host[i+1:]

	for _, suspicious := range e.ruleSet.URLSignals.SuspiciousTLDs {
		if strings.EqualFold(tld, strings.TrimPrefix(suspicious, ".")) {
			return true
		}
	}
	return false
}

func hasPunycodeLabel(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, "xn--") {
			return true
		}
	}
	return false
}

func anyHost(hosts []string, pred func(string) bool) bool {
	for _, host := range hosts {
		if pred(host) {
			return true
		}
	}
	return false
}

// brandEntityMismatch reports whether the payment entity's real owner fails
// to match any of the brand's accepted owner substrings. An empty accepted
// list means "no opinion" and never mismatches.
func (e *Engine) brandEntityMismatch(brandName, entityOwner string) bool {
	allowedOwners := e.ruleSet.Correlation.BrandEntityMap[brandName]
	if len(allowedOwners) == 0 {
		return false
	}

	normalizedOwner := textnorm.Normalize(entityOwner)
	for _, allowed := range allowedOwners {
		normalizedAllowed := textnorm.Normalize(allowed)
		if normalizedOwner == normalizedAllowed || strings.Contains(normalizedOwner, normalizedAllowed) {
			return false
		}
	}
	return true
}

// brandURLMismatch reports whether none of the extracted hosts equals or is
// a subdomain of any domain the brand is allowed to link to.
func (e *Engine) brandURLMismatch(brandName string, hosts []string) bool {
	allowedDomains := e.ruleSet.Correlation.BrandAllowedDomains[brandName]
	if len(allowedDomains) == 0 {
		return false
	}

	for _, host := range hosts {
		for _, allowed := range allowedDomains {
			normalizedAllowed := strings.TrimPrefix(strings.ToLower(allowed), ".")
			if host == normalizedAllowed || strings.HasSuffix(host, "."+normalizedAllowed) {
				return false
			}
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// reasonList keeps reason codes in first-seen insertion order with no
// duplicates.
type reasonList struct {
	seen  map[string]struct{}
	order []string
}

func newReasonList() *reasonList {
	return &reasonList{seen: make(map[string]struct{})}
}

func (r *reasonList) add(reason string) {
	if _, ok := r.seen[reason]; ok {
		return
	}
	r.seen[reason] = struct{}{}
	r.order = append(r.order, reason)
}

func (r *reasonList) contains(reason string) bool {
	_, ok := r.seen[reason]
	return ok
}

func (r *reasonList) list() []string {
	return r.order
}

package rules

import (
	"encoding/json"
	"fmt"

	"github.com/opensource-finance/shrike/internal/domain"
)

// Parse decodes a rule-set document, fills in defaults for absent sections,
// and validates the structural invariants the engine itself trusts blindly.
// Unknown JSON fields are ignored so older binaries accept newer documents.
func Parse(data []byte) (*domain.RuleSet, error) {
	var rs domain.RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to decode rule set: %w", err)
	}

	ApplyDefaults(&rs)

	if err := Validate(&rs); err != nil {
		return nil, err
	}

	return &rs, nil
}

// ApplyDefaults fills absent sections from the built-in rule set. The
// engine assumes a structurally complete RuleSet; defaulting happens here,
// at the loading boundary, never during scoring.
func ApplyDefaults(rs *domain.RuleSet) {
	def := domain.DefaultRuleSet()

	if rs.Scoring.Thresholds == (domain.ScoreThresholds{}) {
		rs.Scoring.Thresholds = def.Scoring.Thresholds
	}
	if rs.KeywordWeights == (domain.KeywordWeights{}) {
		rs.KeywordWeights = def.KeywordWeights
	}
	if rs.URLSignals.Weights == (domain.URLWeights{}) {
		rs.URLSignals.Weights = def.URLSignals.Weights
	}
	if rs.PaymentSignals.Weights == (domain.PaymentWeights{}) {
		rs.PaymentSignals.Weights = def.PaymentSignals.Weights
	}
	if rs.Correlation.Weights == (domain.CorrelationWeights{}) {
		rs.Correlation.Weights = def.Correlation.Weights
	}
	if rs.Correlation.BrandEntityMap == nil {
		rs.Correlation.BrandEntityMap = map[string][]string{}
	}
	if rs.Correlation.BrandAllowedDomains == nil {
		rs.Correlation.BrandAllowedDomains = map[string][]string{}
	}
	if rs.PaymentDirectory.Entities == nil {
		rs.PaymentDirectory.Entities = map[string]string{}
	}
	if rs.PaymentDirectory.Intermediaries == nil {
		rs.PaymentDirectory.Intermediaries = map[string]string{}
	}
}

// Validate checks the invariants a well-formed rule set must satisfy.
func Validate(rs *domain.RuleSet) error {
	if rs.Version <= 0 {
		return fmt.Errorf("rule set version must be positive, got %d", rs.Version)
	}

	t := rs.Scoring.Thresholds
	if t.Medium < 0 || t.Medium > t.High || t.High > 100 {
		return fmt.Errorf("invalid thresholds: require 0 <= medium (%d) <= high (%d) <= 100", t.Medium, t.High)
	}

	for _, signal := range rs.CustomSignals {
		if signal.Enabled && signal.ID == "" {
			return fmt.Errorf("custom signal with empty id")
		}
		if signal.Enabled && signal.Expression == "" {
			return fmt.Errorf("custom signal %s has no expression", signal.ID)
		}
	}

	// Enabled signals must compile here, before the document can be
	// persisted or swapped in. A document that passes Validate is one
	// NewEngine will always accept.
	if _, err := compileSignals(rs.CustomSignals); err != nil {
		return err
	}

	return nil
}

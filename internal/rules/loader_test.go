package rules

import (
	"testing"

	"github.com/opensource-finance/shrike/internal/domain"
)

func TestParse(t *testing.T) {
	t.Run("MinimalDocumentGetsDefaults", func(t *testing.T) {
		rs, err := Parse([]byte(`{"version": 7}`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		if rs.Version != 7 {
			t.Errorf("version = %d, want 7", rs.Version)
		}

		def := domain.DefaultRuleSet()
		if rs.Scoring.Thresholds != def.Scoring.Thresholds {
			t.Errorf("thresholds = %+v, want defaults %+v", rs.Scoring.Thresholds, def.Scoring.Thresholds)
		}
		if rs.KeywordWeights != def.KeywordWeights {
			t.Errorf("keyword weights not defaulted: %+v", rs.KeywordWeights)
		}
		if rs.URLSignals.Weights != def.URLSignals.Weights {
			t.Errorf("url weights not defaulted: %+v", rs.URLSignals.Weights)
		}
		if rs.PaymentDirectory.Entities == nil || rs.PaymentDirectory.Intermediaries == nil {
			t.Error("payment directory maps must never be nil after Parse")
		}
		if rs.Correlation.BrandEntityMap == nil || rs.Correlation.BrandAllowedDomains == nil {
			t.Error("correlation maps must never be nil after Parse")
		}
	})

	t.Run("ExplicitSectionsKept", func(t *testing.T) {
		doc := `{
			"version": 2,
			"scoring": {"thresholds": {"medium": 30, "high": 60}},
			"urlSignals": {
				"shorteners": ["sho.rt"],
				"weights": {"hasUrl": 5, "shortener": 40, "punycode": 1, "nonLatinHostname": 1, "mixedScriptBonus": 1, "suspiciousTld": 1}
			}
		}`
		rs, err := Parse([]byte(doc))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		if rs.Scoring.Thresholds.Medium != 30 || rs.Scoring.Thresholds.High != 60 {
			t.Errorf("thresholds overridden incorrectly: %+v", rs.Scoring.Thresholds)
		}
		if rs.URLSignals.Weights.Shortener != 40 {
			t.Errorf("shortener weight = %d, want 40", rs.URLSignals.Weights.Shortener)
		}
		if len(rs.URLSignals.Shorteners) != 1 || rs.URLSignals.Shorteners[0] != "sho.rt" {
			t.Errorf("shorteners = %v", rs.URLSignals.Shorteners)
		}
	})

	t.Run("UnknownFieldsIgnored", func(t *testing.T) {
		if _, err := Parse([]byte(`{"version": 1, "futureField": {"x": 1}}`)); err != nil {
			t.Errorf("unknown fields must be ignored, got %v", err)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		if _, err := Parse([]byte(`{not json`)); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("RejectsNonPositiveVersion", func(t *testing.T) {
		if _, err := Parse([]byte(`{"version": 0}`)); err == nil {
			t.Fatal("expected validation error for version 0")
		}
	})

	t.Run("RejectsInvertedThresholds", func(t *testing.T) {
		doc := `{"version": 1, "scoring": {"thresholds": {"medium": 80, "high": 40}}}`
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatal("expected validation error for medium > high")
		}
	})

	t.Run("RejectsEnabledSignalWithoutExpression", func(t *testing.T) {
		doc := `{"version": 1, "customSignals": [{"id": "x", "expression": "", "weight": 5, "enabled": true}]}`
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatal("expected validation error for empty expression")
		}
	})

	t.Run("RejectsUncompilableSignalExpression", func(t *testing.T) {
		doc := `{"version": 1, "customSignals": [{"id": "bad", "expression": "((( not cel", "weight": 5, "enabled": true}]}`
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatal("expected validation error for uncompilable expression")
		}
	})

	t.Run("RejectsNonBoolSignalExpression", func(t *testing.T) {
		doc := `{"version": 1, "customSignals": [{"id": "notbool", "expression": "url_count + 1", "weight": 5, "enabled": true}]}`
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatal("expected validation error for non-bool expression")
		}
	})

	t.Run("DisabledSignalWithoutExpressionAccepted", func(t *testing.T) {
		doc := `{"version": 1, "customSignals": [{"id": "x", "expression": "", "weight": 5, "enabled": false}]}`
		if _, err := Parse([]byte(doc)); err != nil {
			t.Errorf("disabled signals are not validated, got %v", err)
		}
	})
}

func TestValidateThresholdBounds(t *testing.T) {
	rs := domain.DefaultRuleSet()
	rs.Scoring.Thresholds.High = 101
	if err := Validate(rs); err == nil {
		t.Fatal("expected validation error for high > 100")
	}
}

package domain

// RiskLevel is the discrete verdict level derived from the final score.
type RiskLevel string

const (
	LevelLow    RiskLevel = "LOW"
	LevelMedium RiskLevel = "MEDIUM"
	LevelHigh   RiskLevel = "HIGH"
)

// AtLeast reports whether l is at or above min in severity order
// LOW < MEDIUM < HIGH. Unknown levels rank below LOW.
func (l RiskLevel) AtLeast(min RiskLevel) bool {
	return l.rank() >= min.rank()
}

func (l RiskLevel) rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	default:
		return 0
	}
}

// Reason codes are a stable string contract consumed by alert and history
// sinks for localized labels. Never rename these.
const (
	ReasonURLPresent          = "url_present"
	ReasonURLShortener        = "url_shortener"
	ReasonURLPunycode         = "url_punycode"
	ReasonURLSuspiciousTLD    = "url_suspicious_tld"
	ReasonURLNonLatinHostname = "url_non_latin_hostname"
	ReasonURLMixedScript      = "url_mixed_latin_cyrillic"

	ReasonPaymentRequest      = "mb_payment_request"
	ReasonPaymentEntityRef    = "mb_has_entity_ref"
	ReasonPaymentAmount       = "mb_has_amount"
	ReasonPaymentKnown        = "mb_known_entity"
	ReasonPaymentIntermediary = "mb_intermediary_entity"
	ReasonPaymentUnknown      = "mb_unknown_entity"

	ReasonBrandEntityMismatch = "correlation_brand_entity_mismatch"
	ReasonBrandURLMismatch    = "correlation_brand_url_mismatch"

	// Score-floor markers (minimum-severity overrides)
	ReasonPaymentFloor     = "mb_payment_request_minimum_medium"
	ReasonDataRequestFloor = "data_request_minimum_medium"
	ReasonNonLatinURLFloor = "non_latin_url_minimum_medium"

	// Keyword reasons are "keyword_<group>"; custom signals are "custom_<id>".
	ReasonKeywordPrefix = "keyword_"
	ReasonCustomPrefix  = "custom_"
)

// RiskResult is the engine's sole output: the final score, its level, and
// the ordered, deduplicated list of reason codes that explain it.
type RiskResult struct {
	Score         int       `json:"score"`
	Level         RiskLevel `json:"level"`
	Reasons       []string  `json:"reasons"`
	PrimaryURL    string    `json:"primaryUrl"`
	PrimaryDomain string    `json:"primaryDomain"`
	PrimaryBrand  string    `json:"primaryBrand,omitempty"`
}

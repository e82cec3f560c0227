package domain

// KeywordGroup identifies one of the fixed keyword categories the engine
// scans for. The set is closed so scoring can iterate it exhaustively.
type KeywordGroup string

const (
	GroupUrgency        KeywordGroup = "urgency"
	GroupThreat         KeywordGroup = "threat"
	GroupPayment        KeywordGroup = "payment"
	GroupDataRequest    KeywordGroup = "dataRequest"
	GroupPublicServices KeywordGroup = "publicServices"
	GroupDelivery       KeywordGroup = "delivery"
	GroupBanking        KeywordGroup = "banking"
)

// AllKeywordGroups lists every group in evaluation order. Reason codes are
// emitted in this order, so it is part of the wire contract.
var AllKeywordGroups = []KeywordGroup{
	GroupUrgency,
	GroupThreat,
	GroupPayment,
	GroupDataRequest,
	GroupPublicServices,
	GroupDelivery,
	GroupBanking,
}

// RuleSet is the versioned, externally supplied scoring configuration.
// It is immutable once handed to an engine; hot swaps replace the whole
// value, never mutate it in place.
type RuleSet struct {
	Version     int    `json:"version"`
	PublishedAt string `json:"publishedAt"`

	Scoring          ScoringConfig     `json:"scoring"`
	KeywordGroups    KeywordGroups     `json:"keywordGroups"`
	KeywordWeights   KeywordWeights    `json:"keywordWeights"`
	URLSignals       URLSignals        `json:"urlSignals"`
	PaymentSignals   PaymentSignals    `json:"paymentSignals"`
	Correlation      CorrelationConfig `json:"correlation"`
	PaymentDirectory PaymentDirectory  `json:"paymentDirectory"`

	// Optional operator-defined CEL rules evaluated on top of the
	// built-in signals. May be empty.
	CustomSignals []CustomSignal `json:"customSignals,omitempty"`
}

// ScoringConfig holds the score-to-level cut points.
type ScoringConfig struct {
	Thresholds ScoreThresholds `json:"thresholds"`
}

// ScoreThresholds maps scores to risk levels: score >= High is HIGH,
// score >= Medium is MEDIUM, anything below is LOW.
type ScoreThresholds struct {
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// KeywordGroups holds the configurable keyword lists per group.
type KeywordGroups struct {
	Urgency        []string `json:"urgency"`
	Threat         []string `json:"threat"`
	Payment        []string `json:"payment"`
	DataRequest    []string `json:"dataRequest"`
	PublicServices []string `json:"publicServices"`
	Delivery       []string `json:"delivery"`
	Banking        []string `json:"banking"`
}

// Keywords returns the configured keyword list for a group.
func (k KeywordGroups) Keywords(group KeywordGroup) []string {
	switch group {
	case GroupUrgency:
		return k.Urgency
	case GroupThreat:
		return k.Threat
	case GroupPayment:
		return k.Payment
	case GroupDataRequest:
		return k.DataRequest
	case GroupPublicServices:
		return k.PublicServices
	case GroupDelivery:
		return k.Delivery
	case GroupBanking:
		return k.Banking
	default:
		return nil
	}
}

// KeywordWeights holds the per-group score contribution.
type KeywordWeights struct {
	Urgency        int `json:"urgency"`
	Threat         int `json:"threat"`
	Payment        int `json:"payment"`
	DataRequest    int `json:"dataRequest"`
	PublicServices int `json:"publicServices"`
	Delivery       int `json:"delivery"`
	Banking        int `json:"banking"`
}

// Weight returns the configured weight for a group.
func (w KeywordWeights) Weight(group KeywordGroup) int {
	switch group {
	case GroupUrgency:
		return w.Urgency
	case GroupThreat:
		return w.Threat
	case GroupPayment:
		return w.Payment
	case GroupDataRequest:
		return w.DataRequest
	case GroupPublicServices:
		return w.PublicServices
	case GroupDelivery:
		return w.Delivery
	case GroupBanking:
		return w.Banking
	default:
		return 0
	}
}

// URLSignals configures link-based scoring.
type URLSignals struct {
	SuspiciousTLDs []string   `json:"suspiciousTlds"`
	Shorteners     []string   `json:"shorteners"`
	Weights        URLWeights `json:"weights"`
}

// URLWeights holds the score contributions for URL evidence.
type URLWeights struct {
	HasURL           int `json:"hasUrl"`
	Shortener        int `json:"shortener"`
	Punycode         int `json:"punycode"`
	NonLatinHostname int `json:"nonLatinHostname"`
	MixedScriptBonus int `json:"mixedScriptBonus"`
	SuspiciousTLD    int `json:"suspiciousTld"`
}

// PaymentSignals holds the score contributions for payment-reference
// evidence. KnownEntity is normally negative: a recognized official entity
// code reduces risk.
type PaymentSignals struct {
	Weights PaymentWeights `json:"weights"`
}

// PaymentWeights holds the individual payment signal weights.
type PaymentWeights struct {
	HasEntityRef       int `json:"hasEntityRef"`
	HasAmount          int `json:"hasAmount"`
	UnknownEntity      int `json:"unknownEntity"`
	IntermediaryEntity int `json:"intermediaryEntity"`
	KnownEntity        int `json:"knownEntity"`
}

// CorrelationConfig cross-checks a claimed brand against the real owner of
// a payment entity code or a linked domain.
type CorrelationConfig struct {
	Weights             CorrelationWeights  `json:"weights"`
	BrandEntityMap      map[string][]string `json:"brandEntityMap"`
	BrandAllowedDomains map[string][]string `json:"brandAllowedDomains"`
}

// CorrelationWeights holds the mismatch penalties.
type CorrelationWeights struct {
	BrandEntityMismatch int `json:"brandEntityMismatch"`
	BrandURLMismatch    int `json:"brandUrlMismatch"`
}

// PaymentDirectory maps 5-digit entity codes to their real-world owners.
type PaymentDirectory struct {
	Entities       map[string]string `json:"entities"`
	Intermediaries map[string]string `json:"intermediaries"`
}

// CustomSignal is an operator-defined CEL expression evaluated against the
// derived analysis facts. When the expression evaluates to true the weight
// is added and reason "custom_<id>" is appended.
type CustomSignal struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
	Weight     int    `json:"weight"`
	Enabled    bool   `json:"enabled"`
}

// DefaultRuleSet returns the built-in rule set shipped with the binary.
// It is used until a newer version is installed via the API.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Version:     1,
		PublishedAt: "2026-01-01T00:00:00Z",
		Scoring: ScoringConfig{
			Thresholds: ScoreThresholds{Medium: 40, High: 70},
		},
		KeywordGroups: KeywordGroups{
			Urgency:        []string{"urgente", "imediato", "imediata", "24h", "48h", "ultimo aviso"},
			Threat:         []string{"penhora", "bloqueio", "suspensao", "divida", "processo"},
			Payment:        []string{"pagamento", "taxa", "fatura", "regularizar", "pague"},
			DataRequest:    []string{"codigo", "pin", "password", "confirme os seus dados", "atualize os seus dados"},
			PublicServices: []string{"financas", "autoridade tributaria", "seguranca social", "sns"},
			Delivery:       []string{"encomenda", "entrega", "alfandega", "portes"},
			Banking:        []string{"banco", "conta", "cartao", "movimentos", "transferencia"},
		},
		KeywordWeights: KeywordWeights{
			Urgency:        10,
			Threat:         15,
			Payment:        10,
			DataRequest:    25,
			PublicServices: 10,
			Delivery:       10,
			Banking:        10,
		},
		URLSignals: URLSignals{
			SuspiciousTLDs: []string{"xyz", "top", "club", "icu", "cfd", "sbs"},
			Shorteners:     []string{"bit.ly", "tinyurl.com", "cutt.ly", "is.gd", "t.co"},
			Weights: URLWeights{
				HasURL:           10,
				Shortener:        20,
				Punycode:         35,
				NonLatinHostname: 50,
				MixedScriptBonus: 20,
				SuspiciousTLD:    25,
			},
		},
		PaymentSignals: PaymentSignals{
			Weights: PaymentWeights{
				HasEntityRef:       25,
				HasAmount:          10,
				UnknownEntity:      30,
				IntermediaryEntity: 20,
				KnownEntity:        -10,
			},
		},
		Correlation: CorrelationConfig{
			Weights: CorrelationWeights{
				BrandEntityMismatch: 50,
				BrandURLMismatch:    35,
			},
			BrandEntityMap: map[string][]string{
				"ctt":      {"CTT"},
				"financas": {"Autoridade Tributaria", "Pagamentos Estado"},
				"edp":      {"EDP"},
				"meo":      {"MEO"},
				"vodafone": {"Vodafone"},
				"nos":      {"NOS"},
			},
			BrandAllowedDomains: map[string][]string{
				"ctt":      {"ctt.pt"},
				"financas": {"portaldasfinancas.gov.pt", "gov.pt"},
				"edp":      {"edp.pt"},
				"meo":      {"meo.pt"},
				"vodafone": {"vodafone.pt"},
				"nos":      {"nos.pt"},
				"mbway":    {"mbway.pt", "sibs.pt"},
			},
		},
		PaymentDirectory: PaymentDirectory{
			Entities: map[string]string{
				"10095": "Pagamentos Estado",
				"10158": "Vodafone",
				"10611": "EDP",
				"20117": "MEO",
				"20270": "NOS",
			},
			Intermediaries: map[string]string{
				"10241": "HiPay",
				"11249": "Easypay",
				"21800": "Ifthenpay",
			},
		},
	}
}

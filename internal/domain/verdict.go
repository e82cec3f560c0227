package domain

import (
	"time"
)

// Verdict is the persisted record of one scored message: the RiskResult
// plus identifiers and the extracted payment data, if any. This is the
// history event consumed by alert and history sinks.
type Verdict struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	MessageID string    `json:"messageId"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`

	Score         int       `json:"score"`
	Level         RiskLevel `json:"level"`
	Reasons       []string  `json:"reasons"`
	PrimaryURL    string    `json:"primaryUrl,omitempty"`
	PrimaryDomain string    `json:"primaryDomain,omitempty"`
	PrimaryBrand  string    `json:"primaryBrand,omitempty"`

	Payment *PaymentReference `json:"payment,omitempty"`

	// Notification decision and processing metadata
	Notified bool            `json:"notified"`
	Metadata VerdictMetadata `json:"metadata"`
}

// VerdictMetadata contains processing information.
type VerdictMetadata struct {
	TraceID        string `json:"traceId"`
	AnalyzeMs      int64  `json:"analyzeMs"`
	TotalMs        int64  `json:"totalMs"`
	RuleSetVersion int    `json:"ruleSetVersion"`
	EngineVersion  string `json:"engineVersion"`
}

// VerdictResponse is the API response for a message analysis.
type VerdictResponse struct {
	VerdictID     string            `json:"verdictId"`
	MessageID     string            `json:"messageId"`
	TenantID      string            `json:"tenantId"`
	Score         int               `json:"score"`
	Level         RiskLevel         `json:"level"`
	Reasons       []string          `json:"reasons,omitempty"`
	PrimaryURL    string            `json:"primaryUrl,omitempty"`
	PrimaryDomain string            `json:"primaryDomain,omitempty"`
	PrimaryBrand  string            `json:"primaryBrand,omitempty"`
	Payment       *PaymentReference `json:"payment,omitempty"`
	Notified      bool              `json:"notified"`
	Metadata      VerdictMetadata   `json:"metadata"`
}

// ToResponse converts a Verdict to an API response.
func (v *Verdict) ToResponse() *VerdictResponse {
	return &VerdictResponse{
		VerdictID:     v.ID,
		MessageID:     v.MessageID,
		TenantID:      v.TenantID,
		Score:         v.Score,
		Level:         v.Level,
		Reasons:       v.Reasons,
		PrimaryURL:    v.PrimaryURL,
		PrimaryDomain: v.PrimaryDomain,
		PrimaryBrand:  v.PrimaryBrand,
		Payment:       v.Payment,
		Notified:      v.Notified,
		Metadata:      v.Metadata,
	}
}

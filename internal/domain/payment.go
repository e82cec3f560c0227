package domain

// PaymentReference is a Multibanco-style payment request extracted from
// message text: a 5-digit entity code, a 9+-digit reference number, and an
// optional amount. Constructed fresh per detection, immutable afterwards.
type PaymentReference struct {
	EntityCode    string `json:"entityCode"`
	ReferenceCode string `json:"referenceCode"`
	Amount        string `json:"amount,omitempty"`

	EntityDetected    bool `json:"entityDetected"`
	ReferenceDetected bool `json:"referenceDetected"`
	AmountDetected    bool `json:"amountDetected"`
}

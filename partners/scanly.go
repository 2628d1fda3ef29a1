package partners

import (
	"net/http"
	"strings"
)

// ScanlyAdapter handles Scanly receipt-scanning postbacks (POST only).
// Scanly authenticates with a shared API key, compared case-insensitively —
// their pipeline uppercases configured keys before sending.
//
// Scanly does not always send a transaction id; when absent the external id
// is synthesized from the receipt id so retried deliveries still collide on
// the dedup key. voided=1/true marks a rejected receipt.
type ScanlyAdapter struct {
	secret string
}

func NewScanlyAdapter(secret string) *ScanlyAdapter {
	return &ScanlyAdapter{secret: secret}
}

func (a *ScanlyAdapter) Name() string { return "scanly" }

func (a *ScanlyAdapter) Parse(method string, p Params) (*CreditEvent, error) {
	if method != http.MethodPost {
		return nil, ErrMethodNotAllowed
	}

	userID := p.first("user", "user_id")
	receiptID := p.first("receipt_id")
	if userID == "" {
		return nil, ErrMissingParameter
	}

	txID := p.first("transaction_id")
	if txID == "" {
		if receiptID == "" {
			return nil, ErrMissingParameter
		}
		txID = "receipt:" + receiptID
	}

	if a.secret == "" {
		return nil, ErrInvalidAuth
	}
	if !secretEqual(strings.ToLower(p.first("apikey", "api_key")), strings.ToLower(a.secret)) {
		return nil, ErrInvalidAuth
	}

	gross, err := parseAmountUSD(p.first("reward"))
	if err != nil {
		return nil, err
	}

	voided := strings.ToLower(p.first("voided"))

	return &CreditEvent{
		UserID:       userID,
		OfferID:      receiptID,
		ExternalTxID: txID,
		GrossUSD:     gross,
		Reversal:     voided == "1" || voided == "true",
		Partner:      a.Name(),
	}, nil
}

package partners

import (
	"math"
	"net/http"
	"strconv"
)

// BitLabsAdapter handles BitLabs survey postbacks. BitLabs authenticates
// with a plain shared token and fires GET or POST depending on the dashboard
// configuration.
//
// Reconciliations (screened-out or fraudulent completes being clawed back)
// arrive either as type=RECONCILIATION or as a negative val; both map to a
// reversal of the absolute amount.
type BitLabsAdapter struct {
	secret string
}

func NewBitLabsAdapter(secret string) *BitLabsAdapter {
	return &BitLabsAdapter{secret: secret}
}

func (a *BitLabsAdapter) Name() string { return "bitlabs" }

func (a *BitLabsAdapter) Parse(method string, p Params) (*CreditEvent, error) {
	if method != http.MethodGet && method != http.MethodPost {
		return nil, ErrMethodNotAllowed
	}

	userID := p.first("uid", "user_id")
	txID := p.first("tx", "transaction_id")
	if userID == "" || txID == "" {
		return nil, ErrMissingParameter
	}

	if !secretEqual(p.first("token", "secret"), a.secret) {
		return nil, ErrInvalidAuth
	}

	raw := p.first("val")
	if raw == "" {
		return nil, ErrMissingParameter
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) || val == 0 {
		return nil, ErrInvalidAmount
	}

	reversal := p.first("type") == "RECONCILIATION" || val < 0

	return &CreditEvent{
		UserID:       userID,
		OfferID:      p.first("offer_id", "survey_id"),
		ExternalTxID: txID,
		GrossUSD:     math.Abs(val),
		Reversal:     reversal,
		Partner:      a.Name(),
	}, nil
}

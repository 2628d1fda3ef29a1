package partners

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
)

// CPXAdapter handles CPX Research survey postbacks. CPX signs with an MD5
// hash of "{userID}-{secret}" and may send several comma-joined hashes when
// a postback is re-fired through their retry queue. GET only.
//
// Canonical amount is amount_usd; amount_local (publisher currency) is
// ignored. status=2 marks a chargeback/reversal.
type CPXAdapter struct {
	secret string
}

func NewCPXAdapter(secret string) *CPXAdapter {
	return &CPXAdapter{secret: secret}
}

func (a *CPXAdapter) Name() string { return "cpx" }

func (a *CPXAdapter) Parse(method string, p Params) (*CreditEvent, error) {
	if method != http.MethodGet {
		return nil, ErrMethodNotAllowed
	}

	userID := p.first("user_id", "subid")
	txID := p.first("trans_id")
	if userID == "" || txID == "" {
		return nil, ErrMissingParameter
	}

	sum := md5.Sum([]byte(userID + "-" + a.secret))
	if !hashMatches(p.first("hash", "secure_hash"), hex.EncodeToString(sum[:]), a.secret) {
		return nil, ErrInvalidAuth
	}

	gross, err := parseAmountUSD(p.first("amount_usd"))
	if err != nil {
		return nil, err
	}

	return &CreditEvent{
		UserID:       userID,
		OfferID:      p.first("offer_id", "survey_id"),
		ExternalTxID: txID,
		GrossUSD:     gross,
		Reversal:     p.first("status") == "2",
		Partner:      a.Name(),
	}, nil
}

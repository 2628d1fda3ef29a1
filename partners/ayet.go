package partners

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
)

// AyetAdapter handles ayeT-Studios app-install postbacks (POST only). The
// signature is SHA-256 over "{subId}:{payoutCents}:{secret}" using the raw
// payout_usd string as sent; ayeT can attach multiple signatures when a
// conversion is replayed, comma-joined. payout_usd is integer cents.
// status=2 marks a conversion void.
type AyetAdapter struct {
	secret string
}

func NewAyetAdapter(secret string) *AyetAdapter {
	return &AyetAdapter{secret: secret}
}

func (a *AyetAdapter) Name() string { return "ayet" }

func (a *AyetAdapter) Parse(method string, p Params) (*CreditEvent, error) {
	if method != http.MethodPost {
		return nil, ErrMethodNotAllowed
	}

	userID := p.first("uid", "external_identifier")
	txID := p.first("transaction_id")
	rawCents := p.first("payout_usd")
	if userID == "" || txID == "" || rawCents == "" {
		return nil, ErrMissingParameter
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", userID, rawCents, a.secret)))
	if !hashMatches(p.first("signature"), hex.EncodeToString(sum[:]), a.secret) {
		return nil, ErrInvalidAuth
	}

	cents, err := parseAmountUSD(rawCents)
	if err != nil {
		return nil, err
	}

	return &CreditEvent{
		UserID:       userID,
		OfferID:      p.first("offer_id", "campaign_id"),
		ExternalTxID: txID,
		GrossUSD:     cents / 100,
		Reversal:     p.first("status") == "2",
		Partner:      a.Name(),
	}, nil
}

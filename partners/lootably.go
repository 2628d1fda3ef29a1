package partners

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// LootablyAdapter handles Lootably offerwall postbacks (POST only). Lootably
// signs with SHA-256 over the concatenation userID + transactionID + revenue
// + secret. No raw-secret fallback here — Lootably has never exhibited that
// quirk, so the hash is strict. status=reversed marks a chargeback.
type LootablyAdapter struct {
	secret string
}

func NewLootablyAdapter(secret string) *LootablyAdapter {
	return &LootablyAdapter{secret: secret}
}

func (a *LootablyAdapter) Name() string { return "lootably" }

func (a *LootablyAdapter) Parse(method string, p Params) (*CreditEvent, error) {
	if method != http.MethodPost {
		return nil, ErrMethodNotAllowed
	}

	userID := p.first("userID", "user_id")
	txID := p.first("transactionID", "transaction_id")
	rawRevenue := p.first("revenue")
	if userID == "" || txID == "" || rawRevenue == "" {
		return nil, ErrMissingParameter
	}

	sum := sha256.Sum256([]byte(userID + txID + rawRevenue + a.secret))
	if !hashMatches(p.first("hash"), hex.EncodeToString(sum[:]), "") {
		return nil, ErrInvalidAuth
	}

	gross, err := parseAmountUSD(rawRevenue)
	if err != nil {
		return nil, err
	}

	return &CreditEvent{
		UserID:       userID,
		OfferID:      p.first("placementID", "placement_id"),
		ExternalTxID: txID,
		GrossUSD:     gross,
		Reversal:     p.first("status") == "reversed",
		Partner:      a.Name(),
	}, nil
}

package partners

import (
	"crypto/subtle"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Parse failures, mapped to HTTP codes by the postback handlers.
var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidAuth      = errors.New("invalid postback authentication")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// CreditEvent is the canonical normalized notification every adapter
// produces. Reversal events flow through the same shape with Reversal set;
// the ledger decides what to do with them.
type CreditEvent struct {
	UserID       string
	OfferID      string
	ExternalTxID string
	GrossUSD     float64
	Reversal     bool
	Partner      string
}

// Params holds the merged request parameters (query over body). Adapters
// never touch the raw request — the handler flattens it first so adapters
// stay pure and unit-testable.
type Params map[string]string

func (p Params) first(keys ...string) string {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Adapter authenticates and normalizes one partner's postback format.
type Adapter interface {
	Name() string
	Parse(method string, params Params) (*CreditEvent, error)
}

// parseAmountUSD rejects non-finite and non-positive figures.
func parseAmountUSD(raw string) (float64, error) {
	if raw == "" {
		return 0, ErrMissingParameter
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// secretEqual compares a presented shared secret in constant time.
func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// hashMatches accepts if any of the comma-joined presented signatures equals
// the expected hex digest (case-insensitively — partners disagree on hex
// casing), or if the raw secret itself was sent in place of the hash. The
// raw-secret path is a documented partner quirk kept for compatibility.
func hashMatches(presented, wantHex, secret string) bool {
	if presented == "" {
		return false
	}
	for _, sig := range strings.Split(presented, ",") {
		sig = strings.TrimSpace(sig)
		if sig == "" {
			continue
		}
		if strings.EqualFold(sig, wantHex) {
			return true
		}
		if secret != "" && secretEqual(sig, secret) {
			return true
		}
	}
	return false
}

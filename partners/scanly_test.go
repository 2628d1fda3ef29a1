package partners

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanlyAdapter_Parse(t *testing.T) {
	a := NewScanlyAdapter("scanly-key")

	valid := func() Params {
		return Params{
			"user":           "user-7",
			"receipt_id":     "rcpt-31",
			"transaction_id": "sc-12",
			"reward":         "0.35",
			"apikey":         "scanly-key",
		}
	}

	t.Run("valid credit", func(t *testing.T) {
		ev, err := a.Parse(http.MethodPost, valid())
		require.NoError(t, err)
		assert.Equal(t, "sc-12", ev.ExternalTxID)
		assert.Equal(t, "rcpt-31", ev.OfferID)
		assert.Equal(t, 0.35, ev.GrossUSD)
	})

	t.Run("api key compared case insensitively", func(t *testing.T) {
		p := valid()
		p["apikey"] = "SCANLY-KEY"
		_, err := a.Parse(http.MethodPost, p)
		assert.NoError(t, err)
	})

	t.Run("tx id synthesized from receipt id", func(t *testing.T) {
		p := valid()
		delete(p, "transaction_id")
		ev, err := a.Parse(http.MethodPost, p)
		require.NoError(t, err)
		assert.Equal(t, "receipt:rcpt-31", ev.ExternalTxID)
	})

	t.Run("neither tx nor receipt id", func(t *testing.T) {
		p := valid()
		delete(p, "transaction_id")
		delete(p, "receipt_id")
		_, err := a.Parse(http.MethodPost, p)
		assert.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("voided receipt is a reversal", func(t *testing.T) {
		for _, flag := range []string{"1", "true", "TRUE"} {
			p := valid()
			p["voided"] = flag
			ev, err := a.Parse(http.MethodPost, p)
			require.NoError(t, err)
			assert.True(t, ev.Reversal, "voided=%q", flag)
		}
	})

	t.Run("GET rejected", func(t *testing.T) {
		_, err := a.Parse(http.MethodGet, valid())
		assert.ErrorIs(t, err, ErrMethodNotAllowed)
	})

	t.Run("wrong key", func(t *testing.T) {
		p := valid()
		p["apikey"] = "nope"
		_, err := a.Parse(http.MethodPost, p)
		assert.ErrorIs(t, err, ErrInvalidAuth)
	})

	t.Run("unconfigured secret rejects everything", func(t *testing.T) {
		bare := NewScanlyAdapter("")
		p := valid()
		p["apikey"] = ""
		_, err := bare.Parse(http.MethodPost, p)
		assert.ErrorIs(t, err, ErrInvalidAuth)
	})
}

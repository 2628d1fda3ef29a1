package partners

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cpxHash(userID, secret string) string {
	sum := md5.Sum([]byte(userID + "-" + secret))
	return hex.EncodeToString(sum[:])
}

func TestCPXAdapter_Parse(t *testing.T) {
	a := NewCPXAdapter("s3cret")

	valid := func() Params {
		return Params{
			"user_id":    "user-1",
			"trans_id":   "tx-100",
			"amount_usd": "1.20",
			"hash":       cpxHash("user-1", "s3cret"),
			"offer_id":   "survey-7",
			"status":     "1",
		}
	}

	t.Run("valid credit", func(t *testing.T) {
		ev, err := a.Parse(http.MethodGet, valid())
		require.NoError(t, err)
		assert.Equal(t, "user-1", ev.UserID)
		assert.Equal(t, "tx-100", ev.ExternalTxID)
		assert.Equal(t, "survey-7", ev.OfferID)
		assert.Equal(t, 1.20, ev.GrossUSD)
		assert.False(t, ev.Reversal)
		assert.Equal(t, "cpx", ev.Partner)
	})

	t.Run("status 2 is a reversal", func(t *testing.T) {
		p := valid()
		p["status"] = "2"
		ev, err := a.Parse(http.MethodGet, p)
		require.NoError(t, err)
		assert.True(t, ev.Reversal)
	})

	t.Run("POST rejected before parsing", func(t *testing.T) {
		_, err := a.Parse(http.MethodPost, valid())
		assert.ErrorIs(t, err, ErrMethodNotAllowed)
	})

	t.Run("bad hash", func(t *testing.T) {
		p := valid()
		p["hash"] = "deadbeef"
		_, err := a.Parse(http.MethodGet, p)
		assert.ErrorIs(t, err, ErrInvalidAuth)
	})

	t.Run("raw secret accepted in place of hash", func(t *testing.T) {
		p := valid()
		p["hash"] = "s3cret"
		_, err := a.Parse(http.MethodGet, p)
		assert.NoError(t, err)
	})

	t.Run("missing user or tx", func(t *testing.T) {
		p := valid()
		delete(p, "user_id")
		_, err := a.Parse(http.MethodGet, p)
		assert.ErrorIs(t, err, ErrMissingParameter)

		p = valid()
		delete(p, "trans_id")
		_, err = a.Parse(http.MethodGet, p)
		assert.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("ignores local amount, requires amount_usd", func(t *testing.T) {
		p := valid()
		delete(p, "amount_usd")
		p["amount_local"] = "95.00"
		_, err := a.Parse(http.MethodGet, p)
		assert.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		p := valid()
		p["amount_usd"] = "-1.20"
		_, err := a.Parse(http.MethodGet, p)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

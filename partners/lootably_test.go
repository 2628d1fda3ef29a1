package partners

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lootablyHash(userID, txID, revenue, secret string) string {
	sum := sha256.Sum256([]byte(userID + txID + revenue + secret))
	return hex.EncodeToString(sum[:])
}

func TestLootablyAdapter_Parse(t *testing.T) {
	a := NewLootablyAdapter("loot-secret")

	valid := func() Params {
		return Params{
			"userID":        "user-5",
			"transactionID": "lt-77",
			"revenue":       "3.40",
			"hash":          lootablyHash("user-5", "lt-77", "3.40", "loot-secret"),
			"placementID":   "wall-1",
		}
	}

	t.Run("valid credit", func(t *testing.T) {
		ev, err := a.Parse(http.MethodPost, valid())
		require.NoError(t, err)
		assert.Equal(t, "user-5", ev.UserID)
		assert.Equal(t, 3.40, ev.GrossUSD)
		assert.Equal(t, "wall-1", ev.OfferID)
	})

	t.Run("GET rejected", func(t *testing.T) {
		_, err := a.Parse(http.MethodGet, valid())
		assert.ErrorIs(t, err, ErrMethodNotAllowed)
	})

	t.Run("no raw secret fallback", func(t *testing.T) {
		p := valid()
		p["hash"] = "loot-secret"
		_, err := a.Parse(http.MethodPost, p)
		assert.ErrorIs(t, err, ErrInvalidAuth)
	})

	t.Run("hash covers the revenue figure", func(t *testing.T) {
		p := valid()
		p["revenue"] = "9.99" // tampered after signing
		_, err := a.Parse(http.MethodPost, p)
		assert.ErrorIs(t, err, ErrInvalidAuth)
	})

	t.Run("reversed status", func(t *testing.T) {
		p := valid()
		p["status"] = "reversed"
		ev, err := a.Parse(http.MethodPost, p)
		require.NoError(t, err)
		assert.True(t, ev.Reversal)
	})
}

package partners

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_First(t *testing.T) {
	p := Params{"uid": "u1", "user_id": "u2", "empty": ""}

	assert.Equal(t, "u1", p.first("uid", "user_id"))
	assert.Equal(t, "u2", p.first("missing", "user_id"))
	assert.Equal(t, "", p.first("empty", "also_missing"))
}

func TestParseAmountUSD(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		v, err := parseAmountUSD("2.50")
		assert.NoError(t, err)
		assert.Equal(t, 2.50, v)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := parseAmountUSD("")
		assert.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("rejects junk and non-positive", func(t *testing.T) {
		for _, raw := range []string{"abc", "0", "-1.25", "NaN", "Inf", "-Inf"} {
			_, err := parseAmountUSD(raw)
			assert.ErrorIs(t, err, ErrInvalidAmount, "raw=%q", raw)
		}
	})
}

func TestHashMatches(t *testing.T) {
	const want = "a94a8fe5ccb19ba61c4c0873d391e987982fbbd3"

	t.Run("exact match", func(t *testing.T) {
		assert.True(t, hashMatches(want, want, "secret"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.True(t, hashMatches("A94A8FE5CCB19BA61C4C0873D391E987982FBBD3", want, "secret"))
	})

	t.Run("any of comma joined", func(t *testing.T) {
		assert.True(t, hashMatches("deadbeef, "+want, want, "secret"))
	})

	t.Run("raw secret fallback", func(t *testing.T) {
		assert.True(t, hashMatches("secret", want, "secret"))
		assert.False(t, hashMatches("secret", want, ""))
	})

	t.Run("rejects wrong and empty", func(t *testing.T) {
		assert.False(t, hashMatches("deadbeef", want, "secret"))
		assert.False(t, hashMatches("", want, "secret"))
	})
}

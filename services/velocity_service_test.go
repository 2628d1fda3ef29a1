package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func stampsWithin(now time.Time, window time.Duration, n int) []time.Time {
	stamps := make([]time.Time, n)
	step := window / time.Duration(n+1)
	for i := 0; i < n; i++ {
		stamps[i] = now.Add(-step * time.Duration(i+1))
	}
	return stamps
}

func TestClassifyVelocity(t *testing.T) {
	now := time.Now()

	t.Run("quiet user passes", func(t *testing.T) {
		verdict := classifyVelocity(DefaultVelocityRules, stampsWithin(now, 24*time.Hour, 5), now)
		assert.False(t, verdict.Blocked)
		assert.Empty(t, verdict.Reasons)
		assert.Equal(t, 5, verdict.Sampled)
	})

	t.Run("burst trips the 15 minute rule", func(t *testing.T) {
		verdict := classifyVelocity(DefaultVelocityRules, stampsWithin(now, 10*time.Minute, 8), now)
		assert.True(t, verdict.Blocked)
		assert.Equal(t, 8, verdict.Counts["15m"])
		assert.Len(t, verdict.Reasons, 1)
	})

	t.Run("one under the limit passes", func(t *testing.T) {
		verdict := classifyVelocity(DefaultVelocityRules, stampsWithin(now, 10*time.Minute, 7), now)
		assert.False(t, verdict.Blocked)
	})

	t.Run("slow grind trips the 24h rule only", func(t *testing.T) {
		// 120 completions spaced across 23h: fine hourly, over the daily cap.
		verdict := classifyVelocity(DefaultVelocityRules, stampsWithin(now, 23*time.Hour, 120), now)
		assert.True(t, verdict.Blocked)
		assert.Equal(t, 120, verdict.Counts["24h"])
		assert.Less(t, verdict.Counts["1h"], 20)
	})

	t.Run("old events fall outside every window", func(t *testing.T) {
		old := []time.Time{now.Add(-25 * time.Hour), now.Add(-48 * time.Hour)}
		verdict := classifyVelocity(DefaultVelocityRules, old, now)
		assert.False(t, verdict.Blocked)
		assert.Equal(t, 0, verdict.Counts["24h"])
		assert.Equal(t, 2, verdict.Sampled)
	})

	t.Run("no history", func(t *testing.T) {
		verdict := classifyVelocity(DefaultVelocityRules, nil, now)
		assert.False(t, verdict.Blocked)
		assert.Equal(t, 0, verdict.Sampled)
	})
}

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCheckin(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("first ever check-in", func(t *testing.T) {
		res := nextCheckin(0, 0, nil, now)
		assert.True(t, res.Updated)
		assert.False(t, res.Reset)
		assert.Equal(t, 1, res.DailyStreak)
		assert.Equal(t, 0.5, res.BonusPercent)
		require.NotNil(t, res.LastCheckIn)
		assert.Equal(t, now, *res.LastCheckIn)
	})

	t.Run("within 18h is a no-op", func(t *testing.T) {
		last := now.Add(-10 * time.Hour)
		res := nextCheckin(3, 1.5, &last, now)
		assert.False(t, res.Updated)
		assert.Equal(t, 3, res.DailyStreak)
		assert.Equal(t, 1.5, res.BonusPercent)
		assert.Equal(t, &last, res.LastCheckIn)
	})

	t.Run("20h later extends the streak", func(t *testing.T) {
		last := now.Add(-20 * time.Hour)
		res := nextCheckin(1, 0.5, &last, now)
		assert.True(t, res.Updated)
		assert.False(t, res.Reset)
		assert.Equal(t, 2, res.DailyStreak)
		assert.Equal(t, 1.0, res.BonusPercent)
	})

	t.Run("50h later resets", func(t *testing.T) {
		last := now.Add(-50 * time.Hour)
		res := nextCheckin(2, 1.0, &last, now)
		assert.True(t, res.Updated)
		assert.True(t, res.Reset)
		assert.Equal(t, 1, res.DailyStreak)
		assert.Equal(t, 0.5, res.BonusPercent)
	})

	t.Run("bonus caps at 10 under repeated check-ins", func(t *testing.T) {
		streak, bonus := 0, 0.0
		var last *time.Time
		cursor := now
		for day := 0; day < 30; day++ {
			res := nextCheckin(streak, bonus, last, cursor)
			streak, bonus, last = res.DailyStreak, res.BonusPercent, res.LastCheckIn
			cursor = cursor.Add(24 * time.Hour)
		}
		assert.Equal(t, 30, streak)
		assert.Equal(t, 10.0, bonus)
	})

	t.Run("exact boundaries", func(t *testing.T) {
		at18 := now.Add(-checkinMinGap)
		res := nextCheckin(1, 0.5, &at18, now)
		assert.True(t, res.Updated, "18h exactly extends")

		at42 := now.Add(-checkinMaxGap)
		res = nextCheckin(1, 0.5, &at42, now)
		assert.True(t, res.Updated)
		assert.False(t, res.Reset, "42h exactly still extends")
	})
}

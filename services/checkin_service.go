package services

import (
	"errors"
	"log"
	"time"

	"offerwall-credit-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Check-in windows. Under 18h since the last check-in counts as the same
// day; between 18h and 42h extends the streak; beyond 42h resets it. The
// loose boundaries absorb timezone drift and irregular daily routines.
const (
	checkinMinGap = 18 * time.Hour
	checkinMaxGap = 42 * time.Hour

	checkinBonusStep = 0.5
)

// CheckinResult is returned to the client after a check-in attempt.
type CheckinResult struct {
	Updated      bool       `json:"updated"`
	Reset        bool       `json:"reset"`
	DailyStreak  int        `json:"daily_streak"`
	BonusPercent float64    `json:"bonus_percent"`
	LastCheckIn  *time.Time `json:"last_check_in"`
}

// nextCheckin computes the streak transition. Pure; the service applies the
// result inside a transaction.
func nextCheckin(streak int, bonus float64, last *time.Time, now time.Time) CheckinResult {
	if last == nil {
		return CheckinResult{Updated: true, DailyStreak: 1, BonusPercent: checkinBonusStep, LastCheckIn: &now}
	}

	elapsed := now.Sub(*last)
	switch {
	case elapsed < checkinMinGap:
		// Already checked in today.
		return CheckinResult{Updated: false, DailyStreak: streak, BonusPercent: clampBonus(bonus), LastCheckIn: last}
	case elapsed <= checkinMaxGap:
		return CheckinResult{
			Updated:      true,
			DailyStreak:  streak + 1,
			BonusPercent: clampBonus(bonus + checkinBonusStep),
			LastCheckIn:  &now,
		}
	default:
		return CheckinResult{Updated: true, Reset: true, DailyStreak: 1, BonusPercent: checkinBonusStep, LastCheckIn: &now}
	}
}

// CheckinService applies the once-per-day streak/bonus transition. The bonus
// it writes is what the ledger reads at credit time, so the mutation shares
// the same transaction discipline as every other user-state write.
type CheckinService struct {
	DB *gorm.DB
}

func NewCheckinService(db *gorm.DB) *CheckinService {
	return &CheckinService{DB: db}
}

// CheckIn is idempotent per calendar day: repeat calls inside the 18h window
// return updated=false and change nothing.
func (s *CheckinService) CheckIn(userID string) (*CheckinResult, error) {
	var result CheckinResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		result = nextCheckin(user.DailyStreak, user.BonusPercent, user.LastCheckIn, time.Now())
		if !result.Updated {
			return nil
		}

		user.DailyStreak = result.DailyStreak
		user.BonusPercent = result.BonusPercent
		user.LastCheckIn = result.LastCheckIn
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	if result.Updated {
		log.Printf("📅 Check-in: user=%s streak=%d bonus=%.1f%% reset=%t",
			userID, result.DailyStreak, result.BonusPercent, result.Reset)
	}
	return &result, nil
}

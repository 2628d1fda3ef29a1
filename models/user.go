package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is the local account row for the crediting core. Identity fields
// (email, verification flag, device fingerprint) are mirrored from the auth
// provider by the profile sync worker; balance/streak/referral fields are
// owned here and mutated only through the ledger transaction path.
type User struct {
	ID            string `gorm:"primaryKey" json:"id"` // auth provider's stable user id
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`
	DeviceID      string `gorm:"index" json:"-"` // opaque fingerprint, same-device referral detection

	Balance      float64    `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	BonusPercent float64    `gorm:"type:decimal(4,1);not null;default:0" json:"bonus_percent"` // 0–10, streak-derived
	DailyStreak  int        `gorm:"default:0" json:"daily_streak"`
	LastCheckIn  *time.Time `json:"last_check_in,omitempty"`

	ReferralCode          string  `gorm:"uniqueIndex" json:"referral_code"`
	ReferredBy            string  `gorm:"index" json:"referred_by,omitempty"` // referral code of the referring account
	ReferralPending       bool    `gorm:"default:true" json:"referral_pending"`
	TotalReferralEarnings float64 `gorm:"type:decimal(15,2);not null;default:0" json:"total_referral_earnings"`

	Timestamps
}

// ReferralCodeFor derives the account's referral code from its id:
// the first 8 hex characters of the uuid, uppercased.
func ReferralCodeFor(userID string) string {
	compact := strings.ToUpper(strings.ReplaceAll(userID, "-", ""))
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return compact
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

package services

import (
	"errors"
	"log"
	"time"

	"offerwall-credit-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralStatus enumerates every outcome of referral resolution. All but
// NotVerified are terminal: once reached, referral_pending is false and
// repeat triggers short-circuit.
type ReferralStatus string

const (
	ReferralNotVerified     ReferralStatus = "not_verified" // retried on next trigger
	ReferralNone            ReferralStatus = "no_referral"
	ReferralAlreadyResolved ReferralStatus = "already_resolved"
	ReferralInvalidCode     ReferralStatus = "invalid_code"
	ReferralSelfBlocked     ReferralStatus = "self_blocked"
	ReferralCircularBlocked ReferralStatus = "circular_blocked"
	ReferralSameDevice      ReferralStatus = "same_device_blocked"
	ReferralCapReached      ReferralStatus = "cap_reached"
	ReferralPaidSpecial     ReferralStatus = "paid_special"
	ReferralPaidNormal      ReferralStatus = "paid_normal"
)

const (
	// ReferredReward is paid unconditionally once the code validates.
	ReferredReward = 0.25
	// ReferrerReward is paid unless a block or the cap applies.
	ReferrerReward = 0.25
	// PromoReward is the fixed bonus for the promotional code.
	PromoReward = 0.50
	// ReferralEarningsCap is the referrer's lifetime ceiling.
	ReferralEarningsCap = 25.00
	// PromoReferralCode is the reserved admin/promotional code: it pays the
	// referred user directly with no referrer lookup, and the account
	// carrying it is exempt from the earnings cap.
	PromoReferralCode = "TEAMBONUS"
)

// ReferralService resolves the referral attached to an account exactly once.
type ReferralService struct {
	DB *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db}
}

// Resolve runs the referral state machine for one account inside a single
// transaction. Safe to call repeatedly: pre-verification calls are no-ops,
// and referral_pending flips to false exactly once, so no payment can
// double-fire.
func (s *ReferralService) Resolve(userID string) (ReferralStatus, error) {
	status := ReferralNotVerified
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// FOR UPDATE on the account row: a concurrent Resolve for the same
		// user queues here and then sees referral_pending already false, so
		// the payout below cannot double-fire.
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if !user.EmailVerified {
			status = ReferralNotVerified
			return nil
		}

		if user.ReferredBy == "" {
			status = ReferralNone
			if user.ReferralPending {
				user.ReferralPending = false
				return tx.Save(&user).Error
			}
			return nil
		}

		if !user.ReferralPending {
			status = ReferralAlreadyResolved
			return nil
		}

		resolve := func(st ReferralStatus) error {
			status = st
			user.ReferralPending = false
			return tx.Save(&user).Error
		}

		if user.ReferredBy == PromoReferralCode {
			entry := &models.AuditEntry{Type: models.AuditReferralBonus}
			if err := applyBalanceDelta(tx, &user, PromoReward, entry); err != nil {
				return err
			}
			return resolve(ReferralPaidSpecial)
		}

		var referrer models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("referral_code = ?", user.ReferredBy).First(&referrer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resolve(ReferralInvalidCode)
		}
		if err != nil {
			return err
		}

		if referrer.ID == user.ID {
			return resolve(ReferralSelfBlocked)
		}
		if referrer.ReferredBy != "" && referrer.ReferredBy == user.ReferralCode {
			return resolve(ReferralCircularBlocked)
		}

		// The referred user's reward is unconditional from here on, whatever
		// happens to the referrer's side.
		entry := &models.AuditEntry{Type: models.AuditReferral}
		if err := applyBalanceDelta(tx, &user, ReferredReward, entry); err != nil {
			return err
		}
		edge := &models.ReferralEdge{
			ReferrerID: referrer.ID,
			ReferredID: user.ID,
			CodeUsed:   user.ReferredBy,
			JoinedAt:   time.Now(),
		}
		if err := tx.Create(edge).Error; err != nil {
			return err
		}

		if user.DeviceID != "" && user.DeviceID == referrer.DeviceID {
			return resolve(ReferralSameDevice)
		}

		if referrer.ReferralCode != PromoReferralCode &&
			referrer.TotalReferralEarnings >= ReferralEarningsCap {
			return resolve(ReferralCapReached)
		}

		refEntry := &models.AuditEntry{Type: models.AuditReferral}
		if err := applyBalanceDelta(tx, &referrer, ReferrerReward, refEntry); err != nil {
			return err
		}
		referrer.TotalReferralEarnings = round2(referrer.TotalReferralEarnings + ReferrerReward)
		if err := tx.Save(&referrer).Error; err != nil {
			return err
		}
		edge.EarningsFromReferral = ReferrerReward
		if err := tx.Save(edge).Error; err != nil {
			return err
		}

		return resolve(ReferralPaidNormal)
	})
	if err != nil {
		return status, err
	}
	if status != ReferralNotVerified && status != ReferralAlreadyResolved {
		log.Printf("🤝 Referral resolved for user=%s → %s", userID, status)
	}
	return status, nil
}

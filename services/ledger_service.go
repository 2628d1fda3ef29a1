package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"offerwall-credit-system/models"
	"offerwall-credit-system/partners"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUserNotFound surfaces as 404 where a handler deems it applicable.
	ErrUserNotFound = errors.New("user not found")
	// ErrTransient means the transaction kept losing commit races; safe for
	// the partner to retry because the dedup key makes retries harmless.
	ErrTransient = errors.New("transient storage failure")
)

// Bounded retry around commit contention — never hang a webhook.
const maxCommitAttempts = 3

// LedgerService owns every balance mutation in the system. All callers
// (partner postbacks, referral resolution, check-in) go through its
// transaction discipline rather than updating user rows ad hoc.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// CreditResult reports what a credit attempt did. Duplicate results are
// success-shaped: partners retry on non-200, so a duplicate must still ack.
type CreditResult struct {
	Offer     *models.CompletedOffer
	Split     Split
	Duplicate bool
}

// ReversalResult reports a reversal outcome. Tombstone means the original
// credit was never seen: a reversed record is written with no balance change
// so a late-arriving credit for the same tx dedups against it.
type ReversalResult struct {
	Offer           *models.CompletedOffer
	Amount          float64
	AlreadyReversed bool
	Tombstone       bool
}

// Credit commits a canonical credit event exactly once per
// (partner, externalTxID). The existence check, fresh bonus read, balance
// increment, audit append and completed-offer insert all share one
// transaction; the unique index on the dedup key is the compare-and-set that
// makes a concurrent duplicate commit fail instead of double-crediting.
func (s *LedgerService) Credit(ev *partners.CreditEvent) (*CreditResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		res, err := s.creditOnce(ev)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race to a concurrent delivery of the same tx.
			log.Printf("[LEDGER] Duplicate delivery (lost create race): %s/%s", ev.Partner, ev.ExternalTxID)
			return &CreditResult{Duplicate: true}, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
		log.Printf("[LEDGER] ⚠️ Commit contention for %s/%s (attempt %d/%d): %v",
			ev.Partner, ev.ExternalTxID, attempt, maxCommitAttempts, err)
	}
	return nil, fmt.Errorf("%w: %v", ErrTransient, lastErr)
}

func (s *LedgerService) creditOnce(ev *partners.CreditEvent) (*CreditResult, error) {
	var result CreditResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.CompletedOffer
		err := tx.Where("partner = ? AND external_tx_id = ?", ev.Partner, ev.ExternalTxID).
			First(&existing).Error
		if err == nil {
			result.Offer = &existing
			result.Duplicate = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user, err := loadOrCreateUser(tx, ev.UserID)
		if err != nil {
			return err
		}

		// Bonus must be the in-transaction value — a check-in racing this
		// credit could have changed it since the request arrived.
		split := SplitGross(ev.GrossUSD, user.BonusPercent)
		result.Split = split

		entry := &models.AuditEntry{
			Type:          models.AuditOfferCredit,
			GrossAmount:   ev.GrossUSD,
			UserShare:     split.UserShare,
			PlatformShare: split.PlatformShare,
			BonusPercent:  clampBonus(user.BonusPercent),
			BonusAmount:   split.BonusAmount,
			Partner:       ev.Partner,
			OfferID:       ev.OfferID,
			ExternalTxID:  ev.ExternalTxID,
		}
		if err := applyBalanceDelta(tx, user, split.UserShare, entry); err != nil {
			return err
		}

		offer := &models.CompletedOffer{
			Partner:       ev.Partner,
			ExternalTxID:  ev.ExternalTxID,
			UserID:        user.ID,
			OfferID:       ev.OfferID,
			GrossAmount:   ev.GrossUSD,
			UserShare:     split.UserShare,
			PlatformShare: split.PlatformShare,
			BonusPercent:  clampBonus(user.BonusPercent),
			BonusAmount:   split.BonusAmount,
		}
		if err := tx.Create(offer).Error; err != nil {
			return err
		}
		result.Offer = offer

		history := &models.OfferHistory{
			UserID:       user.ID,
			Partner:      ev.Partner,
			OfferID:      ev.OfferID,
			ExternalTxID: ev.ExternalTxID,
			GrossAmount:  ev.GrossUSD,
			UserShare:    split.UserShare,
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}

		if ev.OfferID != "" {
			if err := tx.Where("user_id = ? AND partner = ? AND offer_id = ?",
				user.ID, ev.Partner, ev.OfferID).
				Delete(&models.PendingOffer{}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Duplicate {
		log.Printf("💰 Credited %s/%s: user=%s gross=%.2f user_share=%.2f",
			ev.Partner, ev.ExternalTxID, ev.UserID, ev.GrossUSD, result.Split.UserShare)
	}
	return &result, nil
}

// Reverse claws back the user-side share of a previously credited tx. The
// platform share was never on a user-visible balance, so only UserShare
// moves. Reversing an already-reversed or never-seen tx is idempotent.
func (s *LedgerService) Reverse(ev *partners.CreditEvent) (*ReversalResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		res, err := s.reverseOnce(ev)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Tombstone create raced another reversal; the record exists.
			return &ReversalResult{AlreadyReversed: true}, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrTransient, lastErr)
}

func (s *LedgerService) reverseOnce(ev *partners.CreditEvent) (*ReversalResult, error) {
	var result ReversalResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var offer models.CompletedOffer
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("partner = ? AND external_tx_id = ?", ev.Partner, ev.ExternalTxID).
			First(&offer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Never credited: write a reversed tombstone, move no money. The
			// stored UserShare is the only amount ever clawed back — the
			// original credit's split is never recomputed under a bonus that
			// may have changed since.
			tombstone := &models.CompletedOffer{
				Partner:      ev.Partner,
				ExternalTxID: ev.ExternalTxID,
				UserID:       ev.UserID,
				OfferID:      ev.OfferID,
				GrossAmount:  ev.GrossUSD,
				Reversed:     true,
			}
			if err := tx.Create(tombstone).Error; err != nil {
				return err
			}
			result.Offer = tombstone
			result.Tombstone = true
			return nil
		}
		if err != nil {
			return err
		}

		if offer.Reversed {
			result.Offer = &offer
			result.AlreadyReversed = true
			return nil
		}

		// Compare-and-set on the reversed flag before any money moves: a
		// second reversal racing past the read above flips zero rows and
		// never reaches the debit.
		flip := tx.Model(&offer).
			Where("reversed = ?", false).
			Updates(map[string]interface{}{
				"reversed":        true,
				"reversal_amount": offer.UserShare,
			})
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			result.Offer = &offer
			result.AlreadyReversed = true
			return nil
		}
		offer.Reversed = true
		offer.ReversalAmount = offer.UserShare

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", offer.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		entry := &models.AuditEntry{
			Type:          models.AuditOfferReversal,
			GrossAmount:   offer.GrossAmount,
			UserShare:     offer.UserShare,
			PlatformShare: offer.PlatformShare,
			BonusPercent:  offer.BonusPercent,
			BonusAmount:   offer.BonusAmount,
			Partner:       offer.Partner,
			OfferID:       offer.OfferID,
			ExternalTxID:  offer.ExternalTxID,
		}
		if err := applyBalanceDelta(tx, &user, -offer.UserShare, entry); err != nil {
			return err
		}

		result.Offer = &offer
		result.Amount = offer.UserShare
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Amount > 0 {
		log.Printf("↩️  Reversed %s/%s: user=%s clawed_back=%.2f",
			ev.Partner, ev.ExternalTxID, ev.UserID, result.Amount)
	}
	return &result, nil
}

// applyBalanceDelta is the single ledger-mutation primitive: every balance
// change in the system goes through it inside an open transaction, so the
// balance update and its audit row always commit together. The caller must
// hold the user row FOR UPDATE — the write is an absolute value from the
// caller's snapshot, and only the row lock serializes concurrent writers.
func applyBalanceDelta(tx *gorm.DB, user *models.User, delta float64, entry *models.AuditEntry) error {
	user.Balance = round2(user.Balance + delta)
	if err := tx.Save(user).Error; err != nil {
		return err
	}
	entry.UserID = user.ID
	entry.Amount = delta
	return tx.Create(entry).Error
}

// loadOrCreateUser reads the user inside the open transaction, creating a
// minimal account row when a partner fires before the profile sync has ever
// seen this user. The OnConflict clause absorbs a concurrent first-contact
// create for the same user. The read takes FOR UPDATE: the balance write in
// applyBalanceDelta is an absolute value computed from this snapshot, so
// concurrent credits for the same user (different tx ids) must queue on the
// row or the later commit would overwrite the earlier increment.
func loadOrCreateUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		ID:              userID,
		ReferralCode:    models.ReferralCodeFor(userID),
		ReferralPending: true,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return nil, err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// isRetryable recognizes commit contention worth another read-compute-write
// cycle: postgres serialization failures and deadlocks.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40p01")
}

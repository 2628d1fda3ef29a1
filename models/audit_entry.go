package models

import "time"

// AuditEntryType classifies ledger mutations
type AuditEntryType string

const (
	AuditOfferCredit   AuditEntryType = "offer_credit"
	AuditOfferReversal AuditEntryType = "offer_reversal"
	AuditReferral      AuditEntryType = "referral"
	AuditReferralBonus AuditEntryType = "referral_bonus"
)

// AuditEntry is the append-only per-user ledger trail. Every balance change
// (offer credit, reversal claw-back, referral payout) writes exactly one row
// in the same transaction as the balance mutation. Rows are never updated.
type AuditEntry struct {
	ID     string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string         `gorm:"index;not null" json:"user_id"`
	Type   AuditEntryType `gorm:"not null" json:"type"`

	Amount float64 `gorm:"type:decimal(15,2);not null" json:"amount"` // signed delta applied to balance

	GrossAmount   float64 `gorm:"type:decimal(15,2);default:0" json:"gross_amount"`
	UserShare     float64 `gorm:"type:decimal(15,2);default:0" json:"user_share"`
	PlatformShare float64 `gorm:"type:decimal(15,2);default:0" json:"platform_share"`
	BonusPercent  float64 `gorm:"type:decimal(4,1);default:0" json:"bonus_percent"`
	BonusAmount   float64 `gorm:"type:decimal(15,2);default:0" json:"bonus_amount"`

	Partner      string `json:"partner,omitempty"`
	OfferID      string `json:"offer_id,omitempty"`
	ExternalTxID string `json:"external_tx_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

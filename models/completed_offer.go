package models

import "time"

// CompletedOffer is the global deduplication record: at most one row per
// (partner, external_tx_id) ever exists, enforced by the composite unique
// index. Created inside the same transaction as the balance increment so the
// insert doubles as the compare-and-set against concurrent retries.
// Immutable after creation except for the single reversed-flag transition.
type CompletedOffer struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Partner      string `gorm:"not null;uniqueIndex:idx_partner_tx" json:"partner"`
	ExternalTxID string `gorm:"not null;uniqueIndex:idx_partner_tx" json:"external_tx_id"`
	UserID       string `gorm:"index;not null" json:"user_id"`
	OfferID      string `json:"offer_id"`

	GrossAmount   float64 `gorm:"type:decimal(15,2);not null" json:"gross_amount"`
	UserShare     float64 `gorm:"type:decimal(15,2);not null" json:"user_share"`
	PlatformShare float64 `gorm:"type:decimal(15,2);not null" json:"platform_share"`
	BonusPercent  float64 `gorm:"type:decimal(4,1);not null" json:"bonus_percent"` // at time of credit
	BonusAmount   float64 `gorm:"type:decimal(15,2);not null" json:"bonus_amount"`

	Reversed       bool    `gorm:"default:false" json:"reversed"`
	ReversalAmount float64 `gorm:"type:decimal(15,2);default:0" json:"reversal_amount"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

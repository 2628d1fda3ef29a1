package models

import "time"

// OfferHistory is the per-user denormalized copy of a completed offer, used
// for UI display and velocity sampling. Not authoritative for dedup — that
// is CompletedOffer's unique key.
type OfferHistory struct {
	ID           string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       string    `gorm:"index;not null" json:"user_id"`
	Partner      string    `gorm:"not null" json:"partner"`
	OfferID      string    `json:"offer_id"`
	ExternalTxID string    `json:"external_tx_id"`
	GrossAmount  float64   `gorm:"type:decimal(15,2);not null" json:"gross_amount"`
	UserShare    float64   `gorm:"type:decimal(15,2);not null" json:"user_share"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// PendingOffer marks an offer a user has started but not completed. Rows are
// cleared on credit and swept after 24h by the retention job.
type PendingOffer struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Partner   string    `gorm:"not null" json:"partner"`
	OfferID   string    `gorm:"not null" json:"offer_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

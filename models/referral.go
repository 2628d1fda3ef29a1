package models

import "time"

// ReferralEdge is the directional (referrer → referred) record, created once
// when the referred user's referral resolves and not mutated afterward except
// for the referrer-earnings figure written during the same resolution.
type ReferralEdge struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ReferrerID string `gorm:"index;not null" json:"referrer_id"`
	ReferredID string `gorm:"uniqueIndex;not null" json:"referred_id"` // one referrer per account, ever

	CodeUsed             string    `gorm:"not null" json:"code_used"`
	JoinedAt             time.Time `json:"joined_at"`
	EarningsFromReferral float64   `gorm:"type:decimal(15,2);default:0" json:"earnings_from_referral"`

	Timestamps
}

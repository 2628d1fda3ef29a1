package models

import "time"

// FraudLog records a velocity-guard block verdict. Written by the postback
// handler (never by the guard itself); the credit may still proceed flagged
// for manual review.
type FraudLog struct {
	ID              string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID          string    `gorm:"index;not null" json:"user_id"`
	Source          string    `gorm:"not null" json:"source"` // partner name
	Reasons         string    `gorm:"type:text" json:"reasons"` // comma-joined rule labels
	AttemptedAmount float64   `gorm:"type:decimal(15,2)" json:"attempted_amount"`
	Sampled         int       `json:"sampled"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

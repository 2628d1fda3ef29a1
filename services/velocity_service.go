package services

import (
	"fmt"
	"strings"
	"time"

	"offerwall-credit-system/models"

	"gorm.io/gorm"
)

// VelocityRule caps completions inside a sliding window.
type VelocityRule struct {
	Label    string
	Window   time.Duration
	MaxCount int
}

// DefaultVelocityRules — ordered smallest window first.
var DefaultVelocityRules = []VelocityRule{
	{Label: "15m", Window: 15 * time.Minute, MaxCount: 8},
	{Label: "1h", Window: time.Hour, MaxCount: 20},
	{Label: "24h", Window: 24 * time.Hour, MaxCount: 120},
}

// velocitySampleCap bounds the history read per check.
const velocitySampleCap = 200

// VelocityVerdict classifies a user's recent completion rate. The guard only
// classifies — whether a block hard-rejects the credit or merely flags it is
// the caller's policy.
type VelocityVerdict struct {
	Blocked bool           `json:"blocked"`
	Reasons []string       `json:"reasons"`
	Counts  map[string]int `json:"counts"`
	Sampled int            `json:"sampled"`
}

// classifyVelocity applies the rule table to a sample of completion
// timestamps. Pure; timestamps may arrive in any order.
func classifyVelocity(rules []VelocityRule, stamps []time.Time, now time.Time) VelocityVerdict {
	verdict := VelocityVerdict{
		Counts:  make(map[string]int, len(rules)),
		Sampled: len(stamps),
	}
	for _, rule := range rules {
		cutoff := now.Add(-rule.Window)
		count := 0
		for _, ts := range stamps {
			if ts.After(cutoff) {
				count++
			}
		}
		verdict.Counts[rule.Label] = count
		if count >= rule.MaxCount {
			verdict.Blocked = true
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("%d completions in %s (max %d)", count, rule.Label, rule.MaxCount))
		}
	}
	return verdict
}

// VelocityService samples a user's own offer history and classifies it.
// Read-only — it never writes to the ledger.
type VelocityService struct {
	DB    *gorm.DB
	Rules []VelocityRule
}

func NewVelocityService(db *gorm.DB) *VelocityService {
	return &VelocityService{DB: db, Rules: DefaultVelocityRules}
}

// Check samples the most recent completions inside the largest configured
// window, newest first, capped to bound read cost.
func (s *VelocityService) Check(userID string) (*VelocityVerdict, error) {
	now := time.Now()

	var largest time.Duration
	for _, rule := range s.Rules {
		if rule.Window > largest {
			largest = rule.Window
		}
	}

	var stamps []time.Time
	err := s.DB.Model(&models.OfferHistory{}).
		Where("user_id = ? AND created_at >= ?", userID, now.Add(-largest)).
		Order("created_at DESC").
		Limit(velocitySampleCap).
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, err
	}

	verdict := classifyVelocity(s.Rules, stamps, now)
	return &verdict, nil
}

// LogBlock appends a fraud-log row for a block verdict. Invoked by the
// caller when its policy decides the verdict is worth recording.
func (s *VelocityService) LogBlock(userID, source string, verdict *VelocityVerdict, attemptedAmount float64) error {
	entry := &models.FraudLog{
		UserID:          userID,
		Source:          source,
		Reasons:         strings.Join(verdict.Reasons, ", "),
		AttemptedAmount: attemptedAmount,
		Sampled:         verdict.Sampled,
	}
	return s.DB.Create(entry).Error
}

package services

import "math"

// Revenue split policy: users earn a 50% baseline of gross, plus a
// streak-driven bonus of up to 10 percentage points. The platform keeps the
// complement.
const (
	BaseUserPercent = 50.0
	MaxBonusPercent = 10.0
)

// Split is the outcome of dividing a gross payout between user and platform.
type Split struct {
	UserShare        float64 `json:"user_share"`
	PlatformShare    float64 `json:"platform_share"`
	BonusAmount      float64 `json:"bonus_amount"`
	EffectiveUserPct float64 `json:"effective_user_pct"`
}

// round2 rounds half-up to the cent. All ledger arithmetic goes through this
// so repeated credits don't accumulate float drift.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// clampBonus keeps the bonus in [0, MaxBonusPercent]; NaN reads as 0.
func clampBonus(bonus float64) float64 {
	if math.IsNaN(bonus) || bonus < 0 {
		return 0
	}
	if bonus > MaxBonusPercent {
		return MaxBonusPercent
	}
	return bonus
}

// SplitGross computes the user/platform division of a gross USD payout under
// the given bonus percent. Pure — the ledger calls it inside its transaction
// with the freshly-read bonus.
func SplitGross(grossUSD, bonusPercent float64) Split {
	bonus := clampBonus(bonusPercent)
	pct := BaseUserPercent + bonus

	userShare := round2(grossUSD * pct / 100)
	baseline := round2(grossUSD * BaseUserPercent / 100)

	return Split{
		UserShare:        userShare,
		PlatformShare:    round2(grossUSD - userShare),
		BonusAmount:      round2(userShare - baseline),
		EffectiveUserPct: pct,
	}
}

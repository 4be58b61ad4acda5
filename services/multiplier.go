package services

// Tier multipliers are keyed by the billing service's exact plan names
// (case-sensitive). Unknown or inactive plans fall back to 1.0.
var tierMultipliers = map[string]float64{
	"Elite Legend Squad": 2.0,
	"All Access Plan":    1.5,
	"5 Tutor Plan":       1.25,
	"Single Tutor Plan":  1.1,
}

// TierMultiplier returns the XP scaling factor for an active subscription tier.
func TierMultiplier(tierName string) float64 {
	if m, ok := tierMultipliers[tierName]; ok {
		return m
	}
	return 1.0
}

// StreakBonus returns the XP bonus for a consecutive-day streak.
// Clamped at 2.0, so a 10-day streak pays the same as a 7-day streak.
func StreakBonus(streakDays int) float64 {
	switch {
	case streakDays >= 7:
		return 2.0
	case streakDays >= 5:
		return 1.5
	case streakDays >= 3:
		return 1.25
	default:
		return 1.0
	}
}

// ResolveMultiplier composes the tier multiplier and the streak bonus.
// Composition is multiplicative: a subscriber on a streak gets both.
func ResolveMultiplier(tierName string, streakDays int) float64 {
	return TierMultiplier(tierName) * StreakBonus(streakDays)
}

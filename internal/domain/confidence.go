package domain

// Tier is the ordinal confidence bucket of a match score.
type Tier string

// Confidence tiers.
const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Tier thresholds; each is the inclusive lower bound of its tier.
const (
	HighConfidenceThreshold   = 80
	MediumConfidenceThreshold = 60
)

// Classify maps a 0-100 match score to its tier. Out-of-range scores are
// not rejected and fall through the same comparisons.
func Classify(score float64) Tier {
	switch {
	case score >= HighConfidenceThreshold:
		return TierHigh
	case score >= MediumConfidenceThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Weight is the nominal confidence percentage used for summary averages.
func (t Tier) Weight() int {
	switch t {
	case TierHigh:
		return 100
	case TierMedium:
		return 60
	default:
		return 30
	}
}

package domain

import "strings"

// QualityTier grades a customer's historical buyback value and reliability.
// The tier gates solicitation eligibility and weights priority scoring.
type QualityTier string

const (
	TierA QualityTier = "A"
	TierB QualityTier = "B"
	TierC QualityTier = "C"
	TierD QualityTier = "D"
)

var tierWeights = map[QualityTier]float64{
	TierA: 1.0,
	TierB: 0.8,
	TierC: 0.4,
	TierD: 0.0,
}

// PriorityWeight returns the scoring weight for the tier.
// Unknown tiers weigh like tier B.
func (q QualityTier) PriorityWeight() float64 {
	if w, ok := tierWeights[q]; ok {
		return w
	}
	return tierWeights[TierB]
}

// ParseQualityTier maps a raw tier string to a QualityTier. Unknown or
// empty input falls back to tier B: the system is advisory, so a bad
// roster row degrades to partial eligibility instead of failing the run.
func ParseQualityTier(s string) QualityTier {
	switch QualityTier(strings.ToUpper(strings.TrimSpace(s))) {
	case TierA:
		return TierA
	case TierB:
		return TierB
	case TierC:
		return TierC
	case TierD:
		return TierD
	}
	return TierB
}

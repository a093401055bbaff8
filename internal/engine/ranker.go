package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// Policy selects the scoring function used to rank customers.
type Policy string

const (
	// PolicyStandard is the balanced five-component score.
	PolicyStandard Policy = "standard"
	// PolicyOptimizer is the response-driven score used when solving for a
	// target application count.
	PolicyOptimizer Policy = "optimizer"
)

// ParsePolicy validates a policy name. Empty means standard.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyStandard:
		return PolicyStandard, nil
	case PolicyOptimizer:
		return PolicyOptimizer, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownPolicy, s)
}

// PriorityRanker scores customers. Pure and deterministic: the same
// customer and now always yield the same score.
type PriorityRanker struct {
	policy Policy
}

// NewPriorityRanker builds a ranker for the given policy.
func NewPriorityRanker(policy Policy) (*PriorityRanker, error) {
	p, err := ParsePolicy(string(policy))
	if err != nil {
		return nil, err
	}
	return &PriorityRanker{policy: p}, nil
}

// Score computes the customer's priority under the configured policy,
// rounded to two decimals.
func (r *PriorityRanker) Score(c domain.CustomerProfile, now time.Time) float64 {
	var s float64
	if r.policy == PolicyOptimizer {
		s = optimizerScore(c, now)
	} else {
		s = standardScore(c, now)
	}
	return math.Round(s*100) / 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// standardScore is a weighted sum of five normalized components, max 100:
// balance 30, tier 25, dormancy 20, engagement 15, lifetime value 10.
func standardScore(c domain.CustomerProfile, now time.Time) float64 {
	score := clamp01((float64(c.EngagementBalance)+50)/100) * 30
	score += c.QualityTier.PriorityWeight() * 25
	score += math.Min(float64(c.DaysSinceLastEmail(now))/60, 1) * 20
	score += (c.OpenRate*0.5 + c.ResponseRate*0.5) * 15
	score += math.Min(float64(c.LifetimeValue())/500000, 1) * 10
	return score
}

// optimizerScore favors customers most likely to convert a buyback
// campaign: past response 40, dormancy sweet spot 25, buyback volume 20,
// send cadence 15 (with an over-mailing penalty).
func optimizerScore(c domain.CustomerProfile, now time.Time) float64 {
	score := c.ResponseRate * 40

	// 30-90 days dormant is the sweet spot for reactivation.
	dormant := c.DaysDormant(now)
	switch {
	case dormant >= 30 && dormant <= 90:
		score += 25
	case dormant >= 15 && dormant < 30:
		score += 15
	case dormant > 90 && dormant <= 180:
		score += 18
	default:
		score += 5
	}

	switch {
	case c.TotalBuybackAmount >= 300000:
		score += 20
	case c.TotalBuybackAmount >= 150000:
		score += 15
	case c.TotalBuybackAmount >= 50000:
		score += 10
	default:
		score += 5
	}

	sinceEmail := c.DaysSinceLastEmail(now)
	switch {
	case sinceEmail >= 30:
		score += 15
	case sinceEmail >= 21:
		score += 10
	case sinceEmail >= 14:
		score += 5
	default:
		score -= 10
	}

	return score
}

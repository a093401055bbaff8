package engine

import (
	"math"
	"testing"

	"github.com/hondana/buyback-mailer/internal/domain"
)

func TestStandardScoreComponents(t *testing.T) {
	r, err := NewPriorityRanker(PolicyStandard)
	if err != nil {
		t.Fatal(err)
	}

	c := baseCustomer()
	c.EngagementBalance = 50 // balance component saturates at 30
	c.QualityTier = domain.TierA
	c.LastEmailDate = daysAgo(60) // dormancy saturates at 20
	c.OpenRate = 1
	c.ResponseRate = 1
	c.TotalBuybackAmount = 500000 // LTV saturates at 10

	if got := r.Score(c, testNow); got != 100 {
		t.Errorf("saturated score = %v, want 100", got)
	}

	c.QualityTier = domain.TierC
	if got := r.Score(c, testNow); got != 85 {
		t.Errorf("tier C score = %v, want 85", got)
	}
}

func TestStandardScoreClampsBalance(t *testing.T) {
	r, _ := NewPriorityRanker(PolicyStandard)

	lo := baseCustomer()
	lo.EngagementBalance = -200
	hi := baseCustomer()
	hi.EngagementBalance = -50

	// Both are at or below the clamp floor, so the balance component is 0
	// for each and the scores match.
	if r.Score(lo, testNow) != r.Score(hi, testNow) {
		t.Errorf("balance clamp broken: %v != %v", r.Score(lo, testNow), r.Score(hi, testNow))
	}
}

func TestStandardScoreRounding(t *testing.T) {
	r, _ := NewPriorityRanker(PolicyStandard)
	got := r.Score(baseCustomer(), testNow)
	if got != math.Round(got*100)/100 {
		t.Errorf("score %v not rounded to 2 decimals", got)
	}
}

func TestUnknownTierScoresLikeB(t *testing.T) {
	r, _ := NewPriorityRanker(PolicyStandard)

	a := baseCustomer()
	a.QualityTier = domain.QualityTier("X")
	b := baseCustomer()
	b.QualityTier = domain.TierB

	if r.Score(a, testNow) != r.Score(b, testNow) {
		t.Errorf("unknown tier should score like B")
	}
}

func TestOptimizerScore(t *testing.T) {
	r, err := NewPriorityRanker(PolicyOptimizer)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		mutate   func(*domain.CustomerProfile)
		expected float64
	}{
		{
			// response 0.5*40=20, dormant 45d=25, amount 200k=15, cadence 35d=15
			"sweet spot", func(c *domain.CustomerProfile) {
				c.ResponseRate = 0.5
				c.LastActivityDate = daysAgo(45)
				c.TotalBuybackAmount = 200000
				c.LastEmailDate = daysAgo(35)
			}, 75,
		},
		{
			// response 0, dormant 5d=5, amount 0=5, cadence 3d=-10
			"over-mailed newcomer", func(c *domain.CustomerProfile) {
				c.ResponseRate = 0
				c.LastActivityDate = daysAgo(5)
				c.TotalBuybackAmount = 0
				c.LastEmailDate = daysAgo(3)
			}, 0,
		},
		{
			// response 1*40, dormant 120d=18, amount 400k=20, cadence 20d=5
			"late but valuable", func(c *domain.CustomerProfile) {
				c.ResponseRate = 1
				c.LastActivityDate = daysAgo(120)
				c.TotalBuybackAmount = 400000
				c.LastEmailDate = daysAgo(20)
			}, 83,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCustomer()
			tt.mutate(&c)
			if got := r.Score(c, testNow); got != tt.expected {
				t.Errorf("score = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if _, err := ParsePolicy("standard"); err != nil {
		t.Error(err)
	}
	if _, err := ParsePolicy(""); err != nil {
		t.Error(err)
	}
	if _, err := ParsePolicy("no-such-policy"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

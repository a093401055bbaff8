package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// ConversionRates maps a member rank to the expected email-to-application
// conversion rate for that rank.
type ConversionRates map[string]float64

// DefaultConversionRates are the observed production rates.
func DefaultConversionRates() ConversionRates {
	return ConversionRates{
		"platinum": 0.025,
		"gold":     0.015,
		"silver":   0.008,
		"bronze":   0.003,
	}
}

// Rate returns the rank's rate, or 0.005 for an unknown rank.
func (r ConversionRates) Rate(rank string) float64 {
	if v, ok := r[strings.ToLower(strings.TrimSpace(rank))]; ok {
		return v
	}
	return 0.005
}

// TargetPick is one selected customer in a target-driven extraction.
type TargetPick struct {
	Customer     domain.CustomerProfile `json:"customer"`
	Score        float64                `json:"score"`
	ExpectedRate float64                `json:"expected_rate"`
}

// TargetSelection is the result of solving for a target application count.
type TargetSelection struct {
	TargetApplications   int            `json:"target_applications"`
	SelectedCount        int            `json:"selected_count"`
	ExpectedApplications float64        `json:"expected_applications"`
	RankBreakdown        map[string]int `json:"rank_breakdown"`
	MeanScore            float64        `json:"mean_score"`
	Picks                []TargetPick   `json:"picks"`
}

// TargetOptimizer extracts the smallest high-score slice of the roster
// whose cumulative expected conversions reach a target application count.
type TargetOptimizer struct {
	ranker *PriorityRanker
	rates  ConversionRates
}

// NewTargetOptimizer builds the optimizer; nil rates use the defaults.
func NewTargetOptimizer(rates ConversionRates) *TargetOptimizer {
	if rates == nil {
		rates = DefaultConversionRates()
	}
	ranker, _ := NewPriorityRanker(PolicyOptimizer)
	return &TargetOptimizer{ranker: ranker, rates: rates}
}

// Select scores the roster with the optimizer policy, sorts descending, and
// takes customers until the summed expected rate reaches the target.
func (t *TargetOptimizer) Select(roster []domain.CustomerProfile, target int, now time.Time) TargetSelection {
	picks := make([]TargetPick, 0, len(roster))
	for _, c := range roster {
		picks = append(picks, TargetPick{
			Customer:     c,
			Score:        t.ranker.Score(c, now),
			ExpectedRate: t.rates.Rate(c.Rank),
		})
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].Score > picks[j].Score })

	sel := TargetSelection{
		TargetApplications: target,
		RankBreakdown:      map[string]int{},
	}
	var cumulative, scoreSum float64
	for _, p := range picks {
		if cumulative >= float64(target) {
			break
		}
		cumulative += p.ExpectedRate
		scoreSum += p.Score
		sel.Picks = append(sel.Picks, p)
		sel.RankBreakdown[strings.ToLower(p.Customer.Rank)]++
	}
	sel.SelectedCount = len(sel.Picks)
	sel.ExpectedApplications = math.Round(cumulative*10) / 10
	if sel.SelectedCount > 0 {
		sel.MeanScore = math.Round(scoreSum/float64(sel.SelectedCount)*10) / 10
	}
	return sel
}

// WriteCSV exports the selection for the operations team.
func (s TargetSelection) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"customer_id", "name", "email", "rank", "score", "expected_rate"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range s.Picks {
		rec := []string{
			p.Customer.ID,
			p.Customer.Name,
			p.Customer.Email,
			p.Customer.Rank,
			fmt.Sprintf("%.2f", p.Score),
			fmt.Sprintf("%.4f", p.ExpectedRate),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

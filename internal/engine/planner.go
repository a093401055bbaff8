package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/pkg/logger"
)

// Plan is one full pipeline run: budget, per-customer decisions in roster
// order, and summary counts.
type Plan struct {
	ID          string                       `json:"id"`
	CreatedAt   time.Time                    `json:"created_at"`
	Policy      Policy                       `json:"policy"`
	Ruleset     Ruleset                      `json:"ruleset"`
	Warehouse   domain.WarehouseState        `json:"warehouse"`
	Budget      domain.Budget                `json:"budget"`
	Decisions   []domain.EmailDecision       `json:"decisions"`
	TypeCounts  map[domain.EmailType]int     `json:"type_counts"`
	SkipCount   int                          `json:"skip_count"`
	AdmitCounts map[domain.Category]int      `json:"admit_counts"`
}

// PlannerConfig carries the per-run knobs.
type PlannerConfig struct {
	Budget  BudgetConfig
	Policy  Policy
	Ruleset Ruleset
	// Workers bounds the classification fan-out. <=1 runs sequentially.
	Workers int
}

// Planner wires the calculator, classifier, ranker, and allocator into the
// single-pass pipeline.
type Planner struct {
	cfg    PlannerConfig
	budget *BudgetCalculator
	ranker *PriorityRanker
}

// NewPlanner validates the config and builds a planner.
func NewPlanner(cfg PlannerConfig) (*Planner, error) {
	bc, err := NewBudgetCalculator(cfg.Budget)
	if err != nil {
		return nil, err
	}
	policy, err := ParsePolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy
	ranker, err := NewPriorityRanker(policy)
	if err != nil {
		return nil, err
	}
	ruleset, err := ParseRuleset(string(cfg.Ruleset))
	if err != nil {
		return nil, err
	}
	cfg.Ruleset = ruleset
	return &Planner{cfg: cfg, budget: bc, ranker: ranker}, nil
}

// Run executes the pipeline for one warehouse snapshot and roster.
// Classification and scoring fan out across workers; the allocator then
// runs single-threaded over the collected candidates, so output order and
// tie-breaking stay deterministic.
func (p *Planner) Run(w domain.WarehouseState, roster []domain.CustomerProfile, now time.Time) (*Plan, error) {
	budget, err := p.budget.Calculate(w)
	if err != nil {
		return nil, err
	}

	logger.Info("plan started",
		"emergency_level", w.EmergencyLevel,
		"customers", len(roster),
		"total_budget", budget.TotalBudget)

	classifier := NewClassifier(w, p.cfg.Ruleset)
	candidates := make([]Candidate, len(roster))

	classify := func(i int) {
		c := roster[i]
		d := classifier.Classify(c, now)
		d.Priority = p.ranker.Score(c, now)
		candidates[i] = Candidate{Customer: c, Decision: d}
	}

	if workers := p.cfg.Workers; workers > 1 && len(roster) > 1 {
		var wg sync.WaitGroup
		sem := make(chan struct{}, workers)
		for i := range roster {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				classify(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range roster {
			classify(i)
		}
	}

	decisions := NewBudgetAllocator(w).Allocate(candidates, budget)

	plan := &Plan{
		ID:          uuid.New().String(),
		CreatedAt:   now,
		Policy:      p.cfg.Policy,
		Ruleset:     p.cfg.Ruleset,
		Warehouse:   w,
		Budget:      budget,
		Decisions:   decisions,
		TypeCounts:  map[domain.EmailType]int{},
		AdmitCounts: map[domain.Category]int{},
	}
	for _, d := range decisions {
		plan.TypeCounts[d.EmailType]++
		if d.EmailType == domain.EmailSkip {
			plan.SkipCount++
		} else {
			plan.AdmitCounts[d.Category]++
		}
	}

	logger.Info("plan complete",
		"plan_id", plan.ID,
		"admitted_debt", plan.AdmitCounts[domain.CategoryDebt],
		"admitted_credit", plan.AdmitCounts[domain.CategoryCredit],
		"skipped", plan.SkipCount)

	return plan, nil
}

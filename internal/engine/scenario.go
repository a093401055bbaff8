package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// Scenario is a canned warehouse situation used for what-if simulation.
type Scenario struct {
	Key         string
	Name        string
	Description string
	Warehouse   domain.WarehouseState
}

// slackForecast builds a forecast with n slack days under a 0.35 threshold.
func slackForecast(today time.Time, slackDays int) []domain.ForecastDay {
	fc := make([]domain.ForecastDay, 7)
	for i := range fc {
		usage := 0.8
		if i < slackDays {
			usage = 0.2
		}
		fc[i] = domain.ForecastDay{
			Date:          today.AddDate(0, 0, i),
			CapacityUsage: usage,
		}
	}
	return fc
}

// Scenarios returns the five standard simulation scenarios, from a nearly
// empty warehouse down to one packed to the point of pausing buybacks.
func Scenarios(today time.Time) []Scenario {
	return []Scenario{
		{
			Key:         "critical",
			Name:        "critical (warehouse nearly empty)",
			Description: "almost no stock; solicit as widely as possible",
			Warehouse: domain.WarehouseState{
				BacklogBoxes: 30, BacklogBooks: 600,
				CapacityUsageToday: 0.12, EmergencyLevel: 5,
				SlackThreshold: 0.35, Forecast: slackForecast(today, 7),
			},
		},
		{
			Key:         "emergency",
			Name:        "emergency (plenty of room)",
			Description: "real spare capacity; push good-quality customers",
			Warehouse: domain.WarehouseState{
				BacklogBoxes: 85, BacklogBooks: 1700,
				CapacityUsageToday: 0.28, EmergencyLevel: 4,
				SlackThreshold: 0.35, Forecast: slackForecast(today, 4),
			},
		},
		{
			Key:         "normal",
			Name:        "normal (balanced operation)",
			Description: "standard load; balanced send mix",
			Warehouse: domain.WarehouseState{
				BacklogBoxes: 150, BacklogBooks: 3000,
				CapacityUsageToday: 0.50, EmergencyLevel: 3,
				SlackThreshold: 0.35, Forecast: slackForecast(today, 2),
			},
		},
		{
			Key:         "relaxed",
			Name:        "relaxed (busy season)",
			Description: "warehouse filling up; mostly relationship emails",
			Warehouse: domain.WarehouseState{
				BacklogBoxes: 220, BacklogBooks: 4400,
				CapacityUsageToday: 0.75, EmergencyLevel: 2,
				SlackThreshold: 0.35, Forecast: slackForecast(today, 0),
			},
		},
		{
			Key:         "packed",
			Name:        "packed (buyback pause level)",
			Description: "nearly full; no solicitation, purchase promos only",
			Warehouse: domain.WarehouseState{
				BacklogBoxes: 280, BacklogBooks: 5600,
				CapacityUsageToday: 0.92, EmergencyLevel: 1,
				SlackThreshold: 0.35, Forecast: slackForecast(today, 0),
			},
		},
	}
}

// ScenarioByKey finds a scenario by its short key.
func ScenarioByKey(key string, today time.Time) (Scenario, error) {
	for _, s := range Scenarios(today) {
		if s.Key == key {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("unknown scenario %q", key)
}

// ScenarioResult is one simulated run.
type ScenarioResult struct {
	Scenario Scenario `json:"scenario"`
	Plan     *Plan    `json:"plan"`
}

// Simulator runs the full pipeline across scenarios for comparison.
type Simulator struct {
	planner *Planner
}

// NewSimulator builds a simulator sharing one planner config.
func NewSimulator(cfg PlannerConfig) (*Simulator, error) {
	p, err := NewPlanner(cfg)
	if err != nil {
		return nil, err
	}
	return &Simulator{planner: p}, nil
}

// RunAll executes every scenario over the roster.
func (s *Simulator) RunAll(roster []domain.CustomerProfile, now time.Time) ([]ScenarioResult, error) {
	var out []ScenarioResult
	for _, sc := range Scenarios(now) {
		plan, err := s.planner.Run(sc.Warehouse, roster, now)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Key, err)
		}
		out = append(out, ScenarioResult{Scenario: sc, Plan: plan})
	}
	return out, nil
}

// Run executes a single scenario over the roster.
func (s *Simulator) Run(key string, roster []domain.CustomerProfile, now time.Time) (*ScenarioResult, error) {
	sc, err := ScenarioByKey(key, now)
	if err != nil {
		return nil, err
	}
	plan, err := s.planner.Run(sc.Warehouse, roster, now)
	if err != nil {
		return nil, err
	}
	return &ScenarioResult{Scenario: sc, Plan: plan}, nil
}

// SummaryTable renders a comparison table of scenario results.
func SummaryTable(results []ScenarioResult) string {
	out := fmt.Sprintf("%-12s %10s %8s %8s %8s\n", "scenario", "budget", "debt", "credit", "skipped")
	for _, r := range results {
		out += fmt.Sprintf("%-12s %10d %8d %8d %8d\n",
			r.Scenario.Key,
			r.Plan.Budget.TotalBudget,
			r.Plan.AdmitCounts[domain.CategoryDebt],
			r.Plan.AdmitCounts[domain.CategoryCredit],
			r.Plan.SkipCount)
	}
	return out
}

// TraceCustomer renders the decision trace for one customer across the
// given scenarios (all of them when keys is empty).
func TraceCustomer(c domain.CustomerProfile, keys []string, now time.Time) string {
	scenarios := Scenarios(now)
	if len(keys) > 0 {
		want := map[string]bool{}
		for _, k := range keys {
			want[k] = true
		}
		filtered := scenarios[:0]
		for _, sc := range scenarios {
			if want[sc.Key] {
				filtered = append(filtered, sc)
			}
		}
		scenarios = filtered
	}
	sort.SliceStable(scenarios, func(i, j int) bool { return scenarios[i].Key < scenarios[j].Key })

	out := fmt.Sprintf("customer %s (%s, tier %s, balance %d)\n",
		c.Name, c.Rank, c.QualityTier, c.EngagementBalance)
	for _, sc := range scenarios {
		cl := NewClassifier(sc.Warehouse, RulesetV2)
		d := cl.Classify(c, now)
		out += fmt.Sprintf("  [%s] %s: %s\n", sc.Key, d.EmailType, d.Reason)
		for _, step := range d.Trace {
			out += fmt.Sprintf("      - %s\n", step)
		}
	}
	return out
}

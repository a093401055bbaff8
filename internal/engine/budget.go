package engine

import (
	"fmt"
	"math"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// BudgetConfig holds the tunables for the daily send budget.
// Zero values are filled with defaults by Normalize.
type BudgetConfig struct {
	BaseDailyEmails      int             `yaml:"base_daily_emails" json:"base_daily_emails"`
	EmergencyMultipliers map[int]float64 `yaml:"emergency_multipliers" json:"emergency_multipliers"`
	MinDailyEmails       int             `yaml:"min_daily_emails" json:"min_daily_emails"`
	MaxDailyEmails       int             `yaml:"max_daily_emails" json:"max_daily_emails"`
}

// DefaultBudgetConfig returns the production defaults.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		BaseDailyEmails: 500,
		EmergencyMultipliers: map[int]float64{
			1: 0.5, 2: 0.8, 3: 1.0, 4: 1.5, 5: 2.5,
		},
		MinDailyEmails: 0,
		MaxDailyEmails: 2000,
	}
}

// Normalize fills unset fields with defaults and validates the rest.
func (c *BudgetConfig) Normalize() error {
	def := DefaultBudgetConfig()
	if c.BaseDailyEmails == 0 {
		c.BaseDailyEmails = def.BaseDailyEmails
	}
	if c.BaseDailyEmails < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidBaseVolume, c.BaseDailyEmails)
	}
	if len(c.EmergencyMultipliers) == 0 {
		c.EmergencyMultipliers = def.EmergencyMultipliers
	}
	if c.MaxDailyEmails == 0 {
		c.MaxDailyEmails = def.MaxDailyEmails
	}
	return nil
}

// BudgetCalculator converts a warehouse snapshot into the day's send budget.
type BudgetCalculator struct {
	cfg BudgetConfig
}

// NewBudgetCalculator builds a calculator with a normalized config copy.
func NewBudgetCalculator(cfg BudgetConfig) (*BudgetCalculator, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &BudgetCalculator{cfg: cfg}, nil
}

// debtRatio picks the solicitation share of the budget by emergency tier.
func debtRatio(level int) float64 {
	switch {
	case level == 5:
		return 0.80
	case level >= 4:
		return 0.60
	case level <= 2:
		return 0.20
	default:
		return 0.40
	}
}

// Calculate computes the total budget and its debt/credit split.
// An emptier warehouse (low usage, high emergency) yields a larger budget
// skewed toward solicitation.
func (b *BudgetCalculator) Calculate(w domain.WarehouseState) (domain.Budget, error) {
	if err := w.Validate(); err != nil {
		return domain.Budget{}, err
	}

	capacityFactor := 1 - w.CapacityUsageToday
	mult, ok := b.cfg.EmergencyMultipliers[w.EmergencyLevel]
	if !ok {
		mult = 1.0
	}

	raw := float64(b.cfg.BaseDailyEmails) * capacityFactor * mult
	total := int(math.Round(raw))
	if total < b.cfg.MinDailyEmails {
		total = b.cfg.MinDailyEmails
	}
	if total > b.cfg.MaxDailyEmails {
		total = b.cfg.MaxDailyEmails
	}

	ratio := debtRatio(w.EmergencyLevel)
	debt := int(math.Floor(float64(total) * ratio))
	credit := total - debt

	return domain.Budget{
		TotalBudget:  total,
		DebtBudget:   debt,
		CreditBudget: credit,
		Derivation: fmt.Sprintf(
			"base %d x capacity %.2f x L%d multiplier %.1f = %d (debt %.0f%% = %d, credit = %d)",
			b.cfg.BaseDailyEmails, capacityFactor, w.EmergencyLevel, mult,
			total, ratio*100, debt, credit),
	}, nil
}

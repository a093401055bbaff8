package engine

import (
	"fmt"
	"sort"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// emergencyDebtBoost multiplies debt-category priorities when the
// warehouse is at level 4 or above.
const emergencyDebtBoost = 1.3

// Candidate pairs a classified decision with its customer for allocation.
type Candidate struct {
	Customer domain.CustomerProfile
	Decision domain.EmailDecision
}

// BudgetAllocator greedily admits candidates into the debt/credit
// sub-budgets in priority order, demoting overflow to SKIP.
type BudgetAllocator struct {
	warehouse domain.WarehouseState
}

// NewBudgetAllocator builds an allocator for one warehouse snapshot.
func NewBudgetAllocator(w domain.WarehouseState) *BudgetAllocator {
	return &BudgetAllocator{warehouse: w}
}

// Allocate returns one decision per candidate, in the original input order,
// with overflow rewritten to SKIP. Overflow entries stay in the output so
// the audit trail shows why each customer was passed over.
func (a *BudgetAllocator) Allocate(candidates []Candidate, budget domain.Budget) []domain.EmailDecision {
	if len(candidates) == 0 {
		return []domain.EmailDecision{}
	}

	type ranked struct {
		idx      int
		decision domain.EmailDecision
		priority float64
	}

	order := make([]ranked, 0, len(candidates))
	for i, c := range candidates {
		p := c.Decision.Priority * c.Customer.QualityTier.PriorityWeight()
		if a.warehouse.IsEmergency() && c.Decision.Category == domain.CategoryDebt {
			p *= emergencyDebtBoost
		}
		order = append(order, ranked{idx: i, decision: c.Decision, priority: p})
	}

	// Stable sort: ties keep input order, which keeps runs deterministic.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].priority > order[j].priority
	})

	out := make([]domain.EmailDecision, len(candidates))
	debtCount, creditCount := 0, 0

	for _, r := range order {
		d := r.decision
		switch {
		case d.EmailType == domain.EmailSkip:
			// Already skipped by the classifier; consumes no budget.
		case d.Category == domain.CategoryDebt:
			if debtCount < budget.DebtBudget {
				debtCount++
			} else {
				d = demote(d, domain.CategoryDebt)
			}
		case d.Category == domain.CategoryCredit:
			if creditCount < budget.CreditBudget {
				creditCount++
			} else {
				d = demote(d, domain.CategoryCredit)
			}
		default: // neutral
			if debtCount+creditCount >= budget.TotalBudget {
				d = demote(d, domain.CategoryNeutral)
			}
		}
		out[r.idx] = d
	}

	return out
}

// demote rewrites an over-budget decision to SKIP, keeping its place in the
// output.
func demote(d domain.EmailDecision, cat domain.Category) domain.EmailDecision {
	d.EmailType = domain.EmailSkip
	d.Category = domain.CategoryNeutral
	d.Reason = fmt.Sprintf("budget exceeded (%s)", cat)
	d.RuleID = domain.RuleBudgetExceeded
	d.BalanceAfter -= d.BalanceImpact // back to the unchanged balance
	d.BalanceImpact = 0
	d.Trace = append(d.Trace, fmt.Sprintf("%s budget exhausted", cat))
	return d
}

package domain

// RuleID identifies which classification rule produced a decision, so
// callers and tests can branch on the rule without matching reason prose.
type RuleID string

const (
	RuleCooldown        RuleID = "cooldown"
	RuleCreditFirst     RuleID = "credit-first"
	RuleUrgentBuyback   RuleID = "urgent-buyback"
	RulePurchasePromo   RuleID = "purchase-promo"
	RuleNormalBuyback   RuleID = "normal-buyback"
	RuleRelationship    RuleID = "relationship-maintenance"
	RuleBudgetExceeded  RuleID = "budget-exceeded"
)

// EmailDecision is the per-customer output of the pipeline. BalanceAfter is
// a projection only; recording an actual send belongs to a downstream
// collaborator.
type EmailDecision struct {
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	EmailType     EmailType `json:"email_type"`
	Category      Category  `json:"category"`
	Priority      float64   `json:"priority"`
	Reason        string    `json:"reason"`
	RuleID        RuleID    `json:"rule_id"`
	BalanceImpact int       `json:"balance_impact"`
	BalanceAfter  int       `json:"balance_after"`
	Trace         []string  `json:"trace,omitempty"`
}

// Budget is the per-run send allowance. DebtBudget+CreditBudget always
// equals TotalBudget.
type Budget struct {
	TotalBudget  int    `json:"total_budget"`
	DebtBudget   int    `json:"debt_budget"`
	CreditBudget int    `json:"credit_budget"`
	Derivation   string `json:"derivation"`
}

package engine

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hondana/buyback-mailer/internal/domain"
)

func testRoster(n int) []domain.CustomerProfile {
	roster := make([]domain.CustomerProfile, n)
	for i := range roster {
		c := baseCustomer()
		c.ID = fmt.Sprintf("C%03d", i)
		c.Name = fmt.Sprintf("Customer %03d", i)
		c.EngagementBalance = (i % 60) - 20
		c.OpenRate = float64(i%10) / 10
		c.ResponseRate = float64(i%5) / 10
		switch i % 4 {
		case 0:
			c.QualityTier = domain.TierA
		case 1:
			c.QualityTier = domain.TierB
		case 2:
			c.QualityTier = domain.TierC
		case 3:
			c.QualityTier = domain.TierD
		}
		if i%3 == 0 {
			c.ActivityType = domain.ActivityPurchaseMain
		}
		roster[i] = c
	}
	return roster
}

func TestPlannerRun(t *testing.T) {
	p, err := NewPlanner(PlannerConfig{})
	require.NoError(t, err)

	roster := testRoster(40)
	plan, err := p.Run(warehouseAtLevel(4, 3), roster, testNow)
	require.NoError(t, err)

	// One decision per roster entry, order preserved.
	require.Len(t, plan.Decisions, len(roster))
	for i, d := range plan.Decisions {
		assert.Equal(t, roster[i].ID, d.CustomerID)
		assert.True(t, d.EmailType.Valid())
		assert.NotEmpty(t, d.RuleID)
	}

	assert.Equal(t, plan.Budget.TotalBudget, plan.Budget.DebtBudget+plan.Budget.CreditBudget)
	assert.LessOrEqual(t, plan.AdmitCounts[domain.CategoryDebt], plan.Budget.DebtBudget)
	assert.LessOrEqual(t, plan.AdmitCounts[domain.CategoryCredit], plan.Budget.CreditBudget)
	assert.NotEmpty(t, plan.ID)
}

func TestPlannerDeterministicAcrossWorkerCounts(t *testing.T) {
	roster := testRoster(60)

	sequential, err := NewPlanner(PlannerConfig{Workers: 1})
	require.NoError(t, err)
	parallel, err := NewPlanner(PlannerConfig{Workers: 8})
	require.NoError(t, err)

	a, err := sequential.Run(warehouseAtLevel(3, 2), roster, testNow)
	require.NoError(t, err)
	b, err := parallel.Run(warehouseAtLevel(3, 2), roster, testNow)
	require.NoError(t, err)

	if !reflect.DeepEqual(a.Decisions, b.Decisions) {
		t.Error("parallel classification changed the output")
	}
}

func TestPlannerRejectsInvalidWarehouse(t *testing.T) {
	p, err := NewPlanner(PlannerConfig{})
	require.NoError(t, err)

	_, err = p.Run(domain.WarehouseState{CapacityUsageToday: 2, EmergencyLevel: 3}, testRoster(1), testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)
}

func TestPlannerRejectsUnknownPolicy(t *testing.T) {
	_, err := NewPlanner(PlannerConfig{Policy: "made-up"})
	assert.ErrorIs(t, err, domain.ErrUnknownPolicy)
}

func TestPlannerEmptyRoster(t *testing.T) {
	p, err := NewPlanner(PlannerConfig{})
	require.NoError(t, err)

	plan, err := p.Run(warehouseAtLevel(3, 2), nil, testNow)
	require.NoError(t, err)
	assert.Empty(t, plan.Decisions)
	assert.Zero(t, plan.SkipCount)
}

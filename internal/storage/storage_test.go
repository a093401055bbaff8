package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/engine"
)

func archivedPlan(id string, createdAt time.Time) *engine.Plan {
	return &engine.Plan{
		ID:        id,
		CreatedAt: createdAt,
		Policy:    engine.PolicyStandard,
		Ruleset:   engine.RulesetV2,
		Budget:    domain.Budget{TotalBudget: 500, DebtBudget: 200, CreditBudget: 300},
		Decisions: []domain.EmailDecision{
			{CustomerID: "C-001", EmailType: domain.EmailNewsStory, Category: domain.CategoryCredit},
		},
	}
}

func TestPlanKey(t *testing.T) {
	p := archivedPlan("abc", time.Date(2026, 1, 8, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, "plans/2026/01/08/abc.json", PlanKey(p))
}

func TestLocalArchiveRoundTrip(t *testing.T) {
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	createdAt := time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC)
	p := archivedPlan("plan-1", createdAt)

	key, err := a.SavePlan(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "plans/2026/01/08/plan-1.json", key)

	got, err := a.LoadPlan(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 200, got.Budget.DebtBudget)
	require.Len(t, got.Decisions, 1)
	assert.Equal(t, domain.EmailNewsStory, got.Decisions[0].EmailType)
}

func TestLocalArchiveListDay(t *testing.T) {
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	day := time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC)
	_, err = a.SavePlan(ctx, archivedPlan("plan-b", day))
	require.NoError(t, err)
	_, err = a.SavePlan(ctx, archivedPlan("plan-a", day.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = a.SavePlan(ctx, archivedPlan("plan-c", day.AddDate(0, 0, 1)))
	require.NoError(t, err)

	keys, err := a.ListDay(ctx, 2026, 1, 8)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"plans/2026/01/08/plan-a.json",
		"plans/2026/01/08/plan-b.json",
	}, keys)

	empty, err := a.ListDay(ctx, 2025, 6, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLocalArchiveLoadMissing(t *testing.T) {
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	_, err = a.LoadPlan(context.Background(), "plans/2026/01/08/nope.json")
	require.Error(t, err)
}

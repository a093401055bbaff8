package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/engine"
)

func samplePlan() *engine.Plan {
	return &engine.Plan{
		ID:        "11111111-2222-3333-4444-555555555555",
		CreatedAt: time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC),
		Policy:    engine.PolicyStandard,
		Ruleset:   engine.RulesetV2,
		Warehouse: domain.WarehouseState{
			BacklogBoxes:       30,
			BacklogBooks:       600,
			CapacityUsageToday: 0.12,
			EmergencyLevel:     5,
		},
		Budget: domain.Budget{TotalBudget: 1100, DebtBudget: 880, CreditBudget: 220},
		Decisions: []domain.EmailDecision{
			{CustomerID: "C-001", EmailType: domain.EmailUrgentBuyback, Category: domain.CategoryDebt},
		},
		AdmitCounts: map[domain.Category]int{domain.CategoryDebt: 1},
		TypeCounts:  map[domain.EmailType]int{domain.EmailUrgentBuyback: 1},
	}
}

func TestPlanRepoSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := samplePlan()
	mock.ExpectExec("INSERT INTO buyback_plans").
		WithArgs(p.ID, p.CreatedAt, "standard", 5, 1100, 1, 0, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPlanRepo(db).Save(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepoGetRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := samplePlan()
	payload, err := json.Marshal(p)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload FROM buyback_plans").
		WithArgs(p.ID).
		WillReturnRows(mock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := NewPlanRepo(db).Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 880, got.Budget.DebtBudget)
	require.Len(t, got.Decisions, 1)
	assert.Equal(t, domain.EmailUrgentBuyback, got.Decisions[0].EmailType)
}

func TestPlanRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT payload FROM buyback_plans").
		WithArgs("missing").
		WillReturnRows(mock.NewRows([]string{"payload"}))

	_, err = NewPlanRepo(db).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestPlanRepoList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC)
	rows := mock.NewRows([]string{
		"id", "created_at", "policy", "emergency_level", "total_budget",
		"admitted_debt", "admitted_credit", "skipped",
	}).AddRow("p1", created, "standard", 5, 1100, 800, 200, 40)

	mock.ExpectQuery("FROM buyback_plans").
		WithArgs(50, 0).
		WillReturnRows(rows)

	summaries, err := NewPlanRepo(db).List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "p1", summaries[0].ID)
	assert.Equal(t, 1100, summaries[0].TotalBudget)
}

func TestPlanRepoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM buyback_plans").
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPlanRepo(db).Delete(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

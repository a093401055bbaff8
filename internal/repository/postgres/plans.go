package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/engine"
)

// PlanRepo persists finished plans. The header columns make plans
// queryable; the full plan rides along as JSONB.
type PlanRepo struct{ db *sql.DB }

// NewPlanRepo creates a Postgres-backed plan repository.
func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

// PlanSummary is one row of the plan listing.
type PlanSummary struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Policy         string    `json:"policy"`
	EmergencyLevel int       `json:"emergency_level"`
	TotalBudget    int       `json:"total_budget"`
	AdmittedDebt   int       `json:"admitted_debt"`
	AdmittedCredit int       `json:"admitted_credit"`
	Skipped        int       `json:"skipped"`
}

func (r *PlanRepo) Save(ctx context.Context, p *engine.Plan) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO buyback_plans
			(id, created_at, policy, emergency_level, total_budget,
			 admitted_debt, admitted_credit, skipped, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, p.ID, p.CreatedAt, string(p.Policy), p.Warehouse.EmergencyLevel, p.Budget.TotalBudget,
		p.AdmitCounts[domain.CategoryDebt], p.AdmitCounts[domain.CategoryCredit],
		p.SkipCount, payload)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) Get(ctx context.Context, id string) (*engine.Plan, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT payload FROM buyback_plans WHERE id = $1
	`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var p engine.Plan
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return &p, nil
}

func (r *PlanRepo) List(ctx context.Context, limit, offset int) ([]PlanSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, policy, emergency_level, total_budget,
		       admitted_debt, admitted_credit, skipped
		FROM buyback_plans
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []PlanSummary
	for rows.Next() {
		var s PlanSummary
		if err := rows.Scan(
			&s.ID, &s.CreatedAt, &s.Policy, &s.EmergencyLevel, &s.TotalBudget,
			&s.AdmittedDebt, &s.AdmittedCredit, &s.Skipped,
		); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM buyback_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

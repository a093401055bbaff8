// Package postgres persists the customer roster and finished plans.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// CustomerRepo implements roster storage against PostgreSQL.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerColumns = `
	customer_id, name, email, COALESCE(rank,'bronze'),
	total_buyback_count, total_buyback_amount,
	total_purchase_count, total_purchase_amount,
	COALESCE(activity_type,''), COALESCE(preferred_genre,''),
	last_activity_date, engagement_balance, COALESCE(quality_tier,'B'),
	last_solicitation_date, last_gift_date, rejection_rate,
	last_email_date, COALESCE(last_email_type,''), open_rate, response_rate`

func (r *CustomerRepo) Get(ctx context.Context, id string) (*domain.CustomerProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+customerColumns+`
		FROM buyback_customers
		WHERE customer_id = $1
	`, id)

	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// ListActive returns the roster rows eligible for planning, stable by ID.
func (r *CustomerRepo) ListActive(ctx context.Context) ([]domain.CustomerProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM buyback_customers
		WHERE unsubscribed = false
		ORDER BY customer_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []domain.CustomerProfile
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CustomerRepo) Upsert(ctx context.Context, c *domain.CustomerProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO buyback_customers
			(customer_id, name, email, rank,
			 total_buyback_count, total_buyback_amount,
			 total_purchase_count, total_purchase_amount,
			 activity_type, preferred_genre,
			 last_activity_date, engagement_balance, quality_tier,
			 last_solicitation_date, last_gift_date, rejection_rate,
			 last_email_date, last_email_type, open_rate, response_rate,
			 updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,NOW())
		ON CONFLICT (customer_id) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email, rank = EXCLUDED.rank,
			total_buyback_count = EXCLUDED.total_buyback_count,
			total_buyback_amount = EXCLUDED.total_buyback_amount,
			total_purchase_count = EXCLUDED.total_purchase_count,
			total_purchase_amount = EXCLUDED.total_purchase_amount,
			activity_type = EXCLUDED.activity_type,
			preferred_genre = EXCLUDED.preferred_genre,
			last_activity_date = EXCLUDED.last_activity_date,
			engagement_balance = EXCLUDED.engagement_balance,
			quality_tier = EXCLUDED.quality_tier,
			last_solicitation_date = EXCLUDED.last_solicitation_date,
			last_gift_date = EXCLUDED.last_gift_date,
			rejection_rate = EXCLUDED.rejection_rate,
			last_email_date = EXCLUDED.last_email_date,
			last_email_type = EXCLUDED.last_email_type,
			open_rate = EXCLUDED.open_rate,
			response_rate = EXCLUDED.response_rate,
			updated_at = NOW()
	`, c.ID, c.Name, c.Email, c.Rank,
		c.TotalBuybackCount, c.TotalBuybackAmount,
		c.TotalPurchaseCount, c.TotalPurchaseAmount,
		c.ActivityType, c.PreferredGenre,
		nullTime(c.LastActivityDate), c.EngagementBalance, string(c.QualityTier),
		nullTime(c.LastSolicitationDate), nullTime(c.LastGiftDate), c.RejectionRate,
		nullTime(c.LastEmailDate), c.LastEmailType, c.OpenRate, c.ResponseRate)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

// RecordSend mirrors a ledger send into the durable roster row.
func (r *CustomerRepo) RecordSend(ctx context.Context, id string, emailType domain.EmailType, sentAt time.Time) error {
	var solicitation, gift interface{}
	switch emailType.Category() {
	case domain.CategoryDebt:
		solicitation = sentAt
	case domain.CategoryCredit:
		gift = sentAt
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE buyback_customers SET
			last_email_date = $2,
			last_email_type = $3,
			last_solicitation_date = COALESCE($4, last_solicitation_date),
			last_gift_date = COALESCE($5, last_gift_date),
			engagement_balance = engagement_balance + $6,
			updated_at = NOW()
		WHERE customer_id = $1
	`, id, sentAt, string(emailType), solicitation, gift, emailType.BalanceImpact())
	if err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*domain.CustomerProfile, error) {
	c := &domain.CustomerProfile{}
	var tier string
	var lastActivity, lastSolicitation, lastGift, lastEmail sql.NullTime

	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Rank,
		&c.TotalBuybackCount, &c.TotalBuybackAmount,
		&c.TotalPurchaseCount, &c.TotalPurchaseAmount,
		&c.ActivityType, &c.PreferredGenre,
		&lastActivity, &c.EngagementBalance, &tier,
		&lastSolicitation, &lastGift, &c.RejectionRate,
		&lastEmail, &c.LastEmailType, &c.OpenRate, &c.ResponseRate,
	)
	if err != nil {
		return nil, err
	}

	c.QualityTier = domain.ParseQualityTier(tier)
	if lastActivity.Valid {
		c.LastActivityDate = lastActivity.Time
	}
	if lastSolicitation.Valid {
		c.LastSolicitationDate = lastSolicitation.Time
	}
	if lastGift.Valid {
		c.LastGiftDate = lastGift.Time
	}
	if lastEmail.Valid {
		c.LastEmailDate = lastEmail.Time
	}
	return c, nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hondana/buyback-mailer/internal/domain"
)

var customerCols = []string{
	"customer_id", "name", "email", "rank",
	"total_buyback_count", "total_buyback_amount",
	"total_purchase_count", "total_purchase_amount",
	"activity_type", "preferred_genre",
	"last_activity_date", "engagement_balance", "quality_tier",
	"last_solicitation_date", "last_gift_date", "rejection_rate",
	"last_email_date", "last_email_type", "open_rate", "response_rate",
}

func customerRow(mock sqlmock.Sqlmock, id string) *sqlmock.Rows {
	sent := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	return mock.NewRows(customerCols).AddRow(
		id, "Tanaka", "tanaka@example.com", "gold",
		4, 120000, 1, 8000,
		"buyback-main", "mystery",
		sent, -5, "A",
		nil, nil, 0.1,
		sent, "NEWS_STORY", 0.45, 0.12,
	)
}

func TestCustomerRepoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM buyback_customers").
		WithArgs("C-001").
		WillReturnRows(customerRow(mock, "C-001"))

	c, err := NewCustomerRepo(db).Get(context.Background(), "C-001")
	require.NoError(t, err)
	assert.Equal(t, "Tanaka", c.Name)
	assert.Equal(t, domain.TierA, c.QualityTier)
	assert.Equal(t, -5, c.EngagementBalance)
	assert.True(t, c.LastSolicitationDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM buyback_customers").
		WithArgs("C-404").
		WillReturnRows(mock.NewRows(customerCols))

	_, err = NewCustomerRepo(db).Get(context.Background(), "C-404")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestCustomerRepoListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sent := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	rows := mock.NewRows(customerCols).
		AddRow("C-001", "Tanaka", "t@example.com", "gold", 4, 120000, 1, 8000,
			"buyback-main", "mystery", sent, -5, "A", nil, nil, 0.1, sent, "", 0.45, 0.12).
		AddRow("C-002", "Sato", "s@example.com", "silver", 0, 0, 3, 15000,
			"purchase-main", "history", sent, 10, "C", nil, sent, 0.0, sent, "", 0.3, 0.05)

	mock.ExpectQuery("FROM buyback_customers").WillReturnRows(rows)

	customers, err := NewCustomerRepo(db).ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "C-002", customers[1].ID)
	assert.Equal(t, domain.TierC, customers[1].QualityTier)
}

func TestCustomerRepoRecordSend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sentAt := time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE buyback_customers").
		WithArgs("C-001", sentAt, "NORMAL_BUYBACK", sentAt, nil, -8).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewCustomerRepo(db).RecordSend(context.Background(), "C-001", domain.EmailNormalBuyback, sentAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepoRecordSendUnknownCustomer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE buyback_customers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewCustomerRepo(db).RecordSend(context.Background(), "C-404", domain.EmailThankYou, time.Now())
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

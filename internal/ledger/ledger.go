// Package ledger keeps the per-customer relationship state in Redis:
// when each customer was last emailed, solicited, and gifted, plus the
// running engagement balance. A plan run reads the ledger before
// classifying and writes it back when emails are actually sent.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/pkg/distlock"
)

const (
	keyPrefix   = "buyback:ledger:"
	sendsPrefix = "buyback:sends:"
	sendsKept   = 100

	// runLockTTL bounds a planning run. Only one run mutates the
	// ledger at a time.
	runLockTTL = 10 * time.Minute
)

// SendRecord is one sent email as stored in the per-customer history list.
type SendRecord struct {
	CustomerID string           `json:"customer_id"`
	EmailType  domain.EmailType `json:"email_type"`
	SentAt     time.Time        `json:"sent_at"`
	Impact     int              `json:"impact"`
}

// Ledger is the Redis-backed relationship store.
type Ledger struct {
	client *redis.Client
}

func New(client *redis.Client) *Ledger {
	return &Ledger{client: client}
}

// RunLock returns the distributed lock guarding plan execution.
func (l *Ledger) RunLock() *distlock.RedisLock {
	return distlock.NewRedisLock(l.client, "buyback:plan-run", runLockTTL)
}

// RecordSend updates a customer's ledger after an email goes out: the
// last-email markers move, the category marker moves, and the balance
// absorbs the email's impact.
func (l *Ledger) RecordSend(ctx context.Context, customerID string, emailType domain.EmailType, sentAt time.Time) error {
	if !emailType.Valid() || emailType == domain.EmailSkip {
		return fmt.Errorf("cannot record send of type %q", emailType)
	}

	key := keyPrefix + customerID
	fields := map[string]interface{}{
		"last_email_date": sentAt.Format(time.RFC3339),
		"last_email_type": string(emailType),
	}
	switch emailType.Category() {
	case domain.CategoryDebt:
		fields["last_solicitation_date"] = sentAt.Format(time.RFC3339)
	case domain.CategoryCredit:
		fields["last_gift_date"] = sentAt.Format(time.RFC3339)
	}

	pipe := l.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.HIncrBy(ctx, key, "balance", int64(emailType.BalanceImpact()))

	rec, err := json.Marshal(SendRecord{
		CustomerID: customerID,
		EmailType:  emailType,
		SentAt:     sentAt,
		Impact:     emailType.BalanceImpact(),
	})
	if err != nil {
		return fmt.Errorf("marshal send record: %w", err)
	}
	pipe.LPush(ctx, sendsPrefix+customerID, rec)
	pipe.LTrim(ctx, sendsPrefix+customerID, 0, sendsKept-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record send for %s: %w", customerID, err)
	}
	return nil
}

// Hydrate overlays ledger state onto roster rows in place. Customers
// with no ledger entry keep their roster values.
func (l *Ledger) Hydrate(ctx context.Context, customers []domain.CustomerProfile) error {
	for i := range customers {
		state, err := l.client.HGetAll(ctx, keyPrefix+customers[i].ID).Result()
		if err != nil {
			return fmt.Errorf("hydrate %s: %w", customers[i].ID, err)
		}
		if len(state) == 0 {
			continue
		}
		applyState(&customers[i], state)
	}
	return nil
}

func applyState(c *domain.CustomerProfile, state map[string]string) {
	if v, ok := state["last_email_date"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			c.LastEmailDate = t
		}
	}
	if v, ok := state["last_email_type"]; ok {
		c.LastEmailType = v
	}
	if v, ok := state["last_solicitation_date"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			c.LastSolicitationDate = t
		}
	}
	if v, ok := state["last_gift_date"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			c.LastGiftDate = t
		}
	}
	if v, ok := state["balance"]; ok {
		var balance int
		if _, err := fmt.Sscanf(v, "%d", &balance); err == nil {
			c.EngagementBalance = balance
		}
	}
}

// History returns a customer's recent sends, newest first.
func (l *Ledger) History(ctx context.Context, customerID string) ([]SendRecord, error) {
	raw, err := l.client.LRange(ctx, sendsPrefix+customerID, 0, sendsKept-1).Result()
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", customerID, err)
	}

	records := make([]SendRecord, 0, len(raw))
	for _, r := range raw {
		var rec SendRecord
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			return nil, fmt.Errorf("decode send record for %s: %w", customerID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Balance reads the engagement balance for one customer. Missing
// entries read as zero.
func (l *Ledger) Balance(ctx context.Context, customerID string) (int, error) {
	v, err := l.client.HGet(ctx, keyPrefix+customerID, "balance").Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance for %s: %w", customerID, err)
	}
	var balance int
	if _, err := fmt.Sscanf(v, "%d", &balance); err != nil {
		return 0, fmt.Errorf("parse balance for %s: %w", customerID, err)
	}
	return balance, nil
}

package domain

import "time"

// Activity types observed in the transaction history.
const (
	ActivityBuybackMain  = "buyback-main"
	ActivityPurchaseMain = "purchase-main"
	ActivityBothActive   = "both-active"
)

// CustomerProfile is one roster row. The engine never mutates it; decisions
// reference it and carry a projected balance only.
type CustomerProfile struct {
	ID    string `json:"customer_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Rank  string `json:"rank"` // platinum/gold/silver/bronze

	TotalBuybackCount   int    `json:"total_buyback_count"`
	TotalBuybackAmount  int    `json:"total_buyback_amount"`
	TotalPurchaseCount  int    `json:"total_purchase_count"`
	TotalPurchaseAmount int    `json:"total_purchase_amount"`
	ActivityType        string `json:"activity_type"`
	PreferredGenre      string `json:"preferred_genre"`

	LastActivityDate     time.Time   `json:"last_activity_date"`
	EngagementBalance    int         `json:"engagement_balance"`
	QualityTier          QualityTier `json:"quality_tier"`
	LastSolicitationDate time.Time   `json:"last_solicitation_date"`
	LastGiftDate         time.Time   `json:"last_gift_date"`
	RejectionRate        float64     `json:"rejection_rate"`

	LastEmailDate time.Time `json:"last_email_date"`
	LastEmailType string    `json:"last_email_type"`
	OpenRate      float64   `json:"open_rate"`
	ResponseRate  float64   `json:"response_rate"`
}

// daysBetween clamps at 0 so a future-dated record cannot bypass cooldowns.
func daysBetween(from time.Time, now time.Time) int {
	if from.IsZero() {
		return 9999
	}
	d := int(now.Sub(from).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// DaysSinceLastEmail returns whole days since the last email, ≥0.
func (c CustomerProfile) DaysSinceLastEmail(now time.Time) int {
	return daysBetween(c.LastEmailDate, now)
}

// DaysSinceLastGift returns whole days since the last credit email, ≥0.
func (c CustomerProfile) DaysSinceLastGift(now time.Time) int {
	return daysBetween(c.LastGiftDate, now)
}

// DaysSinceLastSolicitation returns whole days since the last debt email, ≥0.
func (c CustomerProfile) DaysSinceLastSolicitation(now time.Time) int {
	return daysBetween(c.LastSolicitationDate, now)
}

// DaysDormant returns whole days since the last transaction, ≥0.
func (c CustomerProfile) DaysDormant(now time.Time) int {
	return daysBetween(c.LastActivityDate, now)
}

// LifetimeValue is the combined buyback and purchase volume in yen.
func (c CustomerProfile) LifetimeValue() int {
	return c.TotalBuybackAmount + c.TotalPurchaseAmount
}

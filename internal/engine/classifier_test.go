package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hondana/buyback-mailer/internal/domain"
)

var testNow = time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC)

// daysAgo is a date helper for building profiles relative to testNow.
func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

func baseCustomer() domain.CustomerProfile {
	return domain.CustomerProfile{
		ID:                   "C001",
		Name:                 "Sato Misaki",
		Email:                "sato@example.com",
		Rank:                 "gold",
		ActivityType:         domain.ActivityBuybackMain,
		EngagementBalance:    10,
		QualityTier:          domain.TierA,
		LastEmailDate:        daysAgo(20),
		LastGiftDate:         daysAgo(30),
		LastSolicitationDate: daysAgo(40),
		LastActivityDate:     daysAgo(45),
		OpenRate:             0.5,
		ResponseRate:         0.3,
	}
}

func warehouseAtLevel(level int, slackDays int) domain.WarehouseState {
	return domain.WarehouseState{
		BacklogBoxes:       100,
		CapacityUsageToday: 0.4,
		EmergencyLevel:     level,
		SlackThreshold:     0.35,
		Forecast:           slackForecast(testNow, slackDays),
	}
}

func TestCooldownAlwaysSkips(t *testing.T) {
	cl := NewClassifier(warehouseAtLevel(5, 7), RulesetV2)

	c := baseCustomer()
	c.LastEmailDate = daysAgo(3)
	c.EngagementBalance = -40 // would otherwise hit credit-first
	d := cl.Classify(c, testNow)

	assert.Equal(t, domain.EmailSkip, d.EmailType)
	assert.Equal(t, domain.RuleCooldown, d.RuleID)
}

func TestFutureLastEmailClampedToZeroDays(t *testing.T) {
	cl := NewClassifier(warehouseAtLevel(3, 2), RulesetV2)

	c := baseCustomer()
	c.LastEmailDate = testNow.AddDate(0, 0, 2) // clock skew in the roster
	d := cl.Classify(c, testNow)

	assert.Equal(t, domain.EmailSkip, d.EmailType)
	assert.Equal(t, domain.RuleCooldown, d.RuleID)
}

func TestCreditFirstOverridesEligibility(t *testing.T) {
	// Balance -25 with a non-critical warehouse must yield GIFT_POINTS even
	// though the customer would otherwise qualify for solicitation.
	cl := NewClassifier(warehouseAtLevel(4, 4), RulesetV2)

	c := baseCustomer()
	c.EngagementBalance = -25
	d := cl.Classify(c, testNow)

	assert.Equal(t, domain.EmailGiftPoints, d.EmailType)
	assert.Equal(t, domain.RuleCreditFirst, d.RuleID)
	assert.Equal(t, domain.CategoryCredit, d.Category)
}

func TestCriticalSkipsCreditFirst(t *testing.T) {
	cl := NewClassifier(warehouseAtLevel(5, 7), RulesetV2)

	c := baseCustomer()
	c.EngagementBalance = -10 // negative, but critical overrides credit-first
	d := cl.Classify(c, testNow)

	assert.Equal(t, domain.EmailUrgentBuyback, d.EmailType)
	assert.Equal(t, domain.RuleUrgentBuyback, d.RuleID)
}

func TestCreditSelection(t *testing.T) {
	cl := NewClassifier(warehouseAtLevel(3, 2), RulesetV2)

	tests := []struct {
		name   string
		mutate func(*domain.CustomerProfile)
		want   domain.EmailType
	}{
		{"deep negative balance gets points", func(c *domain.CustomerProfile) {
			c.EngagementBalance = -18
		}, domain.EmailGiftPoints},
		{"long gift gap gets thank you", func(c *domain.CustomerProfile) {
			c.EngagementBalance = -5
			c.LastGiftDate = daysAgo(120)
		}, domain.EmailThankYou},
		{"purchase-main gets info gift", func(c *domain.CustomerProfile) {
			c.EngagementBalance = -5
			c.ActivityType = domain.ActivityPurchaseMain
		}, domain.EmailGiftInfo},
		{"default is news story", func(c *domain.CustomerProfile) {
			c.EngagementBalance = -5
		}, domain.EmailNewsStory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCustomer()
			tt.mutate(&c)
			d := cl.Classify(c, testNow)
			assert.Equal(t, tt.want, d.EmailType)
			assert.Equal(t, domain.RuleCreditFirst, d.RuleID)
		})
	}
}

func TestTierDNeverDebtUnlessCritical(t *testing.T) {
	for level := 1; level <= 4; level++ {
		cl := NewClassifier(warehouseAtLevel(level, 5), RulesetV2)
		c := baseCustomer()
		c.QualityTier = domain.TierD
		d := cl.Classify(c, testNow)
		assert.NotEqual(t, domain.CategoryDebt, d.Category, "level %d", level)
	}

	cl := NewClassifier(warehouseAtLevel(5, 5), RulesetV2)
	c := baseCustomer()
	c.QualityTier = domain.TierD
	d := cl.Classify(c, testNow)
	assert.Equal(t, domain.EmailUrgentBuyback, d.EmailType)
}

func TestTierCRequiresEmergency(t *testing.T) {
	c := baseCustomer()
	c.QualityTier = domain.TierC

	d := NewClassifier(warehouseAtLevel(3, 5), RulesetV2).Classify(c, testNow)
	assert.NotEqual(t, domain.CategoryDebt, d.Category)

	d = NewClassifier(warehouseAtLevel(4, 5), RulesetV2).Classify(c, testNow)
	assert.Equal(t, domain.EmailUrgentBuyback, d.EmailType)
}

func TestSolicitationSpacing(t *testing.T) {
	c := baseCustomer()
	c.LastSolicitationDate = daysAgo(5)

	// Under 14 days since the last ask: no normal buyback at level 3.
	d := NewClassifier(warehouseAtLevel(3, 5), RulesetV2).Classify(c, testNow)
	assert.NotEqual(t, domain.CategoryDebt, d.Category)

	// Critical overrides the spacing.
	d = NewClassifier(warehouseAtLevel(5, 5), RulesetV2).Classify(c, testNow)
	assert.Equal(t, domain.EmailUrgentBuyback, d.EmailType)
}

func TestPurchaseMainGetsPromo(t *testing.T) {
	cl := NewClassifier(warehouseAtLevel(3, 2), RulesetV2)

	c := baseCustomer()
	c.ActivityType = domain.ActivityPurchaseMain
	d := cl.Classify(c, testNow)

	assert.Equal(t, domain.EmailPurchasePromo, d.EmailType)
	assert.Equal(t, domain.CategoryNeutral, d.Category)
}

func TestSlackPeriodNormalBuyback(t *testing.T) {
	cl := NewClassifier(warehouseAtLevel(3, 2), RulesetV2)

	d := cl.Classify(baseCustomer(), testNow)
	assert.Equal(t, domain.EmailNormalBuyback, d.EmailType)
	assert.Equal(t, domain.RuleNormalBuyback, d.RuleID)
}

func TestNoSlackFallsToRelationship(t *testing.T) {
	cl := NewClassifier(warehouseAtLevel(3, 0), RulesetV2)

	d := cl.Classify(baseCustomer(), testNow)
	assert.Equal(t, domain.EmailNewsStory, d.EmailType)
	assert.Equal(t, domain.RuleRelationship, d.RuleID)
}

func TestBalanceProjection(t *testing.T) {
	cl := NewClassifier(warehouseAtLevel(3, 2), RulesetV2)

	c := baseCustomer()
	c.EngagementBalance = 10
	d := cl.Classify(c, testNow)

	assert.Equal(t, domain.EmailNormalBuyback, d.EmailType)
	assert.Equal(t, -8, d.BalanceImpact)
	assert.Equal(t, 2, d.BalanceAfter)
}

func TestV1RulesetShortIntervalOverride(t *testing.T) {
	c := baseCustomer()
	c.LastEmailDate = daysAgo(10)

	// 7-13 days: only an emergency warehouse sends.
	d := NewClassifier(warehouseAtLevel(3, 2), RulesetV1).Classify(c, testNow)
	assert.Equal(t, domain.EmailSkip, d.EmailType)

	d = NewClassifier(warehouseAtLevel(4, 2), RulesetV1).Classify(c, testNow)
	assert.Equal(t, domain.EmailUrgentBuyback, d.EmailType)
}

func TestV1IgnoresLedger(t *testing.T) {
	c := baseCustomer()
	c.EngagementBalance = -40

	d := NewClassifier(warehouseAtLevel(3, 2), RulesetV1).Classify(c, testNow)
	assert.Equal(t, domain.EmailNormalBuyback, d.EmailType)
}

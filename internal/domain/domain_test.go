package domain

import (
	"testing"
	"time"
)

func TestEmailTypeAttributes(t *testing.T) {
	tests := []struct {
		t        EmailType
		category Category
		impact   int
	}{
		{EmailUrgentBuyback, CategoryDebt, -15},
		{EmailNormalBuyback, CategoryDebt, -8},
		{EmailGiftPoints, CategoryCredit, 20},
		{EmailGiftInfo, CategoryCredit, 10},
		{EmailNewsStory, CategoryCredit, 5},
		{EmailThankYou, CategoryCredit, 12},
		{EmailPurchasePromo, CategoryNeutral, -3},
		{EmailSkip, CategoryNeutral, 0},
	}
	for _, tt := range tests {
		if tt.t.Category() != tt.category {
			t.Errorf("%s category = %s, want %s", tt.t, tt.t.Category(), tt.category)
		}
		if tt.t.BalanceImpact() != tt.impact {
			t.Errorf("%s impact = %d, want %d", tt.t, tt.t.BalanceImpact(), tt.impact)
		}
		if !tt.t.Valid() {
			t.Errorf("%s should be valid", tt.t)
		}
	}
	if EmailType("NOPE").Valid() {
		t.Error("unknown type should be invalid")
	}
	if len(AllEmailTypes()) != len(tests) {
		t.Errorf("AllEmailTypes has %d members, want %d", len(AllEmailTypes()), len(tests))
	}
}

func TestParseQualityTier(t *testing.T) {
	tests := []struct {
		in   string
		want QualityTier
	}{
		{"A", TierA}, {"b", TierB}, {" C ", TierC}, {"d", TierD},
		{"", TierB}, {"platinum", TierB}, {"Z", TierB},
	}
	for _, tt := range tests {
		if got := ParseQualityTier(tt.in); got != tt.want {
			t.Errorf("ParseQualityTier(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTierWeights(t *testing.T) {
	if TierA.PriorityWeight() != 1.0 || TierB.PriorityWeight() != 0.8 ||
		TierC.PriorityWeight() != 0.4 || TierD.PriorityWeight() != 0.0 {
		t.Error("tier weights changed")
	}
	if QualityTier("?").PriorityWeight() != 0.8 {
		t.Error("unknown tier should weigh like B")
	}
}

func TestDaysSinceClampsNegative(t *testing.T) {
	now := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	c := CustomerProfile{LastEmailDate: now.AddDate(0, 0, 3)}
	if got := c.DaysSinceLastEmail(now); got != 0 {
		t.Errorf("future last email gives %d days, want 0", got)
	}
}

func TestMissingDatesCountAsLongAgo(t *testing.T) {
	now := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	c := CustomerProfile{}
	if got := c.DaysSinceLastGift(now); got < 365 {
		t.Errorf("zero gift date gives %d days, want a large value", got)
	}
}

func TestWarehouseDerivations(t *testing.T) {
	forecast := func(usages ...float64) []ForecastDay {
		days := make([]ForecastDay, len(usages))
		for i, u := range usages {
			days[i] = ForecastDay{CapacityUsage: u}
		}
		return days
	}

	w := WarehouseState{
		BacklogBoxes:   80,
		SlackThreshold: 0.35,
		Forecast:       forecast(0.2, 0.3, 0.1, 0.8, 0.9, 0.8, 0.7),
	}
	if w.SlackDays() != 3 {
		t.Errorf("slack days = %d, want 3", w.SlackDays())
	}

	w.DeriveEmergencyLevel()
	if w.EmergencyLevel != 4 {
		t.Errorf("derived level = %d, want 4 (small backlog, 3 slack days)", w.EmergencyLevel)
	}

	w.BacklogBoxes = 120
	w.DeriveEmergencyLevel()
	if w.EmergencyLevel != 3 {
		t.Errorf("derived level = %d, want 3", w.EmergencyLevel)
	}

	w.BacklogBoxes = 300
	w.DeriveEmergencyLevel()
	if w.EmergencyLevel != 2 {
		t.Errorf("derived level = %d, want 2", w.EmergencyLevel)
	}

	w.EmergencyLevel = 5
	if !w.IsCritical() || !w.IsEmergency() || w.IsRelaxed() {
		t.Error("level 5 flags wrong")
	}
}

package engine

import (
	"fmt"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// Ruleset selects which generation of targeting rules the classifier runs.
// The V1 ruleset predates quality tiers and the engagement ledger; it keys
// purely on cadence, activity type, and warehouse urgency.
type Ruleset string

const (
	RulesetV1 Ruleset = "v1"
	RulesetV2 Ruleset = "v2"
)

// ParseRuleset validates a ruleset name. Empty means V2.
func ParseRuleset(s string) (Ruleset, error) {
	switch Ruleset(s) {
	case "", RulesetV2:
		return RulesetV2, nil
	case RulesetV1:
		return RulesetV1, nil
	}
	return "", fmt.Errorf("%w: ruleset %q", domain.ErrUnknownPolicy, s)
}

// cooldownDays is the hard minimum interval between any two emails.
const cooldownDays = 7

// Classifier applies the ordered targeting rules to one customer at a time.
// It is pure: every call depends only on the customer, the warehouse
// snapshot, and the injected now.
type Classifier struct {
	warehouse domain.WarehouseState
	ruleset   Ruleset
}

// NewClassifier builds a classifier for one warehouse snapshot.
func NewClassifier(w domain.WarehouseState, rs Ruleset) *Classifier {
	if rs == "" {
		rs = RulesetV2
	}
	return &Classifier{warehouse: w, ruleset: rs}
}

// Classify runs the rule chain and returns the full decision for the
// customer, priority left at zero for the ranker to fill in.
func (cl *Classifier) Classify(c domain.CustomerProfile, now time.Time) domain.EmailDecision {
	var (
		emailType domain.EmailType
		reason    string
		ruleID    domain.RuleID
		trace     []string
	)

	if cl.ruleset == RulesetV1 {
		emailType, reason, ruleID, trace = cl.classifyV1(c, now)
	} else {
		emailType, reason, ruleID, trace = cl.classifyV2(c, now)
	}

	return domain.EmailDecision{
		CustomerID:    c.ID,
		CustomerName:  c.Name,
		EmailType:     emailType,
		Category:      emailType.Category(),
		Reason:        reason,
		RuleID:        ruleID,
		BalanceImpact: emailType.BalanceImpact(),
		BalanceAfter:  c.EngagementBalance + emailType.BalanceImpact(),
		Trace:         trace,
	}
}

// classifyV2 is the emotional-balance ruleset. Order matters: the
// credit-first check deliberately outranks the urgency check below level 5,
// protecting the relationship before exploiting it.
func (cl *Classifier) classifyV2(c domain.CustomerProfile, now time.Time) (domain.EmailType, string, domain.RuleID, []string) {
	w := cl.warehouse
	trace := []string{}

	days := c.DaysSinceLastEmail(now)
	if days < cooldownDays {
		trace = append(trace, fmt.Sprintf("last email %d days ago, under %d-day cooldown", days, cooldownDays))
		return domain.EmailSkip, fmt.Sprintf("interval too short (%d days since last email)", days),
			domain.RuleCooldown, trace
	}
	trace = append(trace, fmt.Sprintf("cooldown cleared (%d days)", days))

	if needs, why := cl.needsCreditFirst(c, now); needs && !w.IsCritical() {
		trace = append(trace, "credit-first: "+why)
		t := cl.selectCreditEmail(c, now)
		return t, "credit first: " + why, domain.RuleCreditFirst, trace
	}

	eligible, eligReason := cl.eligibleForSolicitation(c, now)
	trace = append(trace, "solicitation eligibility: "+eligReason)

	if w.IsEmergency() &&
		(c.ActivityType == domain.ActivityBuybackMain || c.ActivityType == domain.ActivityBothActive) &&
		eligible {
		urgency := "emergency"
		if w.IsCritical() {
			urgency = "critical"
		}
		trace = append(trace, urgency+" warehouse, buyback-leaning customer")
		return domain.EmailUrgentBuyback,
			fmt.Sprintf("%s warehouse level %d, %s", urgency, w.EmergencyLevel, eligReason),
			domain.RuleUrgentBuyback, trace
	}

	if c.ActivityType == domain.ActivityPurchaseMain {
		trace = append(trace, "purchase-leaning customer")
		return domain.EmailPurchasePromo, "purchase-leaning customer", domain.RulePurchasePromo, trace
	}

	if eligible && w.SlackDays() >= 1 {
		trace = append(trace, fmt.Sprintf("%d slack days in forecast", w.SlackDays()))
		return domain.EmailNormalBuyback,
			fmt.Sprintf("slack period (%d low-utilization days ahead)", w.SlackDays()),
			domain.RuleNormalBuyback, trace
	}

	trace = append(trace, "no debt rule fired, defaulting to relationship maintenance")
	t := cl.selectCreditEmail(c, now)
	return t, "relationship maintenance", domain.RuleRelationship, trace
}

// needsCreditFirst reports whether the relationship needs replenishing
// before any further solicitation.
func (cl *Classifier) needsCreditFirst(c domain.CustomerProfile, now time.Time) (bool, string) {
	if c.EngagementBalance < 0 {
		return true, fmt.Sprintf("engagement balance %d is negative", c.EngagementBalance)
	}
	if g := c.DaysSinceLastGift(now); g > 60 {
		return true, fmt.Sprintf("no gift for %d days", g)
	}
	return false, "balance healthy"
}

// selectCreditEmail picks which goodwill email fits the customer.
func (cl *Classifier) selectCreditEmail(c domain.CustomerProfile, now time.Time) domain.EmailType {
	switch {
	case c.EngagementBalance < -15:
		return domain.EmailGiftPoints
	case c.DaysSinceLastGift(now) > 90:
		return domain.EmailThankYou
	case c.ActivityType == domain.ActivityPurchaseMain:
		return domain.EmailGiftInfo
	default:
		return domain.EmailNewsStory
	}
}

// eligibleForSolicitation gates debt emails by quality tier, balance, and
// solicitation cadence. Critical warehouses override the cadence and the
// tier-D lockout; merely-emergency ones override only the tier-C lockout.
func (cl *Classifier) eligibleForSolicitation(c domain.CustomerProfile, now time.Time) (bool, string) {
	w := cl.warehouse

	if c.QualityTier == domain.TierD {
		if w.IsCritical() {
			return true, "tier D allowed under critical warehouse"
		}
		return false, "tier D: default no-send"
	}
	if c.QualityTier == domain.TierC {
		if w.IsEmergency() {
			return true, "tier C allowed under emergency warehouse"
		}
		return false, "tier C: emergency only"
	}
	if c.EngagementBalance < -20 {
		return false, fmt.Sprintf("balance %d too deep in debt", c.EngagementBalance)
	}
	if d := c.DaysSinceLastSolicitation(now); d < 14 {
		if w.IsCritical() {
			return true, fmt.Sprintf("solicited %d days ago, critical override", d)
		}
		return false, fmt.Sprintf("solicited %d days ago, under 14-day spacing", d)
	}
	return true, "eligible"
}

// classifyV1 is the legacy ruleset: no tiers, no ledger, urgency only.
func (cl *Classifier) classifyV1(c domain.CustomerProfile, now time.Time) (domain.EmailType, string, domain.RuleID, []string) {
	w := cl.warehouse
	trace := []string{}

	days := c.DaysSinceLastEmail(now)
	if days < cooldownDays {
		trace = append(trace, fmt.Sprintf("last email %d days ago", days))
		return domain.EmailSkip, fmt.Sprintf("interval too short (%d days since last email)", days),
			domain.RuleCooldown, trace
	}
	if days < 14 {
		// 7-13 days only clears for the most urgent warehouse.
		if w.IsEmergency() {
			trace = append(trace, "short interval overridden by warehouse urgency")
			return domain.EmailUrgentBuyback,
				fmt.Sprintf("short interval (%d days) but warehouse urgency high", days),
				domain.RuleUrgentBuyback, trace
		}
		trace = append(trace, fmt.Sprintf("interval %d days, waiting out 14", days))
		return domain.EmailSkip, fmt.Sprintf("interval too short (%d days, want 14)", days),
			domain.RuleCooldown, trace
	}

	if w.IsEmergency() &&
		(c.ActivityType == domain.ActivityBuybackMain || c.ActivityType == domain.ActivityBothActive) {
		trace = append(trace, "urgent warehouse, buyback-leaning customer")
		return domain.EmailUrgentBuyback,
			fmt.Sprintf("warehouse urgency high, %d slack days", w.SlackDays()),
			domain.RuleUrgentBuyback, trace
	}
	if c.ActivityType == domain.ActivityPurchaseMain {
		trace = append(trace, "purchase-leaning customer")
		return domain.EmailPurchasePromo, "purchase-leaning customer", domain.RulePurchasePromo, trace
	}
	if w.SlackDays() >= 1 {
		trace = append(trace, fmt.Sprintf("%d slack days in forecast", w.SlackDays()))
		return domain.EmailNormalBuyback,
			fmt.Sprintf("slack period (%d low-utilization days ahead)", w.SlackDays()),
			domain.RuleNormalBuyback, trace
	}
	trace = append(trace, "no send trigger, news for relationship upkeep")
	return domain.EmailNewsStory, "relationship maintenance", domain.RuleRelationship, trace
}

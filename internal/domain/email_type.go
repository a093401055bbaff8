package domain

// Category classifies an email by its effect on the engagement ledger:
// debt emails ask the customer for something, credit emails give something.
type Category string

const (
	CategoryDebt    Category = "debt"
	CategoryCredit  Category = "credit"
	CategoryNeutral Category = "neutral"
)

// EmailType is the closed set of email kinds the pipeline can decide on.
type EmailType string

const (
	EmailUrgentBuyback EmailType = "URGENT_BUYBACK"
	EmailNormalBuyback EmailType = "NORMAL_BUYBACK"
	EmailGiftPoints    EmailType = "GIFT_POINTS"
	EmailGiftInfo      EmailType = "GIFT_INFO"
	EmailNewsStory     EmailType = "NEWS_STORY"
	EmailThankYou      EmailType = "THANK_YOU"
	EmailPurchasePromo EmailType = "PURCHASE_PROMO"
	EmailSkip          EmailType = "SKIP"
)

type emailTypeInfo struct {
	label    string
	category Category
	impact   int
}

var emailTypes = map[EmailType]emailTypeInfo{
	EmailUrgentBuyback: {"urgent buyback request", CategoryDebt, -15},
	EmailNormalBuyback: {"buyback invitation", CategoryDebt, -8},
	EmailGiftPoints:    {"bonus points gift", CategoryCredit, +20},
	EmailGiftInfo:      {"useful info gift", CategoryCredit, +10},
	EmailNewsStory:     {"news story", CategoryCredit, +5},
	EmailThankYou:      {"thank you note", CategoryCredit, +12},
	EmailPurchasePromo: {"purchase promotion", CategoryNeutral, -3},
	EmailSkip:          {"skip", CategoryNeutral, 0},
}

// Label returns the display label for the email type.
func (t EmailType) Label() string { return emailTypes[t].label }

// Category returns debt, credit, or neutral.
func (t EmailType) Category() Category { return emailTypes[t].category }

// BalanceImpact is the signed delta applied to the engagement balance
// if an email of this type is actually sent.
func (t EmailType) BalanceImpact() int { return emailTypes[t].impact }

// Valid reports whether t is a member of the closed set.
func (t EmailType) Valid() bool {
	_, ok := emailTypes[t]
	return ok
}

// AllEmailTypes returns the closed set in a stable order.
func AllEmailTypes() []EmailType {
	return []EmailType{
		EmailUrgentBuyback, EmailNormalBuyback,
		EmailGiftPoints, EmailGiftInfo, EmailNewsStory, EmailThankYou,
		EmailPurchasePromo, EmailSkip,
	}
}

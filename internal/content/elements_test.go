package content

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hondana/buyback-mailer/internal/domain"
)

func testCatalog() Catalog {
	return Catalog{
		Campaigns: []Campaign{
			{Name: "Autumn buyback fair", IsSolicitation: true},
			{Name: "Double points week", IsSolicitation: false},
		},
		Stories: []Story{
			{Title: "New store opening"},
			{Title: "Staff picks for autumn"},
			{Title: "A third story"},
		},
		Gifts: []Gift{
			{Name: "Bookmark set"},
			{Name: "Tote bag"},
			{Name: "Third gift"},
		},
	}
}

func TestBuildElementsDebtGetsSolicitationOffers(t *testing.T) {
	el := testCatalog().BuildElements(contentCustomer(), normalBuybackDecision(), contentNow)

	assert.Len(t, el.Offers, 1)
	assert.Equal(t, "Autumn buyback fair", el.Offers[0].Name)
	assert.Empty(t, el.Gifts)
	assert.Len(t, el.Stories, maxStories)
}

func TestBuildElementsCreditGetsGiftsAndPointOffers(t *testing.T) {
	d := normalBuybackDecision()
	d.EmailType = domain.EmailGiftPoints
	d.Category = domain.CategoryCredit

	el := testCatalog().BuildElements(contentCustomer(), d, contentNow)

	assert.Len(t, el.Offers, 1)
	assert.Equal(t, "Double points week", el.Offers[0].Name)
	assert.Len(t, el.Gifts, 2)
}

func TestRelationshipContext(t *testing.T) {
	c := contentCustomer()

	c.EngagementBalance = -15
	el := Catalog{}.BuildElements(c, normalBuybackDecision(), contentNow)
	assert.Contains(t, el.RelationshipContext, "sorry")

	c.EngagementBalance = 25
	el = Catalog{}.BuildElements(c, normalBuybackDecision(), contentNow)
	assert.Contains(t, el.RelationshipContext, "grateful")

	c.EngagementBalance = 5
	c.LastEmailDate = contentNow.AddDate(0, 0, -70)
	el = Catalog{}.BuildElements(c, normalBuybackDecision(), contentNow)
	assert.Contains(t, el.RelationshipContext, "a while")

	c.LastEmailDate = contentNow.AddDate(0, 0, -20)
	el = Catalog{}.BuildElements(c, normalBuybackDecision(), contentNow)
	assert.Empty(t, el.RelationshipContext)
}

func TestTone(t *testing.T) {
	c := contentCustomer()

	c.EngagementBalance = -11
	assert.Equal(t, "restrained and sincere", Tone(c))

	c.EngagementBalance = 21
	assert.Equal(t, "grateful and warm", Tone(c))

	c.EngagementBalance = 0
	assert.Equal(t, "natural and friendly", Tone(c))
}

func TestFallbackContent(t *testing.T) {
	c := contentCustomer()
	d := normalBuybackDecision()

	ec := FallbackContent(c, d, contentNow)
	assert.Equal(t, rankSubjects["gold"], ec.Subject)
	assert.Equal(t, "template", ec.Source)
	assert.Contains(t, ec.Body, "Tanaka")
	assert.Contains(t, ec.Body, "it has been a while.")
	assert.Contains(t, ec.Body, "mystery")

	c.Rank = "unknown-rank"
	ec = FallbackContent(c, d, contentNow)
	assert.Equal(t, rankSubjects["bronze"], ec.Subject)
}

func TestDormantGreetingTiers(t *testing.T) {
	c := contentCustomer()

	c.LastActivityDate = contentNow.AddDate(0, 0, -10)
	assert.Equal(t, "thank you as always.", dormantGreeting(c, contentNow))

	c.LastActivityDate = contentNow.AddDate(0, 0, -45)
	assert.Equal(t, "it has been a while.", dormantGreeting(c, contentNow))

	c.LastActivityDate = contentNow.AddDate(0, 0, -180)
	assert.Equal(t, "long time no see.", dormantGreeting(c, contentNow))
}

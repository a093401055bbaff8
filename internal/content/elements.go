// Package content turns admitted email decisions into subjects and bodies:
// a prompt is rendered per decision, sent to an LLM backend, and parsed;
// deterministic templates cover the backends being down.
package content

import (
	"fmt"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// Campaign is a currently running promotion usable inside an email.
type Campaign struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	IsSolicitation bool   `json:"is_solicitation"`
}

// Story is a short positive news item (usually from the company blog)
// that adds a human touch to relationship emails.
type Story struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Tone    string `json:"tone,omitempty"`
}

// Gift is a concrete gift option for credit emails.
type Gift struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Elements is everything the prompt builder needs beyond the decision
// itself.
type Elements struct {
	RelationshipContext string     `json:"relationship_context"`
	Offers              []Campaign `json:"offers"`
	Stories             []Story    `json:"stories"`
	Gifts               []Gift     `json:"gifts"`
}

// maxStories bounds how many news items one email references.
const maxStories = 2

// Catalog holds the campaign/story/gift pool for a run.
type Catalog struct {
	Campaigns []Campaign
	Stories   []Story
	Gifts     []Gift
}

// DefaultCatalog is the seed pool used when no catalog file is supplied.
// Feed stories are appended at startup when a news source is configured.
func DefaultCatalog() Catalog {
	return Catalog{
		Campaigns: []Campaign{
			{
				Name:           "Free shipping buyback week",
				Description:    "We cover shipping on every buyback box, no minimum count.",
				IsSolicitation: true,
			},
			{
				Name:           "Bonus appraisal on full shelves",
				Description:    "Boxes of 30 books or more get a 10% appraisal bonus.",
				IsSolicitation: true,
			},
			{
				Name:           "Point exchange fair",
				Description:    "Store points trade for rare paperbacks this month.",
				IsSolicitation: false,
			},
		},
		Gifts: []Gift{
			{Name: "500 store points", Description: "Usable on any purchase, no expiry this year."},
			{Name: "Bookmark set", Description: "Letterpress bookmarks from our bindery partner."},
		},
	}
}

// BuildElements assembles the content elements for one decision.
func (cat Catalog) BuildElements(c domain.CustomerProfile, d domain.EmailDecision, now time.Time) Elements {
	el := Elements{
		RelationshipContext: relationshipContext(c, now),
	}

	for _, cam := range cat.Campaigns {
		// Debt emails carry buyback campaigns, credit emails the rest.
		if d.Category == domain.CategoryDebt && cam.IsSolicitation {
			el.Offers = append(el.Offers, cam)
		} else if d.Category == domain.CategoryCredit && !cam.IsSolicitation {
			el.Offers = append(el.Offers, cam)
		}
	}

	for _, s := range cat.Stories {
		if len(el.Stories) == maxStories {
			break
		}
		el.Stories = append(el.Stories, s)
	}

	if d.Category == domain.CategoryCredit && len(cat.Gifts) > 0 {
		n := len(cat.Gifts)
		if n > 2 {
			n = 2
		}
		el.Gifts = cat.Gifts[:n]
	}

	return el
}

// relationshipContext picks an opening line matching the state of the
// relationship ledger.
func relationshipContext(c domain.CustomerProfile, now time.Time) string {
	switch {
	case c.EngagementBalance < -10:
		return "Thank you for everything you have shared with us. We are sorry to have been out of touch so long."
	case c.DaysSinceLastEmail(now) > 60:
		return fmt.Sprintf("It has been a while. We were thinking of you, %s, and wanted to reach out.", c.Name)
	case c.EngagementBalance > 20:
		return "We are truly grateful for your continued warmth and support."
	default:
		return ""
	}
}

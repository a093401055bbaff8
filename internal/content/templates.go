package content

import (
	"fmt"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// rankSubjects are the deterministic fallback subjects per customer rank.
var rankSubjects = map[string]string{
	"platinum": "A special offer for you",
	"gold":     "An invitation for you",
	"silver":   "News from your bookshelf",
	"bronze":   "Hello from our store",
}

// FallbackContent builds a deterministic email when every LLM backend
// is unavailable. Subjects key off rank, bodies off the email type and
// how long the customer has been dormant.
func FallbackContent(c domain.CustomerProfile, d domain.EmailDecision, now time.Time) EmailContent {
	subject, ok := rankSubjects[c.Rank]
	if !ok {
		subject = rankSubjects["bronze"]
	}

	genre := c.PreferredGenre
	if genre == "" {
		genre = "books"
	}

	var action string
	switch d.EmailType {
	case domain.EmailUrgentBuyback:
		action = fmt.Sprintf("We are buying %s titles at boosted rates right now, and shelf space is waiting for yours.", genre)
	case domain.EmailNormalBuyback:
		action = fmt.Sprintf("If any %s titles on your shelf are done with you, we would love to take them in.", genre)
	case domain.EmailGiftPoints:
		action = "We have added bonus points to your account as a small thank you."
	case domain.EmailGiftInfo:
		action = "A small gift is waiting for you on your next visit."
	case domain.EmailNewsStory:
		action = fmt.Sprintf("Here is what has been happening around the %s shelves lately.", genre)
	case domain.EmailThankYou:
		action = "Thank you, sincerely, for the books you have trusted us with."
	case domain.EmailPurchasePromo:
		action = fmt.Sprintf("New %s arrivals just hit the shelves, and a few made us think of you.", genre)
	default:
		action = "We hope the reading has been good lately."
	}

	return EmailContent{
		Subject: subject,
		Body:    fmt.Sprintf("%s, %s %s", c.Name, dormantGreeting(c, now), action),
		Source:  "template",
	}
}

// dormantGreeting picks the opening clause by how long the customer has
// been inactive.
func dormantGreeting(c domain.CustomerProfile, now time.Time) string {
	days := c.DaysDormant(now)
	switch {
	case days < 30:
		return "thank you as always."
	case days < 90:
		return "it has been a while."
	default:
		return "long time no see."
	}
}

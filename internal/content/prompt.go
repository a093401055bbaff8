package content

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/osteele/liquid"

	"github.com/hondana/buyback-mailer/internal/domain"
)

// promptTemplate is the Liquid source for the generation prompt. It is
// parsed once and cached; every decision renders it with its own context.
const promptTemplate = `You are writing a short email for a secondhand book store.

## Customer
- Name: {{ customer_name }}
- Rank: {{ rank }}
- Preferred genre: {{ genre | default: "books in general" }}
- Total buyback amount: {{ total_buyback | number_with_delimiter }} yen
- Days since last email: {{ days_since_email }}

## Relationship state
- Engagement balance: {{ balance }}
{% if relationship_context != "" %}- Context: {{ relationship_context }}
{% endif %}
## Email to write
- Type: {{ email_type_label }}
- Reason it was chosen: {{ reason }}
- Tone: {{ tone }}
{% if offers.size > 0 %}
## Offers you may mention
{% for offer in offers %}- {{ offer.name }}: {{ offer.description }}
{% endfor %}{% endif %}{% if stories.size > 0 %}
## Recent news you may mention
{% for story in stories %}- {{ story.title }}: {{ story.summary }}
{% endfor %}{% endif %}{% if gifts.size > 0 %}
## Gifts you may offer
{% for gift in gifts %}- {{ gift.name }}: {{ gift.description }}
{% endfor %}{% endif %}
## Constraints
- Subject: at most 20 characters.
- Body: 150 to 200 characters.
- Address the customer by name and reference their preferred genre.
- Reply with exactly two lines:
SUBJECT: <subject>
BODY: <body>`

// PromptBuilder renders generation prompts through a cached Liquid engine.
type PromptBuilder struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewPromptBuilder creates a builder with the custom filters registered.
func NewPromptBuilder() *PromptBuilder {
	pb := &PromptBuilder{engine: liquid.NewEngine()}
	pb.registerFilters()
	return pb
}

func (pb *PromptBuilder) registerFilters() {
	pb.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	pb.engine.RegisterFilter("number_with_delimiter", func(value interface{}) string {
		var n int64
		switch v := value.(type) {
		case int:
			n = int64(v)
		case int64:
			n = v
		case float64:
			n = int64(v)
		case string:
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return v
			}
			n = parsed
		default:
			return fmt.Sprintf("%v", value)
		}

		str := fmt.Sprintf("%d", n)
		neg := n < 0
		if neg {
			str = str[1:]
		}

		var result strings.Builder
		for i, c := range str {
			if i > 0 && (len(str)-i)%3 == 0 {
				result.WriteRune(',')
			}
			result.WriteRune(c)
		}
		if neg {
			return "-" + result.String()
		}
		return result.String()
	})
}

// Build renders the generation prompt for one admitted decision.
func (pb *PromptBuilder) Build(c domain.CustomerProfile, d domain.EmailDecision, el Elements, now time.Time) (string, error) {
	ctx := map[string]interface{}{
		"customer_name":        c.Name,
		"rank":                 c.Rank,
		"genre":                c.PreferredGenre,
		"total_buyback":        c.TotalBuybackAmount,
		"days_since_email":     c.DaysSinceLastEmail(now),
		"balance":              c.EngagementBalance,
		"relationship_context": el.RelationshipContext,
		"email_type_label":     d.EmailType.Label(),
		"reason":               d.Reason,
		"tone":                 Tone(c),
		"offers":               offerMaps(el.Offers),
		"stories":              storyMaps(el.Stories),
		"gifts":                giftMaps(el.Gifts),
	}
	return pb.render("generation-prompt", promptTemplate, ctx)
}

// render parses with caching and renders the template.
func (pb *PromptBuilder) render(cacheKey, templateStr string, ctx map[string]interface{}) (string, error) {
	if cached, ok := pb.cache.Load(cacheKey); ok {
		tpl := cached.(*liquid.Template)
		return tpl.RenderString(ctx)
	}

	tpl, err := pb.engine.ParseString(templateStr)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}
	pb.cache.Store(cacheKey, tpl)

	out, err := tpl.RenderString(ctx)
	if err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return out, nil
}

// Tone maps the engagement balance to the voice the email should take.
func Tone(c domain.CustomerProfile) string {
	switch {
	case c.EngagementBalance < -10:
		return "restrained and sincere"
	case c.EngagementBalance > 20:
		return "grateful and warm"
	default:
		return "natural and friendly"
	}
}

func offerMaps(offers []Campaign) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(offers))
	for _, o := range offers {
		out = append(out, map[string]interface{}{"name": o.Name, "description": o.Description})
	}
	return out
}

func storyMaps(stories []Story) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(stories))
	for _, s := range stories {
		out = append(out, map[string]interface{}{"title": s.Title, "summary": s.Summary})
	}
	return out
}

func giftMaps(gifts []Gift) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(gifts))
	for _, g := range gifts {
		out = append(out, map[string]interface{}{"name": g.Name, "description": g.Description})
	}
	return out
}

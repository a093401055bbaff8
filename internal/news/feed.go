// Package news pulls short store news from RSS/Atom feeds so credit
// emails have something real to talk about.
package news

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hondana/buyback-mailer/internal/content"
	"github.com/hondana/buyback-mailer/internal/pkg/logger"
)

// Item is a single feed entry, normalized.
type Item struct {
	GUID       string    `json:"guid"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Link       string    `json:"link"`
	PubDate    time.Time `json:"pub_date"`
	ImageURL   string    `json:"image_url,omitempty"`
	Author     string    `json:"author,omitempty"`
	Categories []string  `json:"categories,omitempty"`
}

// summaryLimit keeps story summaries short enough for a prompt.
const summaryLimit = 140

// Service fetches and filters feed items.
type Service struct {
	parser *gofeed.Parser
}

func NewService() *Service {
	return &Service{parser: gofeed.NewParser()}
}

// Fetch downloads and normalizes one feed.
func (s *Service) Fetch(ctx context.Context, url string) ([]Item, error) {
	feed, err := s.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, parseItem(it))
	}
	return items, nil
}

// FetchAll merges several feeds. A dead feed is logged and skipped so
// one broken URL does not empty the whole story pool.
func (s *Service) FetchAll(ctx context.Context, urls []string) []Item {
	var all []Item
	for _, url := range urls {
		items, err := s.Fetch(ctx, url)
		if err != nil {
			logger.Warn("feed fetch failed", "url", url, "error", err.Error())
			continue
		}
		all = append(all, items...)
	}
	return all
}

func parseItem(item *gofeed.Item) Item {
	out := Item{
		GUID:    item.GUID,
		Title:   item.Title,
		Summary: truncate(stripHTML(item.Description), summaryLimit),
		Link:    item.Link,
	}

	if out.GUID == "" {
		out.GUID = item.Link
	}

	if item.PublishedParsed != nil {
		out.PubDate = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		out.PubDate = *item.UpdatedParsed
	} else {
		out.PubDate = time.Now()
	}

	if item.Image != nil {
		out.ImageURL = item.Image.URL
	} else if len(item.Enclosures) > 0 {
		for _, enc := range item.Enclosures {
			if strings.HasPrefix(enc.Type, "image/") {
				out.ImageURL = enc.URL
				break
			}
		}
	}

	if len(item.Authors) > 0 {
		out.Author = item.Authors[0].Name
	} else if item.Author != nil {
		out.Author = item.Author.Name
	}

	out.Categories = append(out.Categories, item.Categories...)

	return out
}

// SelectStories picks at most limit items for one customer, favoring
// items whose categories match the preferred genre, newest first.
func SelectStories(items []Item, genre string, limit int) []content.Story {
	if limit <= 0 {
		return nil
	}

	ranked := make([]Item, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		mi, mj := matchesGenre(ranked[i], genre), matchesGenre(ranked[j], genre)
		if mi != mj {
			return mi
		}
		return ranked[i].PubDate.After(ranked[j].PubDate)
	})

	var stories []content.Story
	for _, it := range ranked {
		if len(stories) == limit {
			break
		}
		stories = append(stories, content.Story{
			Title:   it.Title,
			Summary: it.Summary,
		})
	}
	return stories
}

func matchesGenre(it Item, genre string) bool {
	if genre == "" {
		return false
	}
	genre = strings.ToLower(genre)
	for _, cat := range it.Categories {
		if strings.Contains(strings.ToLower(cat), genre) {
			return true
		}
	}
	return false
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)

func stripHTML(input string) string {
	text := tagRegex.ReplaceAllString(input, "")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// Package roster loads customer profiles from CSV and JSON files.
package roster

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/pkg/logger"
)

const dateLayout = "2006-01-02"

// LoadFile dispatches on the file extension.
func LoadFile(path string) ([]domain.CustomerProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return LoadJSON(f)
	}
	return LoadCSV(f)
}

// LoadJSON reads a JSON array of customer profiles.
func LoadJSON(r io.Reader) ([]domain.CustomerProfile, error) {
	var customers []domain.CustomerProfile
	if err := json.NewDecoder(r).Decode(&customers); err != nil {
		return nil, fmt.Errorf("decode roster JSON: %w", err)
	}
	for i := range customers {
		normalize(&customers[i])
	}
	return customers, nil
}

// LoadCSV reads a header-keyed CSV roster. Unknown columns are ignored
// and rows missing a customer_id are dropped with a warning, so a
// hand-edited export does not abort a whole run.
func LoadCSV(r io.Reader) ([]domain.CustomerProfile, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["customer_id"]; !ok {
		return nil, fmt.Errorf("roster CSV has no customer_id column")
	}

	var customers []domain.CustomerProfile
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read roster line %d: %w", line, err)
		}

		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		c := domain.CustomerProfile{
			ID:                   get("customer_id"),
			Name:                 get("name"),
			Email:                get("email"),
			Rank:                 strings.ToLower(get("rank")),
			TotalBuybackCount:    parseInt(get("total_buyback_count")),
			TotalBuybackAmount:   parseInt(get("total_buyback_amount")),
			TotalPurchaseCount:   parseInt(get("total_purchase_count")),
			TotalPurchaseAmount:  parseInt(get("total_purchase_amount")),
			ActivityType:         get("activity_type"),
			PreferredGenre:       get("preferred_genre"),
			LastActivityDate:     parseDate(get("last_activity_date")),
			EngagementBalance:    parseInt(get("engagement_balance")),
			QualityTier:          domain.ParseQualityTier(get("quality_tier")),
			LastSolicitationDate: parseDate(get("last_solicitation_date")),
			LastGiftDate:         parseDate(get("last_gift_date")),
			RejectionRate:        parseFloat(get("rejection_rate")),
			LastEmailDate:        parseDate(get("last_email_date")),
			LastEmailType:        get("last_email_type"),
			OpenRate:             parseFloat(get("open_rate")),
			ResponseRate:         parseFloat(get("response_rate")),
		}

		if c.ID == "" {
			logger.Warn("roster row missing customer_id, dropped", "line", line)
			continue
		}

		normalize(&c)
		customers = append(customers, c)
	}

	return customers, nil
}

// normalize clamps rate fields into [0,1] and defaults the tier.
func normalize(c *domain.CustomerProfile) {
	c.OpenRate = clamp01(c.OpenRate)
	c.ResponseRate = clamp01(c.ResponseRate)
	c.RejectionRate = clamp01(c.RejectionRate)
	c.QualityTier = domain.ParseQualityTier(string(c.QualityTier))
	if c.Rank != "" {
		c.Rank = strings.ToLower(c.Rank)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

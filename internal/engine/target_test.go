package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hondana/buyback-mailer/internal/domain"
)

func TestConversionRates(t *testing.T) {
	rates := DefaultConversionRates()

	tests := []struct {
		rank string
		want float64
	}{
		{"platinum", 0.025},
		{"gold", 0.015},
		{"silver", 0.008},
		{"bronze", 0.003},
		{"Platinum", 0.025},
		{"mystery", 0.005},
		{"", 0.005},
	}
	for _, tt := range tests {
		if got := rates.Rate(tt.rank); got != tt.want {
			t.Errorf("Rate(%q) = %v, want %v", tt.rank, got, tt.want)
		}
	}
}

func TestTargetSelection(t *testing.T) {
	opt := NewTargetOptimizer(nil)

	roster := testRoster(100)
	for i := range roster {
		if i%2 == 0 {
			roster[i].Rank = "platinum"
		} else {
			roster[i].Rank = "bronze"
		}
	}

	sel := opt.Select(roster, 1, testNow)

	if sel.SelectedCount == 0 {
		t.Fatal("no customers selected")
	}
	if sel.ExpectedApplications < 1 {
		t.Errorf("expected applications %v below target", sel.ExpectedApplications)
	}

	// Removing the last pick must drop below the target: the cut is minimal.
	var without float64
	for _, p := range sel.Picks[:len(sel.Picks)-1] {
		without += p.ExpectedRate
	}
	if without >= 1 {
		t.Errorf("selection is not minimal: %v without last pick", without)
	}

	// Picks are in descending score order.
	for i := 1; i < len(sel.Picks); i++ {
		if sel.Picks[i].Score > sel.Picks[i-1].Score {
			t.Errorf("picks not sorted by score at %d", i)
		}
	}
}

func TestTargetSelectionCSV(t *testing.T) {
	opt := NewTargetOptimizer(ConversionRates{"gold": 0.5})

	roster := []domain.CustomerProfile{baseCustomer()}
	sel := opt.Select(roster, 1, testNow)

	var buf bytes.Buffer
	if err := sel.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1+sel.SelectedCount {
		t.Errorf("csv has %d lines, want %d", len(lines), 1+sel.SelectedCount)
	}
	if !strings.HasPrefix(lines[0], "customer_id,") {
		t.Errorf("missing header: %q", lines[0])
	}
}

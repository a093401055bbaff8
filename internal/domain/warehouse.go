package domain

import (
	"fmt"
	"time"
)

// ForecastDay is one entry of the 7-day warehouse forecast.
// The first entry of a forecast is always "today".
type ForecastDay struct {
	Date              time.Time `json:"date"`
	CapacityUsage     float64   `json:"capacity_usage"`
	PredictedArrivals int       `json:"predicted_arrivals"`
}

// WarehouseState is the immutable per-run snapshot of warehouse load.
// Emergency level 5 means the warehouse is nearly empty and buyback
// solicitation is most urgent; level 1 means it is packed.
type WarehouseState struct {
	BacklogBoxes       int           `json:"backlog_boxes"`
	BacklogBooks       int           `json:"backlog_books"`
	CapacityUsageToday float64       `json:"capacity_usage_today"`
	Forecast           []ForecastDay `json:"forecast,omitempty"`
	SlackThreshold     float64       `json:"slack_threshold"`
	EmergencyLevel     int           `json:"emergency_level"`
}

// Validate checks the snapshot's numeric ranges.
func (w WarehouseState) Validate() error {
	if w.CapacityUsageToday < 0 || w.CapacityUsageToday > 1 {
		return fmt.Errorf("%w: capacity usage %.3f", ErrInvalidCapacity, w.CapacityUsageToday)
	}
	if w.EmergencyLevel < 1 || w.EmergencyLevel > 5 {
		return fmt.Errorf("%w: level %d", ErrInvalidEmergencyLevel, w.EmergencyLevel)
	}
	return nil
}

// SlackDays counts forecast days below the slack threshold.
func (w WarehouseState) SlackDays() int {
	n := 0
	for _, d := range w.Forecast {
		if d.CapacityUsage < w.SlackThreshold {
			n++
		}
	}
	return n
}

// IsEmergency reports level 4 or 5.
func (w WarehouseState) IsEmergency() bool { return w.EmergencyLevel >= 4 }

// IsCritical reports level 5.
func (w WarehouseState) IsCritical() bool { return w.EmergencyLevel == 5 }

// IsRelaxed reports level 2 or below.
func (w WarehouseState) IsRelaxed() bool { return w.EmergencyLevel <= 2 }

// DeriveEmergencyLevel fills EmergencyLevel from backlog size and slack-day
// count when no explicit level is supplied. Older warehouse feeds only carry
// a 3-step urgency, mapped onto the 5-level scale as 4/3/2.
func (w *WarehouseState) DeriveEmergencyLevel() {
	slack := w.SlackDays()
	switch {
	case w.BacklogBoxes < 100 && slack >= 3:
		w.EmergencyLevel = 4
	case w.BacklogBoxes < 150 && slack >= 1:
		w.EmergencyLevel = 3
	default:
		w.EmergencyLevel = 2
	}
}

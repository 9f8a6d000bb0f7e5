package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/lcrivelli/energybuddy/internal/models"
)

func TestRate(t *testing.T) {
	tests := []struct {
		hour int
		want float64
	}{
		{0, NightRateCHF},
		{3, NightRateCHF},
		{6, NightRateCHF},
		{7, DayRateCHF},
		{12, DayRateCHF},
		{23, DayRateCHF},
	}
	for _, tt := range tests {
		if got := Default.Rate(tt.hour); got != tt.want {
			t.Errorf("Rate(%d) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestCustomBoundaryWrapsMidnight(t *testing.T) {
	s := Schedule{TariffWindow: models.TariffWindow{DayStartHour: 6, NightStartHour: 22}}

	tests := []struct {
		hour int
		want bool
	}{
		{21, false},
		{22, true},
		{23, true},
		{0, true},
		{5, true},
		{6, false},
	}
	for _, tt := range tests {
		if got := s.IsNight(tt.hour); got != tt.want {
			t.Errorf("IsNight(%d) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestCost(t *testing.T) {
	points := []models.SeriesPoint{
		{Start: time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC), State: 2.0},  // night
		{Start: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), State: 1.0}, // day
	}

	want := 2.0*NightRateCHF + 1.0*DayRateCHF
	if got := Default.Cost(points); math.Abs(got-want) > 1e-9 {
		t.Errorf("Cost = %v, want %v", got, want)
	}
}

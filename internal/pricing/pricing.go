// Package pricing provides the time-of-day CHF tariff lookup.
package pricing

import "github.com/lcrivelli/energybuddy/internal/models"

// AIL residential tariff, CHF per kWh.
const (
	DayRateCHF   = 0.1065
	NightRateCHF = 0.0920
)

// Schedule maps an hour-of-day onto the day or night tariff using the shared
// tariff window.
type Schedule struct {
	models.TariffWindow
}

// Default is the standard [0,7) night window.
var Default = Schedule{TariffWindow: models.DefaultTariffWindow}

// Rate returns the CHF/kWh price in effect for the given hour-of-day.
func (s Schedule) Rate(hour int) float64 {
	if s.IsNight(hour) {
		return NightRateCHF
	}
	return DayRateCHF
}

// Cost returns the CHF cost of a sequence of hourly points, pricing each
// point by the tariff of its own hour.
func (s Schedule) Cost(points []models.SeriesPoint) float64 {
	var total float64
	for _, p := range points {
		total += p.State * s.Rate(p.Start.Hour())
	}
	return total
}

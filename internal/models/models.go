package models

import "time"

// RawReading is a single reporting interval as returned by the portal.
// Intervals are variable width (typically 15 minutes) and not guaranteed to
// arrive time-sorted.
type RawReading struct {
	Day           float64
	Night         float64
	IntervalStart time.Time
	IntervalEnd   time.Time
	SampleCount   int // underlying meter pings in this interval; 0 means pending
	Pending       bool
}

// HourlyBucket accumulates readings for one hour-aligned window.
type HourlyBucket struct {
	HourStart   time.Time // truncated to the hour
	DayTotal    float64
	NightTotal  float64
	SampleCount int
}

// MinBucketSamples is the sample count required for a bucket to be considered
// a closed hour. Readings arrive in 15-minute sub-intervals, so four samples
// confirm full coverage.
const MinBucketSamples = 4

func (b *HourlyBucket) HourEnd() time.Time {
	return b.HourStart.Add(time.Hour)
}

func (b *HourlyBucket) Total() float64 {
	return b.DayTotal + b.NightTotal
}

// Complete reports whether the bucket covers a full closed hour.
func (b *HourlyBucket) Complete() bool {
	return b.SampleCount >= MinBucketSamples
}

// TariffWindow is the configurable day/night hour boundary shared by the
// aggregator and the pricing schedule. Night covers
// [NightStartHour, DayStartHour), wrapping midnight when the night period
// starts in the evening (e.g. 22 -> 6).
type TariffWindow struct {
	DayStartHour   int
	NightStartHour int
}

// DefaultTariffWindow is the standard [0,7) night window.
var DefaultTariffWindow = TariffWindow{DayStartHour: 7, NightStartHour: 0}

// IsNight reports whether the given hour-of-day falls in the night tariff
// period.
func (w TariffWindow) IsNight(hour int) bool {
	if w.NightStartHour <= w.DayStartHour {
		return hour >= w.NightStartHour && hour < w.DayStartHour
	}
	return hour >= w.NightStartHour || hour < w.DayStartHour
}

// SeriesKind selects which accumulator of a bucket feeds a statistics series.
type SeriesKind int

const (
	SeriesDay SeriesKind = iota
	SeriesNight
	SeriesTotal
)

// Kinds lists every tracked series.
var Kinds = []SeriesKind{SeriesDay, SeriesNight, SeriesTotal}

func (k SeriesKind) String() string {
	switch k {
	case SeriesDay:
		return "day"
	case SeriesNight:
		return "night"
	case SeriesTotal:
		return "total"
	}
	return "unknown"
}

// SeriesID is the statistic identifier used in the store.
func (k SeriesKind) SeriesID() string {
	return "energybuddy:energy_" + k.String() + "_consumption"
}

// Value returns the bucket accumulator for the given series kind.
func (b *HourlyBucket) Value(kind SeriesKind) float64 {
	switch kind {
	case SeriesDay:
		return b.DayTotal
	case SeriesNight:
		return b.NightTotal
	default:
		return b.Total()
	}
}

// SeriesPoint is one committed entry of an append-only statistics series.
// State is the consumption for that hour; CumulativeSum is the running total
// since series inception. Points are never mutated once committed.
type SeriesPoint struct {
	Start         time.Time `json:"start"`
	State         float64   `json:"state"`
	CumulativeSum float64   `json:"cumulative_sum"`
}

// ConsumptionSummary is the most recent closed-hour reading produced by an
// update cycle, surfaced to the HTTP layer.
type ConsumptionSummary struct {
	Day       float64   `json:"day"`
	Night     float64   `json:"night"`
	Total     float64   `json:"total"`
	HourStart time.Time `json:"hour_start"`
	HourEnd   time.Time `json:"hour_end"`
	FetchedAt time.Time `json:"fetched_at"`
}

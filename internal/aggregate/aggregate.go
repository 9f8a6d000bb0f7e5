// Package aggregate buckets raw portal readings into hour-aligned day/night
// consumption totals.
package aggregate

import (
	"sort"
	"time"

	"github.com/lcrivelli/energybuddy/internal/models"
)

// Aggregator folds raw interval readings into hourly buckets.
//
// The portal pre-splits each reading into day/night tariff fields, so the
// default mode accumulates those fields directly. ClassifyByHour instead
// assigns the whole reading to the day or night accumulator based on the
// bucket's own hour, using the embedded tariff window.
type Aggregator struct {
	models.TariffWindow
	ClassifyByHour bool
}

// New returns an aggregator with the default [0,7) night boundary.
func New() *Aggregator {
	return &Aggregator{TariffWindow: models.DefaultTariffWindow}
}

// Aggregate buckets readings by the hour containing their interval start.
// Readings with no samples, or still pending, are skipped. Input order does
// not matter; readings are sorted by interval start first. A partial leading
// interval still lands in its bucket; the completeness filter excludes it
// later.
func (a *Aggregator) Aggregate(readings []models.RawReading) map[time.Time]*models.HourlyBucket {
	sorted := make([]models.RawReading, len(readings))
	copy(sorted, readings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].IntervalStart.Before(sorted[j].IntervalStart)
	})

	buckets := make(map[time.Time]*models.HourlyBucket)
	for _, r := range sorted {
		if r.SampleCount <= 0 || r.Pending {
			continue
		}

		hourKey := r.IntervalStart.Truncate(time.Hour)
		b, ok := buckets[hourKey]
		if !ok {
			b = &models.HourlyBucket{HourStart: hourKey}
			buckets[hourKey] = b
		}

		if a.ClassifyByHour {
			if a.IsNight(hourKey.Hour()) {
				b.NightTotal += r.Day + r.Night
			} else {
				b.DayTotal += r.Day + r.Night
			}
		} else {
			b.DayTotal += r.Day
			b.NightTotal += r.Night
		}
		b.SampleCount += r.SampleCount
	}
	return buckets
}

// Complete filters out buckets without full hourly coverage, including the
// in-progress current hour.
func Complete(buckets map[time.Time]*models.HourlyBucket) map[time.Time]*models.HourlyBucket {
	out := make(map[time.Time]*models.HourlyBucket, len(buckets))
	for k, b := range buckets {
		if b.Complete() {
			out[k] = b
		}
	}
	return out
}

// Latest returns the bucket with the most recent hour start, or nil when the
// map is empty.
func Latest(buckets map[time.Time]*models.HourlyBucket) *models.HourlyBucket {
	var latest *models.HourlyBucket
	for _, b := range buckets {
		if latest == nil || b.HourStart.After(latest.HourStart) {
			latest = b
		}
	}
	return latest
}

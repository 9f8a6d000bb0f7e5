// Package stats appends hourly consumption buckets onto append-only
// cumulative statistics series.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/lcrivelli/energybuddy/internal/models"
)

// Store is the persistence the merger needs: read the newest committed point
// of a series and append a validated batch atomically.
type Store interface {
	LastPoint(seriesID string) (*models.SeriesPoint, error)
	Append(seriesID string, points []models.SeriesPoint) error
}

// Merge appends every bucket strictly after the series watermark as a new
// point whose cumulative sum continues the existing series. It returns the
// number of points committed. Re-running with the same buckets after a
// successful commit is a no-op: equal-to-watermark hours are already
// committed and skipped.
//
// Each series keeps its own watermark and running sum, so a gap in one
// series never affects another.
func Merge(store Store, kind models.SeriesKind, buckets map[time.Time]*models.HourlyBucket) (int, error) {
	seriesID := kind.SeriesID()

	last, err := store.LastPoint(seriesID)
	if err != nil {
		return 0, fmt.Errorf("last point %s: %w", seriesID, err)
	}

	var (
		runningSum float64
		watermark  time.Time
		hasMark    bool
	)
	if last != nil {
		runningSum = last.CumulativeSum
		watermark = last.Start
		hasMark = true
	}

	hours := make([]time.Time, 0, len(buckets))
	for h := range buckets {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	var points []models.SeriesPoint
	for _, h := range hours {
		if hasMark && !h.After(watermark) {
			continue
		}
		value := buckets[h].Value(kind)
		runningSum += value
		points = append(points, models.SeriesPoint{
			Start:         h,
			State:         value,
			CumulativeSum: runningSum,
		})
	}

	if len(points) == 0 {
		return 0, nil
	}
	if err := store.Append(seriesID, points); err != nil {
		return 0, fmt.Errorf("append %s: %w", seriesID, err)
	}
	return len(points), nil
}

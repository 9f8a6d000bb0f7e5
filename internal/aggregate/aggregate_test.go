package aggregate

import (
	"testing"
	"time"

	"github.com/lcrivelli/energybuddy/internal/models"
)

func hour(h int) time.Time {
	return time.Date(2025, 3, 10, h, 0, 0, 0, time.UTC)
}

func quarterReadings(h int, day, night float64) []models.RawReading {
	var readings []models.RawReading
	for q := 0; q < 4; q++ {
		start := hour(h).Add(time.Duration(q) * 15 * time.Minute)
		readings = append(readings, models.RawReading{
			Day:           day,
			Night:         night,
			IntervalStart: start,
			IntervalEnd:   start.Add(15 * time.Minute),
			SampleCount:   1,
		})
	}
	return readings
}

func TestAggregateFullHour(t *testing.T) {
	agg := New()

	buckets := agg.Aggregate(quarterReadings(10, 0.5, 0))
	if len(buckets) != 1 {
		t.Fatalf("len(buckets) = %d, want 1", len(buckets))
	}

	b, ok := buckets[hour(10)]
	if !ok {
		t.Fatal("missing bucket for 10:00")
	}
	if b.DayTotal != 2.0 {
		t.Errorf("DayTotal = %v, want 2.0", b.DayTotal)
	}
	if b.SampleCount != 4 {
		t.Errorf("SampleCount = %d, want 4", b.SampleCount)
	}
	if !b.Complete() {
		t.Error("bucket with 4 samples should be complete")
	}
	if b.HourEnd() != hour(11) {
		t.Errorf("HourEnd = %v, want %v", b.HourEnd(), hour(11))
	}
}

func TestAggregateSkipsPendingAndZeroSamples(t *testing.T) {
	agg := New()

	readings := []models.RawReading{
		{Day: 1.0, IntervalStart: hour(10), SampleCount: 0},
		{Day: 1.0, IntervalStart: hour(10).Add(15 * time.Minute), SampleCount: 1, Pending: true},
		{Day: 0.5, IntervalStart: hour(10).Add(30 * time.Minute), SampleCount: 1},
	}

	buckets := agg.Aggregate(readings)
	b := buckets[hour(10)]
	if b == nil {
		t.Fatal("missing bucket for 10:00")
	}
	if b.DayTotal != 0.5 {
		t.Errorf("DayTotal = %v, want 0.5", b.DayTotal)
	}
	if b.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want 1", b.SampleCount)
	}
}

func TestAggregateUnsortedInput(t *testing.T) {
	agg := New()

	readings := quarterReadings(10, 0.5, 0)
	// Reverse arrival order.
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}

	buckets := agg.Aggregate(readings)
	if b := buckets[hour(10)]; b == nil || b.DayTotal != 2.0 || b.SampleCount != 4 {
		t.Fatalf("bucket = %+v, want DayTotal 2.0 with 4 samples", b)
	}
}

func TestCompleteFiltersShortBuckets(t *testing.T) {
	agg := New()

	readings := quarterReadings(10, 0.5, 0)
	readings = append(readings, quarterReadings(11, 0.5, 0)[:3]...) // only 3 samples at 11:00

	buckets := Complete(agg.Aggregate(readings))
	if len(buckets) != 1 {
		t.Fatalf("len(buckets) = %d, want 1", len(buckets))
	}
	if _, ok := buckets[hour(11)]; ok {
		t.Error("bucket with 3 samples must be dropped")
	}
	if _, ok := buckets[hour(10)]; !ok {
		t.Error("bucket with 4 samples must survive")
	}
}

func TestAggregatePartialLeadingInterval(t *testing.T) {
	agg := New()

	// First interval starts mid-hour; its bucket ends up incomplete and the
	// completeness filter drops it. No head trimming.
	readings := []models.RawReading{
		{Day: 0.3, IntervalStart: hour(9).Add(45 * time.Minute), SampleCount: 1},
	}
	readings = append(readings, quarterReadings(10, 0.5, 0)...)

	buckets := Complete(agg.Aggregate(readings))
	if _, ok := buckets[hour(9)]; ok {
		t.Error("partial leading bucket must be filtered, not special-cased")
	}
	if _, ok := buckets[hour(10)]; !ok {
		t.Error("full bucket after partial head must survive")
	}
}

func TestAggregatePreSplitPartition(t *testing.T) {
	agg := New()

	buckets := agg.Aggregate(quarterReadings(10, 0.5, 0.25))
	b := buckets[hour(10)]
	if b.DayTotal != 2.0 || b.NightTotal != 1.0 {
		t.Fatalf("bucket = %+v, want day 2.0 night 1.0", b)
	}
	if b.Total() != b.DayTotal+b.NightTotal {
		t.Errorf("Total = %v, want %v", b.Total(), b.DayTotal+b.NightTotal)
	}
}

func TestAggregateClassifyByHour(t *testing.T) {
	agg := &Aggregator{TariffWindow: models.DefaultTariffWindow, ClassifyByHour: true}

	readings := append(quarterReadings(3, 0.25, 0.5), quarterReadings(10, 0.5, 0.25)...)
	buckets := agg.Aggregate(readings)

	night := buckets[hour(3)]
	if night.NightTotal != 3.0 || night.DayTotal != 0 {
		t.Errorf("03:00 bucket = %+v, want everything in night", night)
	}
	day := buckets[hour(10)]
	if day.DayTotal != 3.0 || day.NightTotal != 0 {
		t.Errorf("10:00 bucket = %+v, want everything in day", day)
	}
}

func TestIsNightBoundary(t *testing.T) {
	tests := []struct {
		hour int
		want bool
	}{
		{0, true},
		{6, true},
		{7, false},
		{12, false},
		{23, false},
	}
	agg := New()
	for _, tt := range tests {
		if got := agg.IsNight(tt.hour); got != tt.want {
			t.Errorf("IsNight(%d) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestLatest(t *testing.T) {
	agg := New()
	readings := append(quarterReadings(10, 0.5, 0), quarterReadings(11, 0.25, 0)...)
	buckets := agg.Aggregate(readings)

	latest := Latest(buckets)
	if latest == nil || !latest.HourStart.Equal(hour(11)) {
		t.Fatalf("Latest = %+v, want hour 11", latest)
	}
	if Latest(nil) != nil {
		t.Error("Latest(nil) should be nil")
	}
}

package models

import (
	"testing"
	"time"
)

func TestBucketValue(t *testing.T) {
	b := &HourlyBucket{DayTotal: 1.5, NightTotal: 0.5}

	tests := []struct {
		kind SeriesKind
		want float64
	}{
		{SeriesDay, 1.5},
		{SeriesNight, 0.5},
		{SeriesTotal, 2.0},
	}
	for _, tt := range tests {
		if got := b.Value(tt.kind); got != tt.want {
			t.Errorf("Value(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestBucketComplete(t *testing.T) {
	if (&HourlyBucket{SampleCount: 3}).Complete() {
		t.Error("3 samples should not be complete")
	}
	if !(&HourlyBucket{SampleCount: 4}).Complete() {
		t.Error("4 samples should be complete")
	}
}

func TestSeriesIDs(t *testing.T) {
	want := map[SeriesKind]string{
		SeriesDay:   "energybuddy:energy_day_consumption",
		SeriesNight: "energybuddy:energy_night_consumption",
		SeriesTotal: "energybuddy:energy_total_consumption",
	}
	for kind, id := range want {
		if got := kind.SeriesID(); got != id {
			t.Errorf("SeriesID(%s) = %q, want %q", kind, got, id)
		}
	}
}

func TestTariffWindowIsNight(t *testing.T) {
	tests := []struct {
		name   string
		window TariffWindow
		hour   int
		want   bool
	}{
		{"default midnight", DefaultTariffWindow, 0, true},
		{"default last night hour", DefaultTariffWindow, 6, true},
		{"default day boundary", DefaultTariffWindow, 7, false},
		{"default noon", DefaultTariffWindow, 12, false},
		{"wrapping before start", TariffWindow{DayStartHour: 6, NightStartHour: 22}, 21, false},
		{"wrapping at start", TariffWindow{DayStartHour: 6, NightStartHour: 22}, 22, true},
		{"wrapping past midnight", TariffWindow{DayStartHour: 6, NightStartHour: 22}, 5, true},
		{"wrapping day boundary", TariffWindow{DayStartHour: 6, NightStartHour: 22}, 6, false},
	}
	for _, tt := range tests {
		if got := tt.window.IsNight(tt.hour); got != tt.want {
			t.Errorf("%s: IsNight(%d) = %v, want %v", tt.name, tt.hour, got, tt.want)
		}
	}
}

func TestHourEnd(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	b := &HourlyBucket{HourStart: start}
	if !b.HourEnd().Equal(start.Add(time.Hour)) {
		t.Errorf("HourEnd = %v", b.HourEnd())
	}
}

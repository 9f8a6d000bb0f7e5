package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PortalCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energybuddy_portal_calls_total",
			Help: "Total EnergyBuddy portal API calls",
		},
		[]string{"endpoint", "status"},
	)

	PortalCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "energybuddy_portal_call_latency_seconds",
			Help:    "Portal API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energybuddy_update_cycles_total",
			Help: "Update cycles by outcome",
		},
		[]string{"outcome"},
	)

	PointsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energybuddy_points_committed_total",
			Help: "Statistic points committed per series",
		},
		[]string{"series"},
	)

	BackfillChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energybuddy_backfill_chunks_total",
			Help: "Backfill chunks by result",
		},
		[]string{"status"},
	)
)

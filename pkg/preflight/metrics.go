package preflight

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Preflight run metrics
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "preflight_run_duration_seconds",
			Help:    "Duration of a complete preflight run in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	runTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preflight_run_total",
			Help: "Total number of preflight runs",
		},
		[]string{"state"}, // passed or failed
	)

	checkTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preflight_check_total",
			Help: "Total number of executed preflight checks",
		},
		[]string{"check", "status"},
	)
)

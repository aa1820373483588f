// Package observability exposes Prometheus metrics for the selection
// engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gesturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonepicker_gestures_total",
			Help: "Completed pointer gestures by drag mode and kind.",
		},
		[]string{"mode", "kind"},
	)

	zonesToggledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zonepicker_zones_toggled_total",
			Help: "Zone selection flags flipped by clicks, drags and API calls.",
		},
	)

	containmentTestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonepicker_containment_tests_total",
			Help: "Containment/intersection tests by drag mode and result.",
		},
		[]string{"mode", "result"},
	)

	geometryFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonepicker_geometry_fallbacks_total",
			Help: "Degenerate-geometry faults absorbed by the fallback chain.",
		},
		[]string{"stage"},
	)

	hitTestDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zonepicker_hit_test_duration_seconds",
			Help:    "Duration of pointer hit tests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.000005, 4, 10), // 5µs to ~1.3s
		},
	)

	selectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "zonepicker_selection_size",
			Help: "Number of currently selected zones across all categories.",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zonepicker_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveGesture(mode, kind string) {
	gesturesTotal.WithLabelValues(mode, kind).Inc()
}

func IncZonesToggled(n int) {
	zonesToggledTotal.Add(float64(n))
}

func ObserveContainment(mode string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	containmentTestsTotal.WithLabelValues(mode, result).Inc()
}

func IncGeometryFallback(stage string) {
	geometryFallbacksTotal.WithLabelValues(stage).Inc()
}

func ObserveHitTest(durationSeconds float64) {
	hitTestDurationSeconds.Observe(durationSeconds)
}

func SetSelectionSize(n int) {
	selectionSize.Set(float64(n))
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}

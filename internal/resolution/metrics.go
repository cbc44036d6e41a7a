package resolution

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolutionsTotal counts Resolve calls.
	// Labels: medium, outcome (ok, partial, not_found, timeout, canceled, invalid, misconfigured)
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagscout",
		Subsystem: "resolution",
		Name:      "requests_total",
		Help:      "Resolve calls by medium and outcome",
	}, []string{"medium", "outcome"})

	resolutionRounds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tagscout",
		Subsystem: "resolution",
		Name:      "rounds",
		Help:      "Synonym round-robin rounds used per request",
		Buckets:   []float64{0, 1, 2, 3, 4, 5},
	}, []string{"medium"})

	resolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tagscout",
		Subsystem: "resolution",
		Name:      "duration_seconds",
		Help:      "Wall time of Resolve calls",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"medium"})

	overrideHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagscout",
		Subsystem: "resolution",
		Name:      "override_hits_total",
		Help:      "Requests answered from the override catalog",
	}, []string{"medium"})
)

func recordResolution(medium, outcome string, rounds int, elapsed time.Duration) {
	resolutionsTotal.WithLabelValues(medium, outcome).Inc()
	resolutionRounds.WithLabelValues(medium).Observe(float64(rounds))
	resolutionDuration.WithLabelValues(medium).Observe(elapsed.Seconds())
}

package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// providerRequestsTotal counts HTTP calls by provider and outcome.
	// Labels: provider, outcome (ok, not_found, unavailable, timeout, canceled, error)
	providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagscout",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Provider HTTP calls by provider and outcome",
	}, []string{"provider", "outcome"})

	providerRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagscout",
		Subsystem: "provider",
		Name:      "retries_total",
		Help:      "Provider HTTP calls retried after a transport error",
	}, []string{"provider"})

	providerLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tagscout",
		Subsystem: "provider",
		Name:      "latency_seconds",
		Help:      "Provider HTTP call latency including the retry",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider"})
)

// RecordCall records the outcome and latency of one provider call.
func RecordCall(provider, outcome string, latency time.Duration) {
	providerRequestsTotal.WithLabelValues(provider, outcome).Inc()
	providerLatencySeconds.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordRetry records a retried provider call.
func RecordRetry(provider string) {
	providerRetriesTotal.WithLabelValues(provider).Inc()
}

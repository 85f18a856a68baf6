package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for frndr_match_requests_total.
const (
	outcomeOK       = "ok"
	outcomeEmpty    = "empty"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

type matchMetrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	results  prometheus.Histogram
}

func newMatchMetrics(reg prometheus.Registerer) *matchMetrics {
	f := promauto.With(reg)
	return &matchMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "frndr_match_requests_total",
			Help: "Match requests by outcome.",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "frndr_match_duration_seconds",
			Help:    "Time spent producing a match list.",
			Buckets: prometheus.DefBuckets,
		}),
		results: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "frndr_match_results",
			Help:    "Number of matches returned per request.",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		}),
	}
}

func (m *matchMetrics) observe(outcome string, started time.Time, results int) {
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(started).Seconds())
	if outcome == outcomeOK || outcome == outcomeEmpty {
		m.results.Observe(float64(results))
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamAttempts *prometheus.CounterVec
	fetchResults     *prometheus.CounterVec
	holdingsSkipped  prometheus.Counter
	holdingsReturned prometheus.Histogram
	latency          *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		upstreamAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfscraper_upstream_attempts_total",
				Help: "Upstream fund-details requests by query variant and outcome",
			},
			[]string{"query", "outcome"},
		),
		fetchResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfscraper_fetch_results_total",
				Help: "Holdings fetches by result status and error kind",
			},
			[]string{"status", "error"},
		),
		holdingsSkipped: f.NewCounter(
			prometheus.CounterOpts{
				Name: "etfscraper_holdings_skipped_total",
				Help: "Upstream holding entries dropped during normalization",
			},
		),
		holdingsReturned: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "etfscraper_holdings_returned",
				Help:    "Number of holdings returned per successful fetch",
				Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000, 5000},
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etfscraper_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}
}

// RecordUpstreamAttempt counts one upstream request.
func (r *Recorder) RecordUpstreamAttempt(query, outcome string) {
	r.upstreamAttempts.WithLabelValues(query, outcome).Inc()
}

// RecordFetchResult counts a finished fetch. kind is empty on success.
func (r *Recorder) RecordFetchResult(status, kind string, holdings int) {
	r.fetchResults.WithLabelValues(status, kind).Inc()
	if kind == "" {
		r.holdingsReturned.Observe(float64(holdings))
	}
}

// RecordHoldingsSkipped adds n dropped entries.
func (r *Recorder) RecordHoldingsSkipped(n int) {
	if n > 0 {
		r.holdingsSkipped.Add(float64(n))
	}
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

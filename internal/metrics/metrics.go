package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studia_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studia_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	GenerationAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studia_generation_attempts_total",
			Help: "Artifact generation attempts by artifact and outcome.",
		},
		[]string{"artifact", "outcome"},
	)

	IngestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studia_ingestions_total",
			Help: "Completed ingestions by outcome.",
		},
		[]string{"outcome"},
	)

	IngestionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "studia_ingestion_duration_seconds",
			Help:    "End-to-end ingestion latency.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 120, 300},
		},
	)

	CreditsDebitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studia_credits_debited_total",
			Help: "Credits debited through the usage ledger.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		GenerationAttemptsTotal,
		IngestionsTotal,
		IngestionDuration,
		CreditsDebitedTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

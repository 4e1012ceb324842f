package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_predictor_http_requests_total",
			Help: "Total HTTP requests processed, labeled by status code",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_predictor_http_request_duration_seconds",
			Help:    "Latency distribution of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_predictor_predictions_total",
			Help: "Total predictions served, labeled by predicted label",
		},
		[]string{"label"},
	)

	PredictionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_predictor_prediction_failures_total",
			Help: "Total failed predictions, labeled by error code",
		},
		[]string{"error_code"},
	)

	PredictionConfidence = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_predictor_prediction_confidence_pct",
			Help:    "Confidence of served predictions in percent",
			Buckets: []float64{50, 60, 70, 80, 90, 95, 99, 100},
		},
		[]string{"label"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_predictor_cache_lookups_total",
			Help: "Outcome cache lookups, labeled hit or miss",
		},
		[]string{"result"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_predictor_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

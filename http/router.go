package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loan-predictor/logger"
)

// RouterDeps are the collaborators the HTTP surface needs. Limiter may be nil
// to disable rate limiting.
type RouterDeps struct {
	Predictor Predictor
	Model     ModelInfo
	Limiter   *RateLimiter
	Log       logger.Logger
}

func NewRouter(deps RouterDeps) *mux.Router {
	predictions := NewPredictionHandler(deps.Predictor, deps.Model, deps.Log)
	form := NewFormHandler(deps.Predictor, deps.Model, deps.Log)

	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, MetricsMiddleware(deps.Log))

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/", form.Index).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/model", predictions.GetModel).Methods(http.MethodGet)

	predict := r.NewRoute().Subrouter()
	if deps.Limiter != nil {
		predict.Use(RateLimitMiddleware(deps.Limiter, deps.Log))
	}
	predict.HandleFunc("/predict", form.Predict).Methods(http.MethodPost)
	predict.HandleFunc("/api/v1/predictions", predictions.CreatePrediction).Methods(http.MethodPost)

	return r
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"loan-predictor/apperrors"
	"loan-predictor/domain"
	"loan-predictor/logger"
	"loan-predictor/metrics"
	"loan-predictor/observability"
	"loan-predictor/repository"
)

var tracer = otel.Tracer("loan-predictor/service")

// Classifier is a loaded, read-only binary classifier.
//
//go:generate mockgen -destination=mocks/mock_classifier.go -package=mocks -source=predictor_service.go Classifier
type Classifier interface {
	// Predict returns the raw class value for the row.
	Predict(row domain.Row) (int, error)
	// PredictProba returns per-class probabilities ordered like Classes.
	PredictProba(row domain.Row) ([]float64, error)
	Classes() []int
}

type PredictorService struct {
	classifier Classifier
	labels     domain.LabelMapping
	classIndex map[int]int
	log        logger.Logger

	cache          repository.CacheRepository
	cacheNamespace string
	cacheTTL       time.Duration

	obs *observability.Observability
}

type Option func(*PredictorService)

// WithCache memoizes outcomes. namespace must change whenever the model does,
// typically the artifact checksum.
func WithCache(cache repository.CacheRepository, namespace string, ttl time.Duration) Option {
	return func(s *PredictorService) {
		s.cache = cache
		s.cacheNamespace = namespace
		s.cacheTTL = ttl
	}
}

func WithObservability(obs *observability.Observability) Option {
	return func(s *PredictorService) {
		s.obs = obs
	}
}

// NewPredictorService wires a classifier to the label mapping. The classifier
// must expose both mapped classes.
func NewPredictorService(
	classifier Classifier,
	labels domain.LabelMapping,
	log logger.Logger,
	opts ...Option,
) (*PredictorService, error) {
	classIndex := make(map[int]int)
	for i, c := range classifier.Classes() {
		classIndex[c] = i
	}
	for _, c := range []int{labels.Good, labels.Bad} {
		if _, ok := classIndex[c]; !ok {
			return nil, apperrors.NewModelUnavailableError("classifier",
				fmt.Errorf("class %d from the label mapping is not among model classes %v", c, classifier.Classes()))
		}
	}

	s := &PredictorService{
		classifier: classifier,
		labels:     labels,
		classIndex: classIndex,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Predict classifies one application. Confidence is the probability of the
// class actually predicted, in percent.
func (s *PredictorService) Predict(
	ctx context.Context,
	app domain.LoanApplication,
) (domain.PredictionOutcome, error) {
	ctx, span := tracer.Start(ctx, "PredictorService.Predict")
	defer span.End()

	start := time.Now()
	row := app.Row()

	var key string
	if s.cache != nil {
		key = s.cacheKey(row)
		if outcome, ok := s.lookup(ctx, key); ok {
			s.record(ctx, span, outcome, true, start)
			return outcome, nil
		}
	}

	outcome, err := s.classify(row)
	if err != nil {
		stdErr := apperrors.From(err)
		span.RecordError(stdErr)
		span.SetStatus(codes.Error, string(stdErr.Code))
		metrics.PredictionFailures.WithLabelValues(string(stdErr.Code)).Inc()
		s.obs.RecordPrediction(ctx, string(stdErr.Code), false, time.Since(start))
		s.log.Error("prediction failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
		return domain.PredictionOutcome{}, stdErr
	}

	// Cache writes are not critical.
	if s.cache != nil {
		s.store(ctx, key, outcome)
	}

	s.record(ctx, span, outcome, false, start)
	return outcome, nil
}

func (s *PredictorService) classify(row domain.Row) (domain.PredictionOutcome, error) {
	class, err := s.classifier.Predict(row)
	if err != nil {
		return domain.PredictionOutcome{}, err
	}
	proba, err := s.classifier.PredictProba(row)
	if err != nil {
		return domain.PredictionOutcome{}, err
	}

	label, ok := s.labels.LabelFor(class)
	if !ok {
		return domain.PredictionOutcome{}, apperrors.NewSchemaMismatchError(
			fmt.Sprintf("model returned class %d outside the label mapping", class))
	}
	idx := s.classIndex[class]
	if idx >= len(proba) {
		return domain.PredictionOutcome{}, apperrors.NewSchemaMismatchError(
			fmt.Sprintf("model returned %d probabilities for %d classes", len(proba), len(s.classIndex)))
	}

	return domain.PredictionOutcome{
		Label:         label,
		ConfidencePct: clampPct(proba[idx] * 100),
	}, nil
}

func (s *PredictorService) record(ctx context.Context, span trace.Span, outcome domain.PredictionOutcome, cached bool, start time.Time) {
	span.SetAttributes(
		attribute.String("prediction.label", string(outcome.Label)),
		attribute.Float64("prediction.confidence_pct", outcome.ConfidencePct),
		attribute.Bool("prediction.cached", cached),
	)
	metrics.PredictionsTotal.WithLabelValues(string(outcome.Label)).Inc()
	metrics.PredictionConfidence.WithLabelValues(string(outcome.Label)).Observe(outcome.ConfidencePct)
	s.obs.RecordPrediction(ctx, string(outcome.Label), cached, time.Since(start))

	s.log.Debug("prediction served", map[string]interface{}{
		"label":         outcome.Label,
		"confidencePct": outcome.ConfidencePct,
		"cached":        cached,
	})
}

func (s *PredictorService) cacheKey(row domain.Row) string {
	pairs := make([][2]interface{}, len(row))
	for i, c := range row {
		pairs[i] = [2]interface{}{c.Name, c.Value}
	}
	// Row values are plain numbers and strings; Marshal cannot fail on them.
	data, _ := json.Marshal(pairs)
	sum := sha256.Sum256(data)
	return "prediction:" + s.cacheNamespace + ":" + hex.EncodeToString(sum[:])
}

func (s *PredictorService) lookup(ctx context.Context, key string) (domain.PredictionOutcome, bool) {
	val, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("outcome cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	if err != nil || !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return domain.PredictionOutcome{}, false
	}

	var outcome domain.PredictionOutcome
	if err := json.Unmarshal([]byte(val), &outcome); err != nil {
		s.log.Warn("discarding undecodable cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return domain.PredictionOutcome{}, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return outcome, true
}

func (s *PredictorService) store(ctx context.Context, key string, outcome domain.PredictionOutcome) {
	data, err := json.Marshal(outcome)
	if err == nil {
		err = s.cache.Set(ctx, key, string(data), s.cacheTTL)
	}
	if err != nil {
		s.log.Warn("outcome cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

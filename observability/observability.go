package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"loan-predictor/logger"
)

// Observability records prediction-level metrics through OpenTelemetry. The
// exporter registers with the default Prometheus registry, so the series show
// up on /metrics next to the HTTP metrics. A nil *Observability is valid and
// records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	predictions   otelmetric.Int64Counter
	duration      otelmetric.Float64Histogram
}

func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter, prediction metrics disabled",
			map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	predictions, _ := meter.Int64Counter(
		"predictions.served",
		otelmetric.WithDescription("Number of predictions by outcome"),
	)

	duration, _ := meter.Float64Histogram(
		"predictions.duration",
		otelmetric.WithDescription("Prediction duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		predictions:   predictions,
		duration:      duration,
	}
}

// RecordPrediction records one prediction. outcome is the label or an error code.
func (o *Observability) RecordPrediction(ctx context.Context, outcome string, cached bool, elapsed time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("cached", cached),
	)
	if o.predictions != nil {
		o.predictions.Add(ctx, 1, attrs)
	}
	if o.duration != nil {
		o.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}

// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability exposes OpenTelemetry instruments through the Prometheus registry
// and a tracer whose ids tag generation logs. A zero value is usable and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	meter          otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	generations   otelmetric.Int64Counter
	scripts       otelmetric.Int64Histogram
}

// New registers the exporter with the default Prometheus registerer.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}
	return newWithReader(serviceName, exporter)
}

func newWithReader(serviceName string, reader metric.Reader, spans ...sdktrace.SpanProcessor) (*Observability, error) {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)

	tp := newTracerProvider(spans)
	otel.SetTracerProvider(tp)

	meter := provider.Meter(serviceName)
	o := &Observability{
		meterProvider:  provider,
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
		meter:          meter,
	}

	var err error
	if o.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		return o, err
	}
	if o.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return o, err
	}
	if o.generations, err = meter.Int64Counter(
		"scripts.generations",
		otelmetric.WithDescription("Generation requests by outcome"),
	); err != nil {
		return o, err
	}
	if o.scripts, err = meter.Int64Histogram(
		"scripts.per_generation",
		otelmetric.WithDescription("Scripts rendered per generation"),
	); err != nil {
		return o, err
	}
	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// RecordGeneration counts one generation and the number of scripts it produced.
func (o *Observability) RecordGeneration(ctx context.Context, source, outcome string, scripts int) {
	if o == nil || o.generations == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	)
	o.generations.Add(ctx, 1, attrs)
	o.scripts.Record(ctx, int64(scripts), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	return o.meterProvider.Shutdown(ctx)
}

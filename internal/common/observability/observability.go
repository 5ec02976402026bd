package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability owns the otel meter and tracer providers for the process.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	opCounter      otelmetric.Int64Counter
	opDuration     otelmetric.Float64Histogram
}

type options struct {
	registerer  promclient.Registerer
	sampleRatio float64
	processors  []sdktrace.SpanProcessor
	tracing     bool
}

// Option customizes New.
type Option func(*options)

// WithRegisterer sets where the prometheus exporter registers its collector.
func WithRegisterer(r promclient.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithTracing enables the sdk tracer provider with the given sample ratio.
func WithTracing(sampleRatio float64) Option {
	return func(o *options) {
		o.tracing = true
		o.sampleRatio = sampleRatio
	}
}

// WithSpanProcessor attaches a span processor (exporter or test recorder).
// Implies tracing.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.tracing = true
		o.processors = append(o.processors, p)
	}
}

// New builds the providers. Exporter failures degrade to no metrics rather
// than failing startup.
func New(serviceName string, opts ...Option) (*Observability, error) {
	o := options{registerer: promclient.DefaultRegisterer, sampleRatio: 1}
	for _, opt := range opts {
		opt(&o)
	}

	obs := &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName)}

	exporter, err := prometheus.New(prometheus.WithRegisterer(o.registerer))
	if err != nil {
		return obs, err
	}

	obs.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(obs.meterProvider)

	meter := obs.meterProvider.Meter(serviceName)

	obs.opCounter, _ = meter.Int64Counter(
		"loan_operations",
		otelmetric.WithDescription("Number of loan application operations"),
	)

	obs.opDuration, _ = meter.Float64Histogram(
		"loan_operations_duration",
		otelmetric.WithDescription("Loan application operation duration"),
		otelmetric.WithUnit("ms"),
	)

	if o.tracing {
		tpOpts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.sampleRatio))),
		}
		for _, p := range o.processors {
			tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
		}
		obs.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
		otel.SetTracerProvider(obs.tracerProvider)
		obs.tracer = obs.tracerProvider.Tracer(serviceName)
	}

	return obs, nil
}

// Nop returns an Observability that records nothing.
func Nop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer("nop")}
}

// StartSpan opens a span named after the operation.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records the outcome on span and closes it.
func EndSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("loan.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *Observability) RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	if o.opCounter != nil {
		o.opCounter.Add(ctx, 1, attrs)
	}
	if o.opDuration != nil {
		o.opDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Package telemetry records compile and refresh metrics and spans through the
// OpenTelemetry API.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jacoelho/dictionary"

// Attribute keys.
var (
	AttrTenant = attribute.Key("dictionary.tenant")
	AttrModel  = attribute.Key("dictionary.model")
	AttrResult = attribute.Key("dictionary.result")
)

// Metrics records dictionary activity. The zero value is not usable; a nil
// *Metrics records nothing.
type Metrics struct {
	tracer    trace.Tracer
	compiles  metric.Int64Counter
	failures  metric.Int64Counter
	duration  metric.Float64Histogram
	refreshes metric.Int64Counter
}

// New creates the instruments. Nil providers fall back to the global ones.
func New(mp metric.MeterProvider, tp trace.TracerProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	meter := mp.Meter(instrumentationName)
	m := &Metrics{tracer: tp.Tracer(instrumentationName)}

	var err error
	m.compiles, err = meter.Int64Counter("dictionary.compile.total",
		metric.WithDescription("Number of model compilations"),
		metric.WithUnit("{compilation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create compile counter: %w", err)
	}
	m.failures, err = meter.Int64Counter("dictionary.compile.failures",
		metric.WithDescription("Number of failed model compilations"),
		metric.WithUnit("{compilation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create failure counter: %w", err)
	}
	m.duration, err = meter.Float64Histogram("dictionary.compile.duration",
		metric.WithDescription("Model compilation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	m.refreshes, err = meter.Int64Counter("dictionary.registry.refresh.total",
		metric.WithDescription("Number of tenant registry rebuilds"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create refresh counter: %w", err)
	}
	return m, nil
}

// StartCompile opens a span for compiling model and returns a function that
// records the outcome.
func (m *Metrics) StartCompile(ctx context.Context, tenant, model string) (context.Context, func(error)) {
	if m == nil {
		return ctx, func(error) {}
	}
	attrs := []attribute.KeyValue{AttrTenant.String(tenant), AttrModel.String(model)}
	ctx, span := m.tracer.Start(ctx, "dictionary.compile", trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error) {
		m.compiles.Add(ctx, 1, metric.WithAttributes(attrs...))
		m.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
		if err != nil {
			m.failures.Add(ctx, 1, metric.WithAttributes(attrs...))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// StartRefresh opens a span for rebuilding tenant's registry.
func (m *Metrics) StartRefresh(ctx context.Context, tenant string) (context.Context, func(error)) {
	if m == nil {
		return ctx, func(error) {}
	}
	ctx, span := m.tracer.Start(ctx, "dictionary.registry.refresh",
		trace.WithAttributes(AttrTenant.String(tenant)))
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		m.refreshes.Add(ctx, 1, metric.WithAttributes(AttrTenant.String(tenant), AttrResult.String(result)))
		span.End()
	}
}

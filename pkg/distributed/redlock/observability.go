package redlock

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

const (
	instrumentationName = "github.com/redquorum/redquorum/pkg/distributed/redlock"

	metricAttemptsTotal  = "redlock.attempts"
	metricAcquireSeconds = "redlock.acquire.duration"

	attrKeyResource  = "resource"
	attrKeyOperation = "operation"
	attrKeyOutcome   = "outcome"
)

var defaultAcquireBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// observer instruments Coordinator.Lock and Coordinator.Unlock calls with
// an OTel span plus a counter/histogram pair, so a caller wiring in a
// real MeterProvider / TracerProvider gets per-operation, per-outcome
// metrics for free. The resource name is a span attribute only; it is not
// a metric attribute. Coordinators use the global providers
// (otel.GetTracerProvider/otel.GetMeterProvider) unless WithTracerProvider
// or WithMeterProvider supplies explicit ones.
type observer struct {
	tracer   trace.Tracer
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

func newObserver(tp trace.TracerProvider, mp metric.MeterProvider) (*observer, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	attempts, err := meter.Int64Counter(metricAttemptsTotal,
		metric.WithDescription("lock/unlock calls completed by the coordinator (an extend is a lock call)"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, fmt.Errorf("redlock: create attempts counter: %w", err)
	}
	duration, err := meter.Float64Histogram(metricAcquireSeconds,
		metric.WithDescription("wall time of a whole lock/unlock call, including every retry"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(defaultAcquireBuckets...))
	if err != nil {
		return nil, fmt.Errorf("redlock: create duration histogram: %w", err)
	}

	return &observer{
		tracer:   tp.Tracer(instrumentationName),
		attempts: attempts,
		duration: duration,
	}, nil
}

// span wraps one instrumented operation. end is idempotent so it is safe
// to call from both a defer and an explicit success path.
type obsSpan struct {
	o         *observer
	span      trace.Span
	start     time.Time
	resource  string
	operation string
	ended     bool
}

func (o *observer) start(ctx context.Context, operation, resource string) (context.Context, *obsSpan) {
	if o == nil {
		return ctx, nil
	}
	ctx, span := o.tracer.Start(ctx, "redlock."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrKeyOperation, operation),
			attribute.String(attrKeyResource, resource),
		))
	return ctx, &obsSpan{o: o, span: span, start: time.Now(), resource: resource, operation: operation}
}

func (s *obsSpan) end(err error) {
	if s == nil || s.ended {
		return
	}
	s.ended = true

	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()

	attrs := metric.WithAttributes(
		attribute.String(attrKeyOperation, s.operation),
		attribute.String(attrKeyOutcome, outcome),
	)
	s.o.attempts.Add(context.Background(), 1, attrs)
	s.o.duration.Record(context.Background(), time.Since(s.start).Seconds(), attrs)
}

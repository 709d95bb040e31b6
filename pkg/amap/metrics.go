package amap

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the client metrics.
const MeterName = "github.com/NERVsystems/amapmcp/pkg/amap"

// Metrics records client and cache instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	requests     metric.Int64Counter
	retries      metric.Int64Counter
	failures     metric.Int64Counter
	cacheLookups metric.Int64Counter
	rejections   metric.Int64Counter
	duration     metric.Float64Histogram
}

// NewMetrics creates the instruments on meter. A nil meter uses the global
// meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	requests, err := meter.Int64Counter(
		"amap.requests",
		metric.WithDescription("Provider calls, counting each Invoke once"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create amap.requests counter: %w", err)
	}

	retries, err := meter.Int64Counter(
		"amap.retries",
		metric.WithDescription("Retries after transient provider failures"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create amap.retries counter: %w", err)
	}

	failures, err := meter.Int64Counter(
		"amap.failures",
		metric.WithDescription("Terminal provider failures by kind"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create amap.failures counter: %w", err)
	}

	cacheLookups, err := meter.Int64Counter(
		"amap.cache.lookups",
		metric.WithDescription("Cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create amap.cache.lookups counter: %w", err)
	}

	rejections, err := meter.Int64Counter(
		"amap.ratelimit.rejections",
		metric.WithDescription("Calls rejected by the local rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create amap.ratelimit.rejections counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"amap.request.duration_ms",
		metric.WithDescription("Provider call duration including retries"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create amap.request.duration_ms histogram: %w", err)
	}

	return &Metrics{
		requests:     requests,
		retries:      retries,
		failures:     failures,
		cacheLookups: cacheLookups,
		rejections:   rejections,
		duration:     duration,
	}, nil
}

func opAttr(op Operation) attribute.KeyValue {
	return attribute.String("operation", string(op))
}

func (m *Metrics) recordRequest(ctx context.Context, op Operation, d time.Duration, err error) {
	if m == nil {
		return
	}
	opt := metric.WithAttributes(opAttr(op))
	m.requests.Add(ctx, 1, opt)
	m.duration.Record(ctx, float64(d.Milliseconds()), opt)
	if err != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			opAttr(op),
			attribute.String("kind", string(KindOf(err))),
		))
	}
}

func (m *Metrics) recordRetry(ctx context.Context, op Operation) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(opAttr(op)))
}

func (m *Metrics) recordRejection(ctx context.Context, op Operation) {
	if m == nil {
		return
	}
	m.rejections.Add(ctx, 1, metric.WithAttributes(opAttr(op)))
}

func (m *Metrics) recordCacheLookup(ctx context.Context, op Operation, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		opAttr(op),
		attribute.String("result", result),
	))
}

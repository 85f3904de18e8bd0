package oteladapters

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// MetricsCollector implements reservations.ContextualMetricsCollector with the OpenTelemetry metrics API.
// Instruments are created lazily, once per metric name, and are safe for concurrent use.
type MetricsCollector struct {
	meter metric.Meter

	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
	gauges     map[string]metric.Float64Gauge
}

// NewMetricsCollector creates a collector that records through meter.
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:      meter,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
		gauges:     make(map[string]metric.Float64Gauge),
	}
}

// RecordDuration records duration in seconds on a histogram.
func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), metricName, duration, labels)
}

// RecordDurationContext records duration in seconds on a histogram, correlated with the span in ctx.
func (m *MetricsCollector) RecordDurationContext(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	labels map[string]string,
) {
	histogram, ok := lookupOrCreate(m, m.histograms, metricName, func(name string) (metric.Float64Histogram, error) {
		return m.meter.Float64Histogram(
			name,
			metric.WithDescription("Reservation engine operation duration"),
			metric.WithUnit("s"),
		)
	})
	if !ok {
		return
	}

	histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(toAttributes(labels)...))
}

// IncrementCounter adds one to a counter.
func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), metricName, labels)
}

// IncrementCounterContext adds one to a counter, correlated with the span in ctx.
func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, metricName string, labels map[string]string) {
	counter, ok := lookupOrCreate(m, m.counters, metricName, func(name string) (metric.Int64Counter, error) {
		return m.meter.Int64Counter(name, metric.WithDescription("Reservation engine event counter"))
	})
	if !ok {
		return
	}

	counter.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
}

// RecordValue sets a gauge.
func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), metricName, value, labels)
}

// RecordValueContext sets a gauge, correlated with the span in ctx.
func (m *MetricsCollector) RecordValueContext(
	ctx context.Context,
	metricName string,
	value float64,
	labels map[string]string,
) {
	gauge, ok := lookupOrCreate(m, m.gauges, metricName, func(name string) (metric.Float64Gauge, error) {
		return m.meter.Float64Gauge(name, metric.WithDescription("Reservation engine current value"))
	})
	if !ok {
		return
	}

	gauge.Record(ctx, value, metric.WithAttributes(toAttributes(labels)...))
}

// lookupOrCreate returns the cached instrument for name or creates it.
// An instrument that cannot be created is not cached, the measurement is dropped.
func lookupOrCreate[I any](
	m *MetricsCollector,
	instruments map[string]I,
	name string,
	create func(string) (I, error),
) (I, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if instrument, exists := instruments[name]; exists {
		return instrument, true
	}

	instrument, err := create(name)
	if err != nil {
		var zero I
		return zero, false
	}

	instruments[name] = instrument

	return instrument, true
}

func toAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}

var _ reservations.ContextualMetricsCollector = (*MetricsCollector)(nil)

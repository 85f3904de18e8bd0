// Package oteladapters implements the observability interfaces of the reservations package
// on top of OpenTelemetry.
//
//   - MetricsCollector maps durations to histograms, counters to counters, and values to gauges.
//   - TracingCollector creates one span per StartSpan call and maps status strings to span codes.
//   - SlogBridgeLogger and OTelLogger implement ContextualLogger with trace correlation.
//
// Example:
//
//	meter := otel.Meter("library")
//	tracer := otel.Tracer("library")
//	store, err := postgresengine.NewStoreFromPGXPool(pool,
//		postgresengine.WithMetrics(oteladapters.NewMetricsCollector(meter)),
//		postgresengine.WithTracing(oteladapters.NewTracingCollector(tracer)),
//		postgresengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("library")),
//	)
package oteladapters

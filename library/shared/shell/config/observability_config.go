package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// EnvOTLPEndpoint names the environment variable holding the OTLP gRPC collector endpoint.
	EnvOTLPEndpoint = "LIBRARY_OTLP_ENDPOINT"

	defaultOTLPEndpoint   = "localhost:4317"
	metricsExportInterval = 5 * time.Second
	shutdownTimeout       = 5 * time.Second
)

// OTLPEndpoint returns the collector endpoint from LIBRARY_OTLP_ENDPOINT or the local default.
func OTLPEndpoint() string {
	if endpoint := os.Getenv(EnvOTLPEndpoint); endpoint != "" {
		return endpoint
	}

	return defaultOTLPEndpoint
}

// ObservabilityProviders holds the OpenTelemetry providers of the running application.
type ObservabilityProviders struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Resource       *resource.Resource
}

// NewObservabilityProviders creates trace and metric providers exporting via OTLP gRPC to endpoint
// and installs them as the global providers.
func NewObservabilityProviders(ctx context.Context, serviceName, serviceVersion, endpoint string) (*ObservabilityProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	)

	metricExporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Join(err, tracerProvider.Shutdown(ctx))
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(metricsExportInterval))),
		metric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &ObservabilityProviders{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Resource:       res,
	}, nil
}

// Shutdown flushes and stops both providers.
func (p *ObservabilityProviders) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
	)
}

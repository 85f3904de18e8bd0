package main

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell/config"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/oteladapters"
	"github.com/AntonStoeckl/book-reservations-go/reservations/zapadapters"
)

// instruments bundles the logging, metrics and tracing backends handed to every component.
// Collectors stay nil when observability is disabled.
type instruments struct {
	logger           *zapadapters.Logger
	contextualLogger reservations.ContextualLogger
	metrics          reservations.MetricsCollector
	tracing          reservations.TracingCollector
	shutdown         func() error
}

func newZapLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, usageError(err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	return cfg.Build()
}

func newInstruments(ctx context.Context, s settings) (instruments, error) {
	zapLogger, err := newZapLogger(s.logLevel)
	if err != nil {
		return instruments{}, err
	}

	logger := zapadapters.NewLogger(zapLogger)

	inst := instruments{
		logger:           logger,
		contextualLogger: logger,
		shutdown:         func() error { return syncQuietly(logger) },
	}

	if !s.observability {
		return inst, nil
	}

	providers, err := config.NewObservabilityProviders(ctx, serviceName, serviceVersion, s.otlpEndpoint)
	if err != nil {
		return instruments{}, fmt.Errorf("setting up observability: %w", err)
	}

	inst.contextualLogger = oteladapters.NewSlogBridgeLogger(serviceName)
	inst.metrics = oteladapters.NewMetricsCollector(otel.Meter(serviceName))
	inst.tracing = oteladapters.NewTracingCollector(otel.Tracer(serviceName))
	inst.shutdown = func() error {
		return errors.Join(syncQuietly(logger), providers.Shutdown())
	}

	return inst, nil
}

// nopInstruments logs nowhere and collects nothing.
func nopInstruments() instruments {
	logger := zapadapters.NewLogger(zap.NewNop())

	return instruments{
		logger:           logger,
		contextualLogger: logger,
		shutdown:         func() error { return nil },
	}
}

// syncQuietly flushes the logger. Syncing a terminal's stderr fails on some platforms, that is ignored.
func syncQuietly(logger *zapadapters.Logger) error {
	_ = logger.Sync() //nolint:errcheck // see above

	return nil
}

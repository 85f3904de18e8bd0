package zapadapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AntonStoeckl/book-reservations-go/reservations/zapadapters"
)

func newObservedLogger() (*zapadapters.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zapadapters.NewLogger(zap.New(core)), logs
}

func Test_Logger_WritesLevelsAndFields(t *testing.T) {
	// setup
	logger, logs := newObservedLogger()

	// act
	logger.Debug("executed sql for: get_book", "duration_ms", 1.5)
	logger.Info("reservation created", "reservation_id", "r-1")
	logger.Warn("sweep row skipped")
	logger.Error("inventory over-release detected, counter left untouched", "book_id", "b-1")

	// assert
	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, 1.5, entries[0].ContextMap()["duration_ms"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "r-1", entries[1].ContextMap()["reservation_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "inventory over-release detected, counter left untouched", entries[3].Message)
}

func Test_Logger_ContextMethods_AddTraceCorrelation(t *testing.T) {
	// setup
	logger, logs := newObservedLogger()

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	// act
	logger.InfoContext(ctx, "reservation transitioned", "status", "CANCELED")
	logger.WarnContext(context.Background(), "no span")

	// assert
	entries := logs.All()
	require.Len(t, entries, 2)

	fields := entries[0].ContextMap()
	assert.Equal(t, "CANCELED", fields["status"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])

	assert.NotContains(t, entries[1].ContextMap(), "trace_id", "a context without span should not add trace fields")
}

func Test_Logger_DebugAndErrorContext(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.DebugContext(context.Background(), "debug")
	logger.ErrorContext(context.Background(), "error")

	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.DebugLevel).Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

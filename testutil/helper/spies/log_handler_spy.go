package spies

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// LogHandlerSpy is a slog.Handler implementation that captures log records for testing.
type LogHandlerSpy struct {
	records     []slog.Record
	mu          sync.Mutex
	logToStdout bool
}

// NewLogHandlerSpy creates a new LogHandlerSpy.
// Switchable to log to stdout, which can be useful for debugging tests by seeing the actual log output.
func NewLogHandlerSpy(logToStdout bool) *LogHandlerSpy {
	return &LogHandlerSpy{
		records:     make([]slog.Record, 0),
		logToStdout: logToStdout,
	}
}

// NewLogger returns a *slog.Logger writing into a fresh spy, together with the spy.
func NewLogger() (*slog.Logger, *LogHandlerSpy) {
	spy := NewLogHandlerSpy(false)
	return slog.New(spy), spy
}

// Handle implements slog.Handler interface.
func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record.Clone())

	if s.logToStdout {
		_ = slog.NewJSONHandler(os.Stdout, nil).Handle(ctx, record)
	}

	return nil
}

// Enabled implements slog.Handler interface.
func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler interface.
func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	return s
}

// WithGroup implements slog.Handler interface.
func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// GetRecords returns a copy of all captured log records.
func (s *LogHandlerSpy) GetRecords() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]slog.Record, len(s.records))
	copy(records, s.records)

	return records
}

// Reset clears all captured log records.
func (s *LogHandlerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
}

// HasLog checks if there's a log record with the given level and message.
func (s *LogHandlerSpy) HasLog(level slog.Level, message string) bool {
	return s.HasLogWithMessage(level, message).Assert()
}

// CountLogs counts the log records with the given level and message.
func (s *LogHandlerSpy) CountLogs(level slog.Level, message string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			count++
		}
	}

	return count
}

// SpyLogRecordMatcher provides a fluent interface for checking log record attributes.
type SpyLogRecordMatcher struct {
	record slog.Record
	found  bool
}

// HasLogWithMessage starts a fluent chain to check the first log record with the given level and message.
func (s *LogHandlerSpy) HasLogWithMessage(level slog.Level, message string) *SpyLogRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return &SpyLogRecordMatcher{record: record, found: true}
		}
	}

	return &SpyLogRecordMatcher{found: false}
}

// WithAttr checks if the log record has the attribute key with the given string representation.
func (m *SpyLogRecordMatcher) WithAttr(key, value string) *SpyLogRecordMatcher {
	if !m.found {
		return m
	}

	matched := false
	m.record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == key && attr.Value.String() == value {
			matched = true
			return false
		}

		return true
	})

	m.found = matched

	return m
}

// WithAttrKey checks if the log record carries the attribute key at all.
func (m *SpyLogRecordMatcher) WithAttrKey(key string) *SpyLogRecordMatcher {
	if !m.found {
		return m
	}

	matched := false
	m.record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == key {
			matched = true
			return false
		}

		return true
	})

	m.found = matched

	return m
}

// Assert returns true if all conditions in the fluent chain were met.
func (m *SpyLogRecordMatcher) Assert() bool {
	return m.found
}

package spies

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MetricsCollectorSpy is a ContextualMetricsCollector implementation that captures metrics calls for testing.
type MetricsCollectorSpy struct {
	durationRecords []SpyDurationRecord
	counterRecords  []SpyCounterRecord
	valueRecords    []SpyValueRecord
	contextCalls    int
	mu              sync.Mutex
}

// SpyDurationRecord represents a recorded duration metric call.
type SpyDurationRecord struct {
	Metric   string
	Duration time.Duration
	Labels   map[string]string
}

// SpyCounterRecord represents a recorded counter increment call.
type SpyCounterRecord struct {
	Metric string
	Labels map[string]string
}

// SpyValueRecord represents a recorded value metric call.
type SpyValueRecord struct {
	Metric string
	Value  float64
	Labels map[string]string
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durationRecords = append(s.durationRecords, SpyDurationRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counterRecords = append(s.counterRecords, SpyCounterRecord{Metric: metric, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.valueRecords = append(s.valueRecords, SpyValueRecord{Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

func (s *MetricsCollectorSpy) RecordDurationContext(
	_ context.Context,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	s.markContextCall()
	s.RecordDuration(metric, duration, labels)
}

func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.markContextCall()
	s.IncrementCounter(metric, labels)
}

func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.markContextCall()
	s.RecordValue(metric, value, labels)
}

func (s *MetricsCollectorSpy) markContextCall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contextCalls++
}

// GetContextCallCount returns how many calls went through the context-aware methods.
func (s *MetricsCollectorSpy) GetContextCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.contextCalls
}

// GetDurationRecords returns a copy of all captured duration records.
func (s *MetricsCollectorSpy) GetDurationRecords() []SpyDurationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyDurationRecord(nil), s.durationRecords...)
}

// GetCounterRecords returns a copy of all captured counter records.
func (s *MetricsCollectorSpy) GetCounterRecords() []SpyCounterRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyCounterRecord(nil), s.counterRecords...)
}

// GetValueRecords returns a copy of all captured value records.
func (s *MetricsCollectorSpy) GetValueRecords() []SpyValueRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyValueRecord(nil), s.valueRecords...)
}

// Reset clears all captured metric records.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durationRecords = nil
	s.counterRecords = nil
	s.valueRecords = nil
	s.contextCalls = 0
}

// HasDurationRecord checks if there's a duration record with the specified metric name.
func (s *MetricsCollectorSpy) HasDurationRecord(metric string) bool {
	for _, record := range s.GetDurationRecords() {
		if record.Metric == metric {
			return true
		}
	}

	return false
}

// CountCounterRecords counts the counter increments of metric whose labels contain all of the given labels.
func (s *MetricsCollectorSpy) CountCounterRecords(metric string, labels map[string]string) int {
	count := 0

	for _, record := range s.GetCounterRecords() {
		if record.Metric == metric && containsLabels(record.Labels, labels) {
			count++
		}
	}

	return count
}

// HasCounterRecord checks if metric was incremented at least once with all of the given labels.
func (s *MetricsCollectorSpy) HasCounterRecord(metric string, labels map[string]string) bool {
	return s.CountCounterRecords(metric, labels) > 0
}

// LastValue returns the last recorded value of metric and whether one was recorded.
func (s *MetricsCollectorSpy) LastValue(metric string) (float64, bool) {
	records := s.GetValueRecords()

	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Metric == metric {
			return records[i].Value, true
		}
	}

	return 0, false
}

func containsLabels(have, want map[string]string) bool {
	for key, value := range want {
		if have[key] != value {
			return false
		}
	}

	return true
}

package spies

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// SpySpanContext implements reservations.SpanContext for testing.
type SpySpanContext struct {
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}

	c.attributes[key] = value
}

// GetAttributes returns a copy of all attributes added while the span was open.
func (c *SpySpanContext) GetAttributes() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return maps.Clone(c.attributes)
}

// SpySpanRecord represents a recorded span.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
	SpanContext     *SpySpanContext
}

// TracingCollectorSpy is a reservations.TracingCollector implementation that captures tracing calls for testing.
type TracingCollectorSpy struct {
	spanRecords []*SpySpanRecord
	mu          sync.Mutex
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, reservations.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spanCtx := &SpySpanContext{}
	s.spanRecords = append(s.spanRecords, &SpySpanRecord{
		Name:            name,
		StartAttributes: maps.Clone(attrs),
		SpanContext:     spanCtx,
	})

	return ctx, spanCtx
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx reservations.SpanContext, status string, attrs map[string]string) {
	spyCtx, ok := spanCtx.(*SpySpanContext)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.spanRecords {
		if record.SpanContext == spyCtx {
			record.Status = status
			record.EndAttributes = maps.Clone(attrs)
			record.Finished = true

			return
		}
	}
}

// GetSpanRecords returns a snapshot of all captured span records.
func (s *TracingCollectorSpy) GetSpanRecords() []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpySpanRecord, 0, len(s.spanRecords))
	for _, record := range s.spanRecords {
		records = append(records, *record)
	}

	return records
}

// HasSpan checks if a span with the given name was finished with the given status.
func (s *TracingCollectorSpy) HasSpan(name, status string) bool {
	for _, record := range s.GetSpanRecords() {
		if record.Name == name && record.Finished && record.Status == status {
			return true
		}
	}

	return false
}

// AllFinished reports whether every started span was also finished.
func (s *TracingCollectorSpy) AllFinished() bool {
	for _, record := range s.GetSpanRecords() {
		if !record.Finished {
			return false
		}
	}

	return true
}

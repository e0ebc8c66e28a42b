package metrics

import (
	"context"
	"errors"
)

// MultiSink fans observations out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRequest forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRequest(ev RequestEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRequest(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSelection forwards selection changes to sinks that support them.
func (m *MultiSink) RecordSelection(ev SelectionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SelectionRecorder); ok {
			if err := rec.RecordSelection(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes every buffering sink and joins their errors.
func (m *MultiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

package export

import (
	"context"
	"time"
)

// Metric event names.
const (
	EventExportRequested = "export.requested"
	EventExportCompleted = "export.completed"
	EventExportFailed    = "export.failed"
	EventExportCanceled  = "export.canceled"
)

// MetricsEvent describes a pipeline observation.
type MetricsEvent struct {
	Name      string
	ExportID  string
	Template  string
	Envelope  EnvelopeKind
	Rows      int64
	Bytes     int64
	Duration  time.Duration
	ErrorKind ErrorKind
	Timestamp time.Time
}

// MetricsHook emits metrics-friendly lifecycle observations.
type MetricsHook interface {
	Emit(ctx context.Context, evt MetricsEvent) error
}

// NopMetrics discards every event.
type NopMetrics struct{}

// Emit discards evt.
func (NopMetrics) Emit(context.Context, MetricsEvent) error { return nil }

// MultiMetrics fans events out to every hook. All hooks run; the first error is returned.
type MultiMetrics []MetricsHook

// Emit forwards evt to each hook.
func (m MultiMetrics) Emit(ctx context.Context, evt MetricsEvent) error {
	var first error
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.Emit(ctx, evt); err != nil && first == nil {
			first = err
		}
	}
	return first
}

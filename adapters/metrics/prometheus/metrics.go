package exportprom

import (
	"context"
	"net/http"

	"github.com/goliatone/go-export-xlsx/export"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config names the exported metric families.
type Config struct {
	Namespace       string
	Subsystem       string
	DurationBuckets []float64
	RowBuckets      []float64
}

// Metrics records export pipeline events as Prometheus metrics.
//
// Families:
//   - <ns>_<sub>_exports_total{template,outcome}
//   - <ns>_<sub>_export_duration_seconds{template}
//   - <ns>_<sub>_export_rows{template}
//   - <ns>_<sub>_export_bytes{template}
type Metrics struct {
	registry *prometheus.Registry

	exportsTotal *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	rows         *prometheus.HistogramVec
	bytes        *prometheus.HistogramVec
}

// New creates the metric families and registers them with registry. A nil registry
// gets a fresh one.
func New(cfg Config, registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "goexport"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "xlsx"
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	}
	if len(cfg.RowBuckets) == 0 {
		cfg.RowBuckets = prometheus.ExponentialBuckets(10, 4, 8)
	}

	m := &Metrics{
		registry: registry,
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exports_total",
				Help:      "Export attempts by template and outcome",
			},
			[]string{"template", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_duration_seconds",
				Help:      "Time spent producing an export",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"template"},
		),
		rows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_rows",
				Help:      "Rows written per export",
				Buckets:   cfg.RowBuckets,
			},
			[]string{"template"},
		),
		bytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_bytes",
				Help:      "Workbook size per export",
				Buckets:   prometheus.ExponentialBuckets(4096, 2, 12),
			},
			[]string{"template"},
		),
	}

	registry.MustRegister(m.exportsTotal, m.duration, m.rows, m.bytes)
	return m
}

// Emit records evt. Requested events are ignored; every attempt is counted once by its
// outcome.
func (m *Metrics) Emit(_ context.Context, evt export.MetricsEvent) error {
	if m == nil {
		return nil
	}
	outcome := ""
	switch evt.Name {
	case export.EventExportCompleted:
		outcome = "completed"
	case export.EventExportFailed:
		outcome = string(evt.ErrorKind)
		if outcome == "" {
			outcome = "failed"
		}
	case export.EventExportCanceled:
		outcome = "canceled"
	default:
		return nil
	}

	m.exportsTotal.WithLabelValues(evt.Template, outcome).Inc()
	m.duration.WithLabelValues(evt.Template).Observe(evt.Duration.Seconds())
	if evt.Name == export.EventExportCompleted {
		m.rows.WithLabelValues(evt.Template).Observe(float64(evt.Rows))
		m.bytes.WithLabelValues(evt.Template).Observe(float64(evt.Bytes))
	}
	return nil
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

var _ export.MetricsHook = (*Metrics)(nil)

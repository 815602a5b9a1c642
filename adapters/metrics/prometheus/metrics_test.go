package exportprom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-export-xlsx/export"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := New(Config{}, prometheus.NewRegistry())
	ctx := context.Background()

	events := []export.MetricsEvent{
		{Name: export.EventExportRequested, Template: "users.xlsx"},
		{Name: export.EventExportCompleted, Template: "users.xlsx", Rows: 3, Bytes: 9000, Duration: 20 * time.Millisecond},
		{Name: export.EventExportFailed, Template: "users.xlsx", ErrorKind: export.KindEmptyExport},
		{Name: export.EventExportCanceled, Template: "users.xlsx", ErrorKind: export.KindCanceled},
	}
	for _, evt := range events {
		if err := m.Emit(ctx, evt); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	if got := testutil.ToFloat64(m.exportsTotal.WithLabelValues("users.xlsx", "completed")); got != 1 {
		t.Fatalf("expected 1 completed, got %v", got)
	}
	if got := testutil.ToFloat64(m.exportsTotal.WithLabelValues("users.xlsx", string(export.KindEmptyExport))); got != 1 {
		t.Fatalf("expected 1 empty export, got %v", got)
	}
	if got := testutil.ToFloat64(m.exportsTotal.WithLabelValues("users.xlsx", "canceled")); got != 1 {
		t.Fatalf("expected 1 canceled, got %v", got)
	}
	if got := testutil.CollectAndCount(m.exportsTotal); got != 3 {
		t.Fatalf("expected 3 outcome series, got %d", got)
	}
	if got := testutil.CollectAndCount(m.rows); got != 1 {
		t.Fatalf("expected 1 rows series, got %d", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New(Config{Namespace: "test", Subsystem: "export"}, nil)
	_ = m.Emit(context.Background(), export.MetricsEvent{Name: export.EventExportCompleted, Template: "t.xlsx", Rows: 1})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_export_exports_total") {
		t.Fatalf("expected exports_total family in output")
	}
}

func TestMetrics_WithPipeline(t *testing.T) {
	m := New(Config{}, nil)
	pipeline, err := export.NewPipeline(export.Config{Limit: 10, TemplateName: "missing.xlsx"},
		export.WithTemplates(export.NewDirTemplates(t.TempDir())),
		export.WithMetrics(m),
	)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if _, err := pipeline.Export(context.Background(), []map[string]any{{"id": 1}}); err == nil {
		t.Fatalf("expected missing template error")
	}
	if got := testutil.ToFloat64(m.exportsTotal.WithLabelValues("missing.xlsx", string(export.KindTemplateUnavailable))); got != 1 {
		t.Fatalf("expected template failure counted, got %v", got)
	}
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goliatone/go-export-xlsx/export"
)

func TestLoadDemoConfig_DefaultsAndOverrides(t *testing.T) {
	file := `
server:
  addr: ":9000"
  transport: FIBER
  activity_ttl: 48h
endpoints:
  users:
    template_name: users.xlsx
`
	env := map[string]string{"EXPORT_DEMO_DATABASE_DSN": "file:test.db"}
	cfg, err := loadDemoConfig(strings.NewReader(file), func(key string) string { return env[key] })
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.Transport != "fiber" || cfg.DatabaseDSN != "file:test.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.TemplateDir != export.DefaultTemplateDir || cfg.PruneSchedule != "0 3 * * *" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	endpoints, err := export.LoadEndpoints(strings.NewReader(file))
	if err != nil {
		t.Fatalf("endpoints: %v", err)
	}
	if _, ok := endpoints.Lookup("users"); !ok {
		t.Fatalf("expected users endpoint from the shared file")
	}
}

func TestLoadDemoConfig_Invalid(t *testing.T) {
	getenv := func(string) string { return "" }
	for _, file := range []string{
		"server:\n  transport: grpc\n",
		"server:\n  activity_ttl: soon\n",
		"server: [",
	} {
		if _, err := loadDemoConfig(strings.NewReader(file), getenv); err == nil {
			t.Fatalf("expected error for %q", file)
		}
	}
}

func TestZeroLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("debug", "json", &buf)
	logger.Debug("rendered", "rows", 3, "template", "users.xlsx")
	logger.WithFields(map[string]any{"endpoint": "users"}).Info("ready")
	logger.Trace("hidden")

	out := buf.String()
	if !strings.Contains(out, `"rows":3`) || !strings.Contains(out, `"template":"users.xlsx"`) {
		t.Fatalf("expected structured fields, got %s", out)
	}
	if !strings.Contains(out, `"endpoint":"users"`) {
		t.Fatalf("expected logger fields, got %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("trace must be filtered at debug level")
	}
}

func TestPairs(t *testing.T) {
	fields := pairs([]any{"a", 1, 2, "b", "dangling"})
	if fields["a"] != 1 || fields["2"] != "b" || fields["extra"] != "dangling" {
		t.Fatalf("unexpected fields %+v", fields)
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-export-xlsx/export"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xuri/excelize/v2"
)

const testEndpoints = `
endpoints:
  users:
    limit: 500
    ignore_fields: password,createdAt
    template_name: users.xlsx
  orders:
    limit: 500
    template_name: orders.xlsx
`

func writeTemplate(t *testing.T, dir, name string, header ...any) {
	t.Helper()
	book := excelize.NewFile()
	defer func() {
		_ = book.Close()
	}()
	if err := book.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatalf("header: %v", err)
	}
	if err := book.SaveAs(filepath.Join(dir, name)); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	return newTestAppWith(t, appOptions{})
}

func newTestAppWith(t *testing.T, opts appOptions) *app {
	t.Helper()
	dir := t.TempDir()
	writeTemplate(t, dir, "users.xlsx", "ID", "Name", "Email", "Role", "Active")
	writeTemplate(t, dir, "orders.xlsx", "ID", "Customer", "Items", "Total", "Status")

	cfg := defaultDemoConfig()
	cfg.TemplateDir = dir
	cfg.PruneSchedule = ""
	cfg.DatabaseDSN = "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"

	opts.registry = prometheus.NewRegistry()
	a, err := newApp(context.Background(), cfg, strings.NewReader(testEndpoints), nil, opts)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func post(t *testing.T, h http.Handler, path, body string, exporting bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if exporting {
		req.Header.Set(export.HeaderExport, "1")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestApp_ListUsersAsJSON(t *testing.T) {
	a := newTestApp(t)
	rec := post(t, a.httpHandler(), "/api/users/list", `{"page":2,"limit":10}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		ListData  []user `json:"listData"`
		Count     int    `json:"count"`
		TotalPage int    `json:"totalPage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.ListData) != 10 || payload.ListData[0].ID != 11 || payload.Count != 250 || payload.TotalPage != 25 {
		t.Fatalf("unexpected page %+v", payload)
	}
}

func TestApp_ExportUsers(t *testing.T) {
	a := newTestApp(t)
	rec := post(t, a.httpHandler(), "/api/users/list", `{"page":1,"limit":10}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != export.ContentTypeXLSX {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}

	book, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() {
		_ = book.Close()
	}()
	rows, err := book.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	// the rewritten limit returns every user in one page
	if len(rows) != 251 {
		t.Fatalf("expected header plus 250 rows, got %d", len(rows))
	}
	if rows[1][1] != "User 001" || len(rows[1]) != 5 {
		t.Fatalf("unexpected first row %v", rows[1])
	}
}

func TestApp_ExportOrdersWithFooterAndActivity(t *testing.T) {
	a := newTestApp(t)
	h := a.httpHandler()

	rec := post(t, h, "/api/orders/list", `{"limit":5}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	book, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() {
		_ = book.Close()
	}()
	if got, _ := book.GetCellValue("Sheet1", "B122"); got != "Total" {
		t.Fatalf("expected footer row after 120 orders, got %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/exports/activity?template=orders.xlsx", nil)
	activity := httptest.NewRecorder()
	h.ServeHTTP(activity, req)
	if activity.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", activity.Code, activity.Body.String())
	}
	var records []export.ActivityRecord
	if err := json.Unmarshal(activity.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if len(records) != 1 || records[0].Rows != 121 || records[0].State != export.ActivityCompleted {
		t.Fatalf("unexpected activity %+v", records)
	}
}

func TestApp_RejectsBadListRequest(t *testing.T) {
	a := newTestApp(t)
	rec := post(t, a.httpHandler(), "/api/roles/list", ``, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("roles without template config should still answer, got %d", rec.Code)
	}

	rec = post(t, a.httpHandler(), "/api/users/list", `{"limit":"ten"}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestApp_Retention(t *testing.T) {
	a := newTestApp(t)
	rules, err := a.retention()
	if err != nil {
		t.Fatalf("retention: %v", err)
	}
	if rules.TTL("users.xlsx", export.ActivityCompleted) != 720*time.Hour {
		t.Fatalf("unexpected default ttl %v", rules.TTL("users.xlsx", export.ActivityCompleted))
	}
	if rules.TTL("users.xlsx", export.ActivityFailed) != failedActivityTTL {
		t.Fatalf("unexpected failed ttl %v", rules.TTL("users.xlsx", export.ActivityFailed))
	}
}

type recordingFeed struct {
	records []types.ActivityRecord
}

func (f *recordingFeed) Log(_ context.Context, record types.ActivityRecord) error {
	f.records = append(f.records, record)
	return nil
}

func TestApp_ExportFeedsActivity(t *testing.T) {
	feed := &recordingFeed{}
	a := newTestAppWith(t, appOptions{feed: feed})

	rec := post(t, a.httpHandler(), "/api/users/list", `{"page":1,"limit":10}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var completed int
	for _, record := range feed.records {
		if record.Verb == export.EventExportCompleted {
			completed++
			if record.Channel != "export-demo" {
				t.Fatalf("unexpected channel %q", record.Channel)
			}
		}
	}
	if completed != 1 {
		t.Fatalf("expected one completed activity record, got %d of %d", completed, len(feed.records))
	}
}

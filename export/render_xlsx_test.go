package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTemplate(t *testing.T, dir, name string, header ...any) {
	t.Helper()
	book := excelize.NewFile()
	defer func() {
		_ = book.Close()
	}()
	if len(header) > 0 {
		if err := book.SetSheetRow("Sheet1", "A1", &header); err != nil {
			t.Fatalf("template header: %v", err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("template dir: %v", err)
	}
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save template: %v", err)
	}
}

func openOutput(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	t.Cleanup(func() {
		_ = file.Close()
	})
	return file
}

func readCell(t *testing.T, file *excelize.File, cell string) string {
	t.Helper()
	value, err := file.GetCellValue(file.GetSheetName(0), cell)
	if err != nil {
		t.Fatalf("cell %s: %v", cell, err)
	}
	return value
}

func TestXLSXRenderer_WritesRowsBelowHeader(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "users.xlsx", "Id", "Full Name", "Active")

	renderer := XLSXRenderer{Templates: NewDirTemplates(dir)}
	table := Table{
		Columns:     []string{"id", "name", "active"},
		Rows:        [][]any{{int64(1), "alice", true}, {int64(2), "bob", false}},
		FooterStart: 2,
	}

	data, stats, err := renderer.Render(context.Background(), table, "users.xlsx")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if stats.Rows != 2 || stats.Bytes != int64(len(data)) || stats.Sheet != "Sheet1" {
		t.Fatalf("unexpected stats %+v", stats)
	}

	file := openOutput(t, data)
	rows, err := file.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Full Name" {
		t.Fatalf("expected template header to survive, got %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "alice" || rows[2][1] != "bob" {
		t.Fatalf("unexpected data rows %v", rows[1:])
	}
	if rows[1][2] != "TRUE" {
		t.Fatalf("expected bool cell, got %q", rows[1][2])
	}
}

func TestXLSXRenderer_Origin(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "users.xlsx")

	renderer := XLSXRenderer{Templates: NewDirTemplates(dir), Origin: Cell{Col: 2, Row: 4}}
	data, _, err := renderer.Render(context.Background(), Table{
		Columns:     []string{"name"},
		Rows:        [][]any{{"alice"}},
		FooterStart: 1,
	}, "users.xlsx")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	file := openOutput(t, data)
	if got := readCell(t, file, "B4"); got != "alice" {
		t.Fatalf("expected B4 to hold alice, got %q", got)
	}
	if got := readCell(t, file, "A2"); got != "" {
		t.Fatalf("expected A2 to be empty, got %q", got)
	}
}

func TestXLSXRenderer_BoldFooter(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "totals.xlsx", "name", "total")

	renderer := XLSXRenderer{Templates: NewDirTemplates(dir), BoldFooter: true}
	data, _, err := renderer.Render(context.Background(), Table{
		Columns:     []string{"name", "total"},
		Rows:        [][]any{{"a", 1}, {"sum", 1}},
		FooterStart: 1,
	}, "totals.xlsx")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	file := openOutput(t, data)
	for cell, bold := range map[string]bool{"A2": false, "A3": true, "B3": true} {
		styleID, err := file.GetCellStyle("Sheet1", cell)
		if err != nil {
			t.Fatalf("style %s: %v", cell, err)
		}
		got := false
		if styleID != 0 {
			style, err := file.GetStyle(styleID)
			if err != nil {
				t.Fatalf("style %s: %v", cell, err)
			}
			got = style.Font != nil && style.Font.Bold
		}
		if got != bold {
			t.Fatalf("expected %s bold=%v", cell, bold)
		}
	}
}

func TestXLSXRenderer_NamedSheet(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "users.xlsx")

	table := Table{Columns: []string{"name"}, Rows: [][]any{{"alice"}}, FooterStart: 1}
	_, _, err := XLSXRenderer{Templates: NewDirTemplates(dir), Sheet: "Data"}.Render(context.Background(), table, "users.xlsx")
	if KindFromError(err) != KindTemplateUnavailable {
		t.Fatalf("expected missing sheet error, got %v", err)
	}

	_, stats, err := XLSXRenderer{Templates: NewDirTemplates(dir), Sheet: "Sheet1"}.Render(context.Background(), table, "users.xlsx")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if stats.Sheet != "Sheet1" {
		t.Fatalf("unexpected sheet %q", stats.Sheet)
	}
}

func TestXLSXRenderer_Errors(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "users.xlsx")
	if err := os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("not a workbook"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	valid := Table{Columns: []string{"name"}, Rows: [][]any{{"alice"}}, FooterStart: 1}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name     string
		renderer XLSXRenderer
		ctx      context.Context
		table    Table
		template string
		kind     ErrorKind
	}{
		{"no source", XLSXRenderer{}, context.Background(), valid, "users.xlsx", KindTemplateUnavailable},
		{"missing template", XLSXRenderer{Templates: NewDirTemplates(dir)}, context.Background(), valid, "missing.xlsx", KindTemplateUnavailable},
		{"broken template", XLSXRenderer{Templates: NewDirTemplates(dir)}, context.Background(), valid, "broken.xlsx", KindTemplateUnavailable},
		{"ragged table", XLSXRenderer{Templates: NewDirTemplates(dir)}, context.Background(), Table{Columns: []string{"a", "b"}, Rows: [][]any{{1}}, FooterStart: 1}, "users.xlsx", KindUnsupportedShape},
		{"row limit", XLSXRenderer{Templates: NewDirTemplates(dir), Origin: Cell{Col: 1, Row: excelMaxRows}}, context.Background(), Table{Columns: []string{"a"}, Rows: [][]any{{1}, {2}}, FooterStart: 2}, "users.xlsx", KindValidation},
		{"canceled", XLSXRenderer{Templates: NewDirTemplates(dir)}, canceled, valid, "users.xlsx", KindCanceled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := tc.renderer.Render(tc.ctx, tc.table, tc.template)
			if KindFromError(err) != tc.kind {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestCell_Name(t *testing.T) {
	name, err := DefaultOrigin.Name()
	if err != nil || name != "A2" {
		t.Fatalf("expected A2, got %q (%v)", name, err)
	}
	if (Cell{}).orDefault() != DefaultOrigin {
		t.Fatalf("expected zero cell to use default origin")
	}
}

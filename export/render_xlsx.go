package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const excelMaxRows = 1048576

// Cell is a 1-based worksheet coordinate.
type Cell struct {
	Col int
	Row int
}

// DefaultOrigin is the first data cell, A2, leaving row 1 to the template header.
var DefaultOrigin = Cell{Col: 1, Row: 2}

// Name returns the A1-style reference of the cell.
func (c Cell) Name() (string, error) {
	return excelize.CoordinatesToCellName(c.Col, c.Row)
}

func (c Cell) orDefault() Cell {
	if c.Col <= 0 || c.Row <= 0 {
		return DefaultOrigin
	}
	return c
}

// RenderStats reports what the renderer wrote.
type RenderStats struct {
	Rows  int64
	Bytes int64
	Sheet string
}

// XLSXRenderer writes tables into spreadsheet templates.
type XLSXRenderer struct {
	Templates TemplateSource
	// Origin is the cell the first row is written to. Zero means DefaultOrigin.
	Origin Cell
	// Sheet selects the worksheet; empty means the first one.
	Sheet      string
	BoldFooter bool
}

// Render opens the template and writes every table row, row by row, starting at the
// origin cell. Cells outside the written range keep their template content.
func (r XLSXRenderer) Render(ctx context.Context, table Table, templateName string) ([]byte, RenderStats, error) {
	if r.Templates == nil {
		return nil, RenderStats{}, NewError(KindTemplateUnavailable, "template source is not configured", nil)
	}
	if err := table.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	origin := r.Origin.orDefault()
	if last := origin.Row + len(table.Rows) - 1; last > excelMaxRows {
		return nil, RenderStats{}, NewError(KindValidation, fmt.Sprintf("xlsx row limit exceeded: %d rows from row %d", len(table.Rows), origin.Row), nil)
	}

	src, err := r.Templates.Open(ctx, templateName)
	if err != nil {
		return nil, RenderStats{}, err
	}
	file, err := excelize.OpenReader(src)
	_ = src.Close()
	if err != nil {
		return nil, RenderStats{}, NewError(KindTemplateUnavailable, fmt.Sprintf("template %q is not a valid workbook", templateName), err)
	}
	defer func() {
		_ = file.Close()
	}()

	sheet, err := r.sheetName(file, templateName)
	if err != nil {
		return nil, RenderStats{}, err
	}

	stats := RenderStats{Sheet: sheet}
	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		cell, err := Cell{Col: origin.Col, Row: origin.Row + i}.Name()
		if err != nil {
			return nil, stats, NewError(KindValidation, "row origin", err)
		}
		values := row
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, stats, NewError(KindInternal, fmt.Sprintf("write row %d", i), err)
		}
		stats.Rows++
	}

	if r.BoldFooter && table.FooterStart < len(table.Rows) && len(table.Columns) > 0 {
		if err := boldRange(file, sheet, origin, table); err != nil {
			return nil, stats, err
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, stats, NewError(KindInternal, "write workbook", err)
	}
	stats.Bytes = int64(buf.Len())
	return buf.Bytes(), stats, nil
}

func (r XLSXRenderer) sheetName(file *excelize.File, templateName string) (string, error) {
	if r.Sheet == "" {
		sheet := file.GetSheetName(0)
		if sheet == "" {
			return "", NewError(KindTemplateUnavailable, fmt.Sprintf("template %q has no worksheet", templateName), nil)
		}
		return sheet, nil
	}
	idx, err := file.GetSheetIndex(r.Sheet)
	if err != nil || idx < 0 {
		return "", NewError(KindTemplateUnavailable, fmt.Sprintf("template %q has no sheet %q", templateName, r.Sheet), err)
	}
	return r.Sheet, nil
}

func boldRange(file *excelize.File, sheet string, origin Cell, table Table) error {
	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return NewError(KindInternal, "footer style", err)
	}
	first, err := Cell{Col: origin.Col, Row: origin.Row + table.FooterStart}.Name()
	if err != nil {
		return NewError(KindValidation, "footer range", err)
	}
	last, err := Cell{Col: origin.Col + len(table.Columns) - 1, Row: origin.Row + len(table.Rows) - 1}.Name()
	if err != nil {
		return NewError(KindValidation, "footer range", err)
	}
	if err := file.SetCellStyle(sheet, first, last, style); err != nil {
		return NewError(KindInternal, "footer style", err)
	}
	return nil
}

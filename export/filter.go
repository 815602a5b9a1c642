package export

import (
	"fmt"
	"strings"
)

// ParseColumns splits a comma separated column list. Names are trimmed, blanks and
// duplicates dropped, order preserved.
func ParseColumns(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// FilterColumns returns a copy of t without the excluded columns. Names match case
// insensitively; unknown names are ignored.
func FilterColumns(t Table, excluded []string) Table {
	if len(excluded) == 0 || len(t.Columns) == 0 {
		return t.clone()
	}

	drop := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		drop[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	keep := make([]int, 0, len(t.Columns))
	columns := make([]string, 0, len(t.Columns))
	for i, col := range t.Columns {
		if _, ok := drop[strings.ToLower(col)]; ok {
			continue
		}
		keep = append(keep, i)
		columns = append(columns, col)
	}

	rows := make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		filtered := make([]any, len(keep))
		for i, idx := range keep {
			if idx < len(row) {
				filtered[i] = row[idx]
			}
		}
		rows[r] = filtered
	}

	return Table{Columns: columns, Rows: rows, FooterStart: t.FooterStart}
}

// Validate checks that every row has one value per column.
func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, col := range t.Columns {
		if _, ok := seen[col]; ok {
			return NewError(KindUnsupportedShape, fmt.Sprintf("duplicate column %q", col), nil)
		}
		seen[col] = struct{}{}
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return NewError(KindUnsupportedShape, fmt.Sprintf("row %d has %d values, expected %d", i, len(row), len(t.Columns)), nil)
		}
	}
	if t.FooterStart < 0 || t.FooterStart > len(t.Rows) {
		return NewError(KindUnsupportedShape, "footer boundary out of range", nil)
	}
	return nil
}

func (t Table) clone() Table {
	out := Table{FooterStart: t.FooterStart}
	if t.Columns != nil {
		out.Columns = make([]string, len(t.Columns))
		copy(out.Columns, t.Columns)
	}
	if t.Rows != nil {
		out.Rows = make([][]any, len(t.Rows))
		for i, row := range t.Rows {
			if row == nil {
				continue
			}
			out.Rows[i] = make([]any, len(row))
			copy(out.Rows[i], row)
		}
	}
	return out
}

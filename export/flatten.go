package export

import (
	"fmt"
	"reflect"
	"sort"
)

// DefaultTimeLayout formats time values written into cells.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Table is a flattened result: an ordered header and one row per record.
// FooterStart is the index of the first footer row; it equals len(Rows) when the result
// has no footer.
type Table struct {
	Columns     []string
	Rows        [][]any
	FooterStart int
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Flattener converts envelopes into tables.
type Flattener struct {
	TimeLayout string
}

// Flatten projects the envelope records into a table. Columns come from the first
// record; every other record must carry the same field set.
func (f Flattener) Flatten(env Envelope) (Table, error) {
	items, footer, err := envelopeParts(env)
	if err != nil {
		return Table{}, err
	}

	body, err := sequence(items, "records")
	if err != nil {
		return Table{}, err
	}
	tail, err := sequence(footer, "footer")
	if err != nil {
		return Table{}, err
	}

	records := make([]any, 0, len(body)+len(tail))
	records = append(records, body...)
	records = append(records, tail...)

	table := Table{FooterStart: len(body)}
	if len(records) == 0 {
		return table, nil
	}

	layout := f.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}

	columns, _, err := recordFields(records[0])
	if err != nil {
		return Table{}, NewError(KindUnsupportedShape, "record 0", err)
	}
	position := make(map[string]int, len(columns))
	for i, col := range columns {
		position[col] = i
	}

	table.Columns = columns
	table.Rows = make([][]any, 0, len(records))
	for i, record := range records {
		names, values, err := recordFields(record)
		if err != nil {
			return Table{}, NewError(KindUnsupportedShape, fmt.Sprintf("record %d", i), err)
		}
		if len(names) != len(columns) {
			return Table{}, NewError(KindUnsupportedShape, fmt.Sprintf("heterogeneous records: record %d has %d fields, expected %d", i, len(names), len(columns)), nil)
		}
		row := make([]any, len(columns))
		for j, name := range names {
			idx, ok := position[name]
			if !ok {
				return Table{}, NewError(KindUnsupportedShape, fmt.Sprintf("heterogeneous records: record %d has unknown field %q", i, name), nil)
			}
			row[idx] = cellValue(values[j], layout)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func sequence(value any, label string) ([]any, error) {
	if value == nil {
		return nil, nil
	}
	if items, ok := value.([]any); ok {
		return items, nil
	}
	if err := checkSequence(value, label); err != nil {
		return nil, err
	}
	rv := indirect(reflect.ValueOf(value))
	if !rv.IsValid() {
		return nil, nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// recordFields returns the field names and values of a single record in column order.
func recordFields(record any) ([]string, []any, error) {
	if rec, ok := record.(*Record); ok {
		if rec == nil {
			return nil, nil, fmt.Errorf("record is null")
		}
		names := rec.Keys()
		values := make([]any, len(names))
		for i, name := range names {
			values[i], _ = rec.Get(name)
		}
		return names, values, nil
	}

	rv := indirect(reflect.ValueOf(record))
	if !rv.IsValid() {
		return nil, nil, fmt.Errorf("record is null")
	}

	switch rv.Kind() {
	case reflect.Struct:
		fields := structFields(rv.Type())
		names := make([]string, len(fields))
		values := make([]any, len(fields))
		for i, f := range fields {
			names[i] = f.name
			values[i] = fieldValue(rv, f.index)
		}
		return names, values, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		keys := rv.MapKeys()
		names := make([]string, len(keys))
		for i, key := range keys {
			names[i] = key.String()
		}
		sort.Strings(names)
		values := make([]any, len(names))
		keyType := rv.Type().Key()
		for i, name := range names {
			values[i] = rv.MapIndex(reflect.ValueOf(name).Convert(keyType)).Interface()
		}
		return names, values, nil
	}
	return nil, nil, fmt.Errorf("record of type %s is not an object", rv.Type())
}

package export

import (
	"fmt"
	"reflect"
)

// ShapeKeys lists the field names that mark a structured result.
type ShapeKeys struct {
	Records []string
	Footer  []string
	Count   []string
	Limit   []string
	Page    []string
}

// DefaultShapeKeys matches the listData/footerData paging layout plus common aliases.
func DefaultShapeKeys() ShapeKeys {
	return ShapeKeys{
		Records: []string{"listData", "items", "list_data"},
		Footer:  []string{"footerData", "footerItems", "footer_data", "footer_items"},
		Count:   []string{"count", "total"},
		Limit:   []string{"limit"},
		Page:    []string{"page"},
	}
}

func (k ShapeKeys) withDefaults() ShapeKeys {
	defaults := DefaultShapeKeys()
	if len(k.Records) == 0 {
		k.Records = defaults.Records
	}
	if len(k.Footer) == 0 {
		k.Footer = defaults.Footer
	}
	if len(k.Count) == 0 {
		k.Count = defaults.Count
	}
	if len(k.Limit) == 0 {
		k.Limit = defaults.Limit
	}
	if len(k.Page) == 0 {
		k.Page = defaults.Page
	}
	return k
}

// Classifier turns handler results into envelopes.
type Classifier struct {
	Keys ShapeKeys
}

// Classify returns the envelope for value. Envelope values are returned as is; other
// values are classified by shape: sequences are Plain, objects with a footer field are
// PagedWithFooter, objects with a records field are Paged.
func (c Classifier) Classify(value any) (Envelope, error) {
	switch v := value.(type) {
	case nil:
		return nil, NewError(KindUnsupportedShape, "result is nil", nil)
	case Envelope:
		if _, _, err := envelopeParts(v); err != nil {
			return nil, err
		}
		return v, nil
	case *Record:
		if v == nil {
			return nil, NewError(KindUnsupportedShape, "result is nil", nil)
		}
		return c.classifyObject(v.Get)
	}

	rv := indirect(reflect.ValueOf(value))
	if !rv.IsValid() {
		return nil, NewError(KindUnsupportedShape, "result is nil", nil)
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if isBytes(rv.Type()) {
			return nil, NewError(KindUnsupportedShape, "raw bytes are not a record sequence", nil)
		}
		return Plain{Items: rv.Interface()}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, NewError(KindUnsupportedShape, fmt.Sprintf("unsupported map key type %s", rv.Type().Key()), nil)
		}
		return c.classifyObject(mapLookup(rv))
	case reflect.Struct:
		return c.classifyObject(structLookup(rv))
	default:
		return nil, NewError(KindUnsupportedShape, fmt.Sprintf("unsupported result type %s", rv.Type()), nil)
	}
}

type lookupFunc func(name string) (any, bool)

func (c Classifier) classifyObject(lookup lookupFunc) (Envelope, error) {
	keys := c.Keys.withDefaults()

	records, ok := lookupFirst(lookup, keys.Records)
	if !ok {
		return nil, NewError(KindUnsupportedShape, "result has no records field", nil)
	}
	if err := checkSequence(records, "records"); err != nil {
		return nil, err
	}

	paged := Paged{Items: records}
	if count, ok := lookupFirst(lookup, keys.Count); ok {
		paged.Count, _ = coerceInt64(count)
	}
	if limit, ok := lookupFirst(lookup, keys.Limit); ok {
		n, _ := coerceInt64(limit)
		paged.Limit = int(n)
	}
	if page, ok := lookupFirst(lookup, keys.Page); ok {
		n, _ := coerceInt64(page)
		paged.Page = int(n)
	}

	if footer, ok := lookupFirst(lookup, keys.Footer); ok {
		if err := checkSequence(footer, "footer"); err != nil {
			return nil, err
		}
		return PagedWithFooter{Paged: paged, FooterItems: footer}, nil
	}
	return paged, nil
}

func lookupFirst(lookup lookupFunc, names []string) (any, bool) {
	for _, name := range names {
		if v, ok := lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

func mapLookup(rv reflect.Value) lookupFunc {
	keyType := rv.Type().Key()
	return func(name string) (any, bool) {
		v := rv.MapIndex(reflect.ValueOf(name).Convert(keyType))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	}
}

func structLookup(rv reflect.Value) lookupFunc {
	fields := structFields(rv.Type())
	return func(name string) (any, bool) {
		for _, f := range fields {
			if f.name == name {
				return fieldValue(rv, f.index), true
			}
		}
		return nil, false
	}
}

func checkSequence(value any, label string) error {
	if value == nil {
		return nil
	}
	if _, ok := value.([]any); ok {
		return nil
	}
	rv := indirect(reflect.ValueOf(value))
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if isBytes(rv.Type()) {
			return NewError(KindUnsupportedShape, label+" field holds raw bytes", nil)
		}
		return nil
	}
	return NewError(KindUnsupportedShape, fmt.Sprintf("%s field is %s, not a sequence", label, rv.Type()), nil)
}

package export

import (
	"encoding/json"
	"testing"
)

func TestRewriteLimit(t *testing.T) {
	out, changed, err := RewriteLimit([]byte(`{"page":2,"limit":20,"filter":{"limit":5},"q":"<a>"}`), 10000)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if !changed {
		t.Fatalf("expected body to change")
	}
	if string(out) != `{"page":2,"limit":10000,"filter":{"limit":5},"q":"<a>"}` {
		t.Fatalf("unexpected body %s", out)
	}
}

func TestRewriteLimit_Unchanged(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"whitespace":     "  \n",
		"no limit":       `{"page":1}`,
		"nested limit":   `{"filter":{"limit":5}}`,
		"empty document": `{}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			out, changed, err := RewriteLimit([]byte(body), 50)
			if err != nil {
				t.Fatalf("rewrite: %v", err)
			}
			if changed {
				t.Fatalf("expected no change")
			}
			if string(out) != body {
				t.Fatalf("expected body to pass through, got %s", out)
			}
		})
	}
}

func TestRewriteLimit_Malformed(t *testing.T) {
	for _, body := range []string{`{"limit":`, `[1,2]`, `"limit"`, `{"limit":1} {}`} {
		if _, _, err := RewriteLimit([]byte(body), 10); KindFromError(err) != KindMalformedBody {
			t.Fatalf("expected malformed body for %q, got %v", body, err)
		}
	}
}

func TestRequested(t *testing.T) {
	if Requested("") {
		t.Fatalf("expected missing header to be ignored")
	}
	if !Requested("1") || !Requested("true") || !Requested(" ") {
		t.Fatalf("expected non-empty header to opt in")
	}
}

func TestRecord_KeepsOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("z", 1)
	rec.Set("a", "two")
	rec.Set("z", 3)

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"z":3,"a":"two"}` {
		t.Fatalf("unexpected json %s", data)
	}
	if rec.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", rec.Len())
	}
	if v, ok := rec.Get("a"); !ok || v != "two" {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestDecodeOrdered(t *testing.T) {
	value, err := DecodeOrdered([]byte(`{"b":{"y":1,"x":[true,null]},"a":1.5}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rec, ok := value.(*Record)
	if !ok {
		t.Fatalf("expected record, got %T", value)
	}
	if keys := rec.Keys(); len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if n, _ := rec.Get("a"); n != json.Number("1.5") {
		t.Fatalf("expected json number, got %#v", n)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"b":{"y":1,"x":[true,null]},"a":1.5}` {
		t.Fatalf("unexpected round trip %s", data)
	}
}

package export

import "bytes"

// LimitField is the pagination field overridden on export requests.
const LimitField = "limit"

// Requested reports whether a header value opts the request into exporting. Any
// non-empty value does, whitespace included.
func Requested(headerValue string) bool {
	return headerValue != ""
}

// RewriteLimit replaces the top-level limit field of a JSON object body. The body is
// returned unchanged when it is empty or has no limit field. Key order is preserved.
func RewriteLimit(body []byte, limit int) ([]byte, bool, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return body, false, nil
	}

	value, err := DecodeOrdered(body)
	if err != nil {
		return nil, false, NewError(KindMalformedBody, "request body is not valid JSON", err)
	}
	rec, ok := value.(*Record)
	if !ok {
		return nil, false, NewError(KindMalformedBody, "request body is not a JSON object", nil)
	}
	if _, ok := rec.Get(LimitField); !ok {
		return body, false, nil
	}

	rec.Set(LimitField, limit)
	out, err := rec.MarshalJSON()
	if err != nil {
		return nil, false, NewError(KindInternal, "encode request body", err)
	}
	return out, true, nil
}

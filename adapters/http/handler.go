package exporthttp

import (
	"context"
	"net/http"

	"github.com/goliatone/go-export-xlsx/adapters/exportapi"
	"github.com/goliatone/go-export-xlsx/export"
)

// Middleware converts JSON responses into spreadsheet downloads for requests carrying
// the export header. Other requests reach next untouched.
func Middleware(pipeline *export.Pipeline) func(http.Handler) http.Handler {
	responder := exportapi.NewResponder(pipeline)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if w == nil || r == nil {
				return
			}
			if !exportapi.Requested(httpRequest{r: r}) {
				next.ServeHTTP(w, r)
				return
			}
			serveExport(responder, next, w, r)
		})
	}
}

// Endpoint returns the middleware for a configured endpoint key.
func Endpoint(pipelines exportapi.Pipelines, key string) (func(http.Handler) http.Handler, error) {
	pipeline, err := pipelines.Lookup(key)
	if err != nil {
		return nil, err
	}
	return Middleware(pipeline), nil
}

func serveExport(responder *exportapi.Responder, next http.Handler, w http.ResponseWriter, r *http.Request) {
	res := httpResponse{w: w}

	body, err := responder.RewriteRequest(httpRequest{r: r})
	if err != nil {
		responder.Fail(res, err)
		return
	}
	replaceBody(r, body)

	slot := &resultSlot{}
	ctx := context.WithValue(r.Context(), resultKey{}, slot)
	capture := newCaptureWriter()
	next.ServeHTTP(capture, r.WithContext(ctx))

	if result, ok := slot.get(); ok {
		_ = responder.Respond(ctx, res, result)
		return
	}

	captured := capture.captured()
	if !captured.Exportable() {
		capture.replay(w)
		return
	}
	result, err := captured.Decode()
	if err != nil {
		responder.Fail(res, err)
		return
	}
	_ = responder.Respond(ctx, res, result)
}

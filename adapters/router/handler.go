package exportrouter

import (
	"net/http"

	"github.com/goliatone/go-export-xlsx/adapters/exportapi"
	"github.com/goliatone/go-export-xlsx/export"
	"github.com/goliatone/go-router"
)

const (
	localsResult = "export.result"
	localsBody   = "export.body"
)

// Middleware converts handler results into spreadsheet downloads for requests carrying
// the export header. Handlers either hand their result over with Respond or write JSON
// as usual; both are exported. Failed and non JSON responses are replayed unchanged.
func Middleware(pipeline *export.Pipeline) router.MiddlewareFunc {
	responder := exportapi.NewResponder(pipeline)
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if c == nil || !exportapi.Requested(routerRequest{ctx: c}) {
				return next(c)
			}

			res := newRouterResponse(c)
			body, err := responder.RewriteRequest(routerRequest{ctx: c})
			if err != nil {
				responder.Fail(res, err)
				return nil
			}
			res.delHeader = installBody(c, body)
			c.Locals(localsBody, body)

			slot := &resultSlot{}
			c.Locals(localsResult, slot)
			capture := newCaptureContext(c, body)
			if err := next(capture.handlerContext()); err != nil {
				return err
			}

			if result, ok := slot.get(); ok {
				_ = responder.Respond(c.Context(), res, result)
				return nil
			}
			if !capture.wrote {
				// written outside the response API (render, redirect) or not at all
				return nil
			}

			captured := capture.captured()
			if !captured.Exportable() {
				return capture.replay(c)
			}
			result, err := captured.Decode()
			if err != nil {
				responder.Fail(res, err)
				return nil
			}
			_ = responder.Respond(c.Context(), res, result)
			return nil
		}
	}
}

// Endpoint returns the middleware for a configured endpoint key.
func Endpoint(pipelines exportapi.Pipelines, key string) (router.MiddlewareFunc, error) {
	pipeline, err := pipelines.Lookup(key)
	if err != nil {
		return nil, err
	}
	return Middleware(pipeline), nil
}

// Respond sends value as JSON, or hands it to the export middleware when the request is
// being exported and status is a success.
func Respond(c router.Context, status int, value any) error {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		if slot := slotFrom(c); slot != nil {
			slot.store(value)
			return nil
		}
	}
	return c.JSON(status, value)
}

// Body returns the request body, with the export limit applied when exporting.
func Body(c router.Context) []byte {
	if c == nil {
		return nil
	}
	if body, ok := c.Locals(localsBody).([]byte); ok {
		return body
	}
	return c.Body()
}

// Exporting reports whether c is being served by the export middleware.
func Exporting(c router.Context) bool {
	return slotFrom(c) != nil
}

func slotFrom(c router.Context) *resultSlot {
	if c == nil {
		return nil
	}
	slot, _ := c.Locals(localsResult).(*resultSlot)
	return slot
}

type resultSlot struct {
	value any
	set   bool
}

func (s *resultSlot) store(value any) {
	s.value = value
	s.set = true
}

func (s *resultSlot) get() (any, bool) {
	return s.value, s.set
}

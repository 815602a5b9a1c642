package exportrouter

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/goliatone/go-export-xlsx/adapters/exportapi"
	"github.com/goliatone/go-router"
)

// captureContext hands the handler a context whose response API writes into a buffer.
// Request side calls, locals and the store reach the wrapped context unchanged.
type captureContext struct {
	routerContext
	body   []byte
	header http.Header
	status int
	buf    bytes.Buffer
	wrote  bool
}

// routerContext names the embedded router.Context so the field does not
// collide with the promoted Context() method.
type routerContext = router.Context

func newCaptureContext(c router.Context, body []byte) *captureContext {
	return &captureContext{routerContext: c, body: body, header: make(http.Header)}
}

// handlerContext returns the context passed to the handler. net/http backed contexts
// keep exposing Request and Response.
func (c *captureContext) handlerContext() router.Context {
	if httpCtx, ok := router.AsHTTPContext(c.routerContext); ok {
		return &captureHTTPContext{captureContext: c, inner: httpCtx}
	}
	return c
}

func (c *captureContext) Body() []byte { return c.body }

func (c *captureContext) Status(code int) router.Context {
	c.setStatus(code)
	return c
}

func (c *captureContext) Send(body []byte) error {
	c.write(body)
	return nil
}

func (c *captureContext) SendString(body string) error {
	c.write([]byte(body))
	return nil
}

func (c *captureContext) SendStatus(code int) error {
	c.setStatus(code)
	return nil
}

func (c *captureContext) JSON(code int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.header.Set("Content-Type", "application/json")
	c.setStatus(code)
	c.write(data)
	return nil
}

func (c *captureContext) SendStream(r io.Reader) error {
	c.write(nil)
	if r == nil {
		return nil
	}
	_, err := io.Copy(&c.buf, r)
	return err
}

func (c *captureContext) NoContent(code int) error {
	c.setStatus(code)
	return nil
}

func (c *captureContext) SetHeader(key, value string) router.Context {
	c.header.Set(key, value)
	return c
}

func (c *captureContext) setStatus(code int) {
	c.status = code
	c.wrote = true
}

func (c *captureContext) write(data []byte) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.wrote = true
	c.buf.Write(data)
}

func (c *captureContext) captured() exportapi.Captured {
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return exportapi.Captured{
		Status:      status,
		ContentType: c.header.Get("Content-Type"),
		Body:        c.buf.Bytes(),
	}
}

// replay writes the held response to dst unchanged.
func (c *captureContext) replay(dst router.Context) error {
	for key, values := range c.header {
		if len(values) > 0 {
			dst.SetHeader(key, values[0])
		}
	}
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return dst.Status(status).Send(c.buf.Bytes())
}

type captureHTTPContext struct {
	*captureContext
	inner router.HTTPContext
}

func (c *captureHTTPContext) Status(code int) router.Context {
	c.setStatus(code)
	return c
}

func (c *captureHTTPContext) SetHeader(key, value string) router.Context {
	c.header.Set(key, value)
	return c
}

func (c *captureHTTPContext) Request() *http.Request { return c.inner.Request() }

func (c *captureHTTPContext) Response() http.ResponseWriter {
	return captureWriter{c: c.captureContext}
}

type captureWriter struct {
	c *captureContext
}

func (w captureWriter) Header() http.Header { return w.c.header }

func (w captureWriter) WriteHeader(status int) {
	if !w.c.wrote {
		w.c.setStatus(status)
	}
}

func (w captureWriter) Write(data []byte) (int, error) {
	w.c.write(data)
	return len(data), nil
}

var _ router.Context = (*captureContext)(nil)
var _ router.HTTPContext = (*captureHTTPContext)(nil)

package exportrouter

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/goliatone/go-export-xlsx/adapters/exportapi"
	"github.com/goliatone/go-router"
)

var _ exportapi.Response = (*routerResponse)(nil)
var _ exportapi.Request = routerRequest{}

type routerRequest struct {
	ctx router.Context
}

func (req routerRequest) Context() context.Context {
	if req.ctx == nil {
		return context.Background()
	}
	return req.ctx.Context()
}

func (req routerRequest) Method() string {
	if req.ctx == nil {
		return ""
	}
	return req.ctx.Method()
}

func (req routerRequest) Path() string {
	if req.ctx == nil {
		return ""
	}
	return req.ctx.Path()
}

func (req routerRequest) Header(name string) string {
	if req.ctx == nil {
		return ""
	}
	return req.ctx.Header(name)
}

func (req routerRequest) Body() io.ReadCloser {
	if req.ctx == nil {
		return nil
	}
	return io.NopCloser(bytes.NewReader(req.ctx.Body()))
}

type routerResponse struct {
	ctx router.Context
	// delHeader removes a header from the native response when the adapter allows it.
	delHeader func(string)
	staged    map[string]struct{}
}

func newRouterResponse(c router.Context) *routerResponse {
	return &routerResponse{ctx: c, staged: make(map[string]struct{})}
}

func (res *routerResponse) SetHeader(name, value string) {
	if res.ctx == nil {
		return
	}
	res.staged[http.CanonicalHeaderKey(name)] = struct{}{}
	res.ctx.SetHeader(name, value)
}

// DelHeader drops a header staged by this response. Headers it never set are left alone.
func (res *routerResponse) DelHeader(name string) {
	key := http.CanonicalHeaderKey(name)
	if res.ctx == nil {
		return
	}
	if _, ok := res.staged[key]; !ok {
		return
	}
	delete(res.staged, key)
	if res.delHeader != nil {
		res.delHeader(name)
		return
	}
	if httpCtx, ok := router.AsHTTPContext(res.ctx); ok && httpCtx.Response() != nil {
		httpCtx.Response().Header().Del(name)
		return
	}
	res.ctx.SetHeader(name, "")
}

func (res *routerResponse) WriteHeader(status int) {
	if res.ctx == nil {
		return
	}
	res.ctx.Status(status)
}

func (res *routerResponse) Write(data []byte) (int, error) {
	if res.ctx == nil {
		return 0, nil
	}
	if err := res.ctx.Send(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (res *routerResponse) WriteJSON(status int, payload any) error {
	if res.ctx == nil {
		return nil
	}
	return res.ctx.JSON(status, payload)
}

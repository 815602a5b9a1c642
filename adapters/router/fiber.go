package exportrouter

import (
	"bytes"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// installBody makes body the request body every later reader of c sees: fiber's
// Body/Bind and net/http request readers alike. On fiber it also returns a remover for
// response headers; other adapters return nil.
func installBody(c router.Context, body []byte) func(string) {
	var delHeader func(string)
	install := router.MiddlewareFromFiber(func(fc *fiber.Ctx) error {
		fc.Request().SetBody(body)
		fc.Request().Header.SetContentLength(len(body))
		delHeader = fc.Response().Header.Del
		return nil
	})
	_ = install(func(router.Context) error { return nil })(c)

	if httpCtx, ok := router.AsHTTPContext(c); ok {
		if req := httpCtx.Request(); req != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}
	}
	return delHeader
}

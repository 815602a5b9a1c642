package exportapi

import (
	"context"
	"io"

	"github.com/goliatone/go-export-xlsx/export"
)

// Request provides minimal request access for transport adapters.
type Request interface {
	Context() context.Context
	Method() string
	Path() string
	Header(name string) string
	Body() io.ReadCloser
}

// Requested reports whether req opted into the export pipeline.
func Requested(req Request) bool {
	if req == nil {
		return false
	}
	return export.Requested(req.Header(export.HeaderExport))
}

// ReadBody drains and closes the request body. A missing body reads as empty.
func ReadBody(req Request) ([]byte, error) {
	if req == nil {
		return nil, export.NewError(export.KindInternal, "request is nil", nil)
	}
	body := req.Body()
	if body == nil {
		return nil, nil
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, export.NewError(export.KindMalformedBody, "read request body", err)
	}
	return data, nil
}

package exportapi

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/goliatone/go-export-xlsx/export"
)

// Responder runs the export pipeline for one endpoint and writes the outcome through a
// transport neutral Response.
type Responder struct {
	Pipeline *export.Pipeline
}

// NewResponder creates a responder for pipeline.
func NewResponder(pipeline *export.Pipeline) *Responder {
	return &Responder{Pipeline: pipeline}
}

// RewriteRequest reads the request body and returns it with the limit override applied.
func (r *Responder) RewriteRequest(req Request) ([]byte, error) {
	if r == nil || r.Pipeline == nil {
		return nil, export.NewError(export.KindInternal, "export pipeline is not configured", nil)
	}
	body, err := ReadBody(req)
	if err != nil {
		return nil, err
	}
	return r.Pipeline.Rewrite(body)
}

// Respond exports result and writes either the file or the error body.
func (r *Responder) Respond(ctx context.Context, res Response, result any) error {
	if r == nil || r.Pipeline == nil {
		err := export.NewError(export.KindInternal, "export pipeline is not configured", nil)
		WriteError(res, err)
		return err
	}
	file, err := r.Pipeline.Export(ctx, result)
	if err != nil {
		WriteError(res, err)
		return err
	}
	if err := WriteFile(res, file); err != nil {
		r.Warn("export download write failed", "filename", file.Filename, "error", err)
		return err
	}
	return nil
}

// Fail writes err as the export outcome.
func (r *Responder) Fail(res Response, err error) {
	if r != nil && r.Pipeline != nil {
		r.Warn("export request rejected", "template", r.Pipeline.Config.TemplateName, "error", err)
	}
	WriteError(res, err)
}

// Warn logs through the pipeline logger.
func (r *Responder) Warn(msg string, args ...any) {
	if r == nil || r.Pipeline == nil || r.Pipeline.Logger == nil {
		return
	}
	r.Pipeline.Logger.Warn(msg, args...)
}

// Captured is a handler response held back while exporting.
type Captured struct {
	Status      int
	ContentType string
	Body        []byte
}

// Exportable reports whether the captured response should be converted. Failed
// responses, empty bodies and non JSON bodies are replayed unchanged.
func (c Captured) Exportable() bool {
	status := c.Status
	if status == 0 {
		status = http.StatusOK
	}
	if status < 200 || status > 299 {
		return false
	}
	if len(bytes.TrimSpace(c.Body)) == 0 {
		return false
	}
	return isJSON(c.ContentType)
}

// Decode parses the captured body keeping object key order.
func (c Captured) Decode() (any, error) {
	value, err := export.DecodeOrdered(c.Body)
	if err != nil {
		return nil, export.NewError(export.KindUnsupportedShape, "handler response is not valid JSON", err)
	}
	return value, nil
}

func isJSON(contentType string) bool {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

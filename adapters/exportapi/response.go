package exportapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-export-xlsx/export"
)

// Response provides a minimal response interface for transport adapters.
type Response interface {
	SetHeader(name, value string)
	DelHeader(name string)
	WriteHeader(status int)
	Write(data []byte) (int, error)
	WriteJSON(status int, payload any) error
}

// ErrorResponse describes JSON error responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains error details. Code is the application code; for empty exports
// it is export.CodeEmptyExport, otherwise the HTTP status.
type ErrorBody struct {
	Message  string `json:"message"`
	Code     int    `json:"code"`
	TextCode string `json:"text_code,omitempty"`
}

// ErrorPayload builds the error body and HTTP status for err.
func ErrorPayload(err error) (int, ErrorResponse) {
	ge := export.AsGoError(err)
	status := export.StatusForError(err)
	code := ge.Code
	if code == 0 {
		code = status
	}
	return status, ErrorResponse{
		Error: ErrorBody{
			Message:  ge.Message,
			Code:     code,
			TextCode: ge.TextCode,
		},
	}
}

// WriteError writes err as a JSON error body. No download headers are left behind.
func WriteError(res Response, err error) {
	if err == nil {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	clearDownloadHeaders(res)
	status, payload := ErrorPayload(err)
	_ = res.WriteJSON(status, payload)
}

// WriteFile writes a rendered export as a file download.
func WriteFile(res Response, file export.RenderedFile) error {
	setDownloadHeaders(res, sanitizeFilename(file.Filename), file.ContentType, len(file.Bytes))
	res.WriteHeader(http.StatusOK)
	_, err := res.Write(file.Bytes)
	return err
}

func sanitizeFilename(filename string) string {
	name := strings.TrimSpace(filename)
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "export" + export.DefaultTemplateExt
	}
	return name
}

func setDownloadHeaders(res Response, filename, contentType string, size int) {
	if contentType == "" {
		contentType = export.ContentTypeXLSX
	}
	res.SetHeader("Content-Type", contentType)
	res.SetHeader("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	res.SetHeader("Content-Length", strconv.Itoa(size))
}

func clearDownloadHeaders(res Response) {
	res.DelHeader("Content-Disposition")
	res.DelHeader("Content-Length")
}

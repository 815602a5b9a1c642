package export

import (
	"context"
	"errors"
	"net/http"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines export error kinds.
type ErrorKind string

const (
	KindMalformedBody       ErrorKind = "malformed_body"
	KindUnsupportedShape    ErrorKind = "unsupported_shape"
	KindEmptyExport         ErrorKind = "empty_export"
	KindTemplateUnavailable ErrorKind = "template_unavailable"
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindTimeout             ErrorKind = "timeout"
	KindCanceled            ErrorKind = "canceled"
	KindInternal            ErrorKind = "internal"
)

// CodeEmptyExport is the application code reported when an export has no rows.
const CodeEmptyExport = 40401

// MessageEmptyExport is the user facing message for empty exports.
const MessageEmptyExport = "no data to export"

// ExportError wraps errors with a kind.
type ExportError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewError creates a new export error.
func NewError(kind ErrorKind, msg string, err error) *ExportError {
	return &ExportError{Kind: kind, Msg: msg, Err: err}
}

// ErrEmptyExport is returned when classification succeeds but yields no rows.
var ErrEmptyExport = NewError(KindEmptyExport, MessageEmptyExport, nil)

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindFromError(err)
	msg := err.Error()

	var exportErr *ExportError
	if errors.As(err, &exportErr) && exportErr.Msg != "" {
		msg = exportErr.Msg
	}

	switch kind {
	case KindMalformedBody:
		return errorslib.Wrap(err, errorslib.CategoryBadInput, msg).
			WithTextCode("MALFORMED_BODY").WithCode(http.StatusBadRequest)
	case KindValidation:
		return errorslib.Wrap(err, errorslib.CategoryValidation, msg).
			WithTextCode("VALIDATION").WithCode(http.StatusBadRequest)
	case KindEmptyExport:
		return errorslib.Wrap(err, errorslib.CategoryOperation, msg).
			WithTextCode("EMPTY_EXPORT").WithCode(CodeEmptyExport)
	case KindUnsupportedShape:
		return errorslib.Wrap(err, errorslib.CategoryInternal, msg).
			WithTextCode("UNSUPPORTED_RESULT_SHAPE").WithCode(http.StatusInternalServerError)
	case KindTemplateUnavailable:
		return errorslib.Wrap(err, errorslib.CategoryInternal, msg).
			WithTextCode("TEMPLATE_UNAVAILABLE").WithCode(http.StatusInternalServerError)
	case KindNotFound:
		return errorslib.Wrap(err, errorslib.CategoryNotFound, msg).
			WithTextCode("NOT_FOUND").WithCode(http.StatusNotFound)
	case KindTimeout:
		return errorslib.Wrap(err, errorslib.CategoryOperation, msg).
			WithTextCode("TIMEOUT").WithCode(http.StatusRequestTimeout)
	case KindCanceled:
		return errorslib.Wrap(err, errorslib.CategoryOperation, msg).
			WithTextCode("CANCELED").WithCode(http.StatusRequestTimeout)
	default:
		return errorslib.Wrap(err, errorslib.CategoryInternal, msg).
			WithTextCode("INTERNAL").WithCode(http.StatusInternalServerError)
	}
}

// KindFromError maps an error to its export error kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return exportErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	return KindInternal
}

// StatusForError returns the HTTP status a transport should use for err.
func StatusForError(err error) int {
	switch KindFromError(err) {
	case "":
		return http.StatusOK
	case KindMalformedBody, KindValidation:
		return http.StatusBadRequest
	case KindEmptyExport:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout, KindCanceled:
		return http.StatusRequestTimeout
	default:
		var ge *errorslib.Error
		if errors.As(err, &ge) {
			switch ge.Category {
			case errorslib.CategoryValidation, errorslib.CategoryBadInput:
				return http.StatusBadRequest
			case errorslib.CategoryNotFound:
				return http.StatusNotFound
			}
		}
		return http.StatusInternalServerError
	}
}

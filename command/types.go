package command

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-export-xlsx/export"
)

// RenderExport renders a handler result through a configured endpoint pipeline.
type RenderExport struct {
	Endpoint string
	Result   any
	File     *export.RenderedFile
}

func (RenderExport) Type() string { return "export:render" }

func (msg RenderExport) Validate() error {
	if msg.Endpoint == "" {
		return errors.New("endpoint is required", errors.CategoryValidation).
			WithTextCode("ENDPOINT_REQUIRED")
	}
	if msg.Result == nil {
		return errors.New("result is required", errors.CategoryValidation).
			WithTextCode("RESULT_REQUIRED")
	}
	return nil
}

// PruneActivity removes expired export activity.
type PruneActivity struct {
	Now    time.Time
	Result *int64
}

func (PruneActivity) Type() string { return "export:activity:prune" }

func (PruneActivity) Validate() error { return nil }

// EvictTemplates drops cached templates. An empty Name purges the whole cache.
type EvictTemplates struct {
	Name string
}

func (EvictTemplates) Type() string { return "export:templates:evict" }

func (EvictTemplates) Validate() error { return nil }

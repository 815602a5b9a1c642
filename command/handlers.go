package command

import (
	"context"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-export-xlsx/export"
)

// PipelineLookup resolves endpoint pipelines.
type PipelineLookup interface {
	Lookup(key string) (*export.Pipeline, error)
}

// TemplateEvicter drops cached templates.
type TemplateEvicter interface {
	Evict(name string)
	Purge()
}

// RenderExportHandler renders results outside of an HTTP request.
type RenderExportHandler struct {
	Pipelines PipelineLookup
}

func NewRenderExportHandler(pipelines PipelineLookup) *RenderExportHandler {
	return &RenderExportHandler{Pipelines: pipelines}
}

func (h *RenderExportHandler) Execute(ctx context.Context, msg RenderExport) error {
	if h == nil || h.Pipelines == nil {
		return errors.New("export pipelines are required", errors.CategoryInternal).
			WithTextCode("PIPELINES_REQUIRED")
	}
	pipeline, err := h.Pipelines.Lookup(msg.Endpoint)
	if err != nil {
		return export.AsGoError(err)
	}
	file, err := pipeline.Export(ctx, msg.Result)
	if err != nil {
		return export.AsGoError(err)
	}
	if msg.File != nil {
		*msg.File = file
	}
	if res := gcmd.ResultFromContext[export.RenderedFile](ctx); res != nil {
		res.Store(file)
	}
	return nil
}

// PruneActivityHandler applies the retention rules to the activity log.
type PruneActivityHandler struct {
	Activity  export.ActivityLog
	Retention export.RetentionRules
	Config    gcmd.HandlerConfig
	Clock     func() time.Time
}

func NewPruneActivityHandler(activity export.ActivityLog, retention export.RetentionRules) *PruneActivityHandler {
	return &PruneActivityHandler{
		Activity:  activity,
		Retention: retention,
		Config:    gcmd.HandlerConfig{Expression: "0 3 * * *"},
	}
}

func (h *PruneActivityHandler) Execute(ctx context.Context, msg PruneActivity) error {
	if h == nil || h.Activity == nil {
		return errors.New("activity log is required", errors.CategoryInternal).
			WithTextCode("ACTIVITY_REQUIRED")
	}
	now := msg.Now
	if now.IsZero() && h.Clock != nil {
		now = h.Clock()
	}
	if now.IsZero() {
		now = time.Now()
	}
	removed, err := h.Retention.Sweep(ctx, h.Activity, now)
	if err != nil {
		return export.AsGoError(err)
	}
	if msg.Result != nil {
		*msg.Result = removed
	}
	if res := gcmd.ResultFromContext[int64](ctx); res != nil {
		res.Store(removed)
	}
	return nil
}

func (h *PruneActivityHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), PruneActivity{})
	}
}

func (h *PruneActivityHandler) CronOptions() gcmd.HandlerConfig {
	return h.Config
}

// EvictTemplatesHandler clears cached templates.
type EvictTemplatesHandler struct {
	Cache TemplateEvicter
}

func NewEvictTemplatesHandler(cache TemplateEvicter) *EvictTemplatesHandler {
	return &EvictTemplatesHandler{Cache: cache}
}

func (h *EvictTemplatesHandler) Execute(ctx context.Context, msg EvictTemplates) error {
	_ = ctx
	if h == nil || h.Cache == nil {
		return errors.New("template cache is required", errors.CategoryInternal).
			WithTextCode("CACHE_REQUIRED")
	}
	if msg.Name == "" {
		h.Cache.Purge()
		return nil
	}
	h.Cache.Evict(msg.Name)
	return nil
}

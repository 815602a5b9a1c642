package exportactivity

import (
	"context"
	"strings"

	"github.com/goliatone/go-export-xlsx/export"
	"github.com/goliatone/go-users/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Config configures the activity emitter adapter.
type Config struct {
	Sink       types.ActivitySink
	Channel    string
	ObjectType string
	// ActorID resolves the acting user from the request context. Unknown actors are
	// logged as uuid.Nil.
	ActorID func(ctx context.Context) string
	// Requested also logs export.requested events when set.
	Requested bool
}

// Emitter forwards pipeline lifecycle events into go-users activity records.
type Emitter struct {
	sink       types.ActivitySink
	channel    string
	objectType string
	actorID    func(ctx context.Context) string
	requested  bool
}

// NewEmitter creates a new activity emitter.
func NewEmitter(cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = "export"
	}
	objectType := strings.TrimSpace(cfg.ObjectType)
	if objectType == "" {
		objectType = "spreadsheet_export"
	}
	return &Emitter{
		sink:       cfg.Sink,
		channel:    channel,
		objectType: objectType,
		actorID:    cfg.ActorID,
		requested:  cfg.Requested,
	}
}

var _ export.MetricsHook = (*Emitter)(nil)

// Emit logs export lifecycle events to the configured ActivitySink.
func (e *Emitter) Emit(ctx context.Context, evt export.MetricsEvent) error {
	if e == nil {
		return export.NewError(export.KindInternal, "activity emitter is nil", nil)
	}
	if e.sink == nil {
		return export.NewError(export.KindInternal, "activity sink not configured", nil)
	}
	verb := strings.TrimSpace(evt.Name)
	if verb == "" {
		return export.NewError(export.KindValidation, "activity verb is required", nil)
	}
	if verb == export.EventExportRequested && !e.requested {
		return nil
	}
	objectID := strings.TrimSpace(evt.ExportID)
	if objectID == "" {
		return export.NewError(export.KindValidation, "activity object ID is required", nil)
	}

	actor := ""
	if e.actorID != nil {
		actor = e.actorID(ctx)
	}

	record, err := activity.BuildRecordFromUUID(
		parseUUID(actor),
		verb,
		e.objectType,
		objectID,
		buildMetadata(evt),
		activity.WithChannel(e.channel),
		activity.WithOccurredAt(evt.Timestamp),
	)
	if err != nil {
		return err
	}
	return e.sink.Log(ctx, record)
}

func buildMetadata(evt export.MetricsEvent) map[string]any {
	meta := make(map[string]any, 6)
	if evt.Template != "" {
		meta["template"] = evt.Template
	}
	if evt.Envelope != "" {
		meta["envelope"] = string(evt.Envelope)
	}
	if evt.Rows > 0 {
		meta["rows"] = evt.Rows
	}
	if evt.Bytes > 0 {
		meta["bytes"] = evt.Bytes
	}
	if evt.Duration > 0 {
		meta["duration_ms"] = evt.Duration.Milliseconds()
	}
	if evt.ErrorKind != "" {
		meta["error_kind"] = string(evt.ErrorKind)
	}
	return meta
}

func parseUUID(value string) uuid.UUID {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return parsed
}

package query

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-export-xlsx/export"
)

// ActivityGetter loads a single activity record.
type ActivityGetter interface {
	Get(ctx context.Context, id string) (export.ActivityRecord, error)
}

// ActivityHistoryHandler returns recorded export attempts.
type ActivityHistoryHandler struct {
	Activity export.ActivityLog
}

func NewActivityHistoryHandler(activity export.ActivityLog) *ActivityHistoryHandler {
	return &ActivityHistoryHandler{Activity: activity}
}

func (h *ActivityHistoryHandler) Query(ctx context.Context, msg ActivityHistory) ([]export.ActivityRecord, error) {
	if h == nil || h.Activity == nil {
		return nil, errors.New("activity log is required", errors.CategoryInternal).
			WithTextCode("ACTIVITY_REQUIRED")
	}
	records, err := h.Activity.List(ctx, msg.Filter)
	if err != nil {
		return nil, export.AsGoError(err)
	}
	return records, nil
}

// ActivityDetailHandler returns one export attempt.
type ActivityDetailHandler struct {
	Activity ActivityGetter
}

func NewActivityDetailHandler(activity ActivityGetter) *ActivityDetailHandler {
	return &ActivityDetailHandler{Activity: activity}
}

func (h *ActivityDetailHandler) Query(ctx context.Context, msg ActivityDetail) (export.ActivityRecord, error) {
	if h == nil || h.Activity == nil {
		return export.ActivityRecord{}, errors.New("activity log is required", errors.CategoryInternal).
			WithTextCode("ACTIVITY_REQUIRED")
	}
	record, err := h.Activity.Get(ctx, msg.ID)
	if err != nil {
		return export.ActivityRecord{}, export.AsGoError(err)
	}
	return record, nil
}

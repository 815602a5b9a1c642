package query

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-export-xlsx/export"
)

// ActivityHistory lists recorded export attempts.
type ActivityHistory struct {
	Filter export.ActivityFilter
}

func (ActivityHistory) Type() string { return "export:activity:history" }

func (msg ActivityHistory) Validate() error {
	if msg.Filter.Limit < 0 {
		return errors.New("limit must not be negative", errors.CategoryValidation).
			WithTextCode("LIMIT_INVALID")
	}
	if !msg.Filter.Since.IsZero() && !msg.Filter.Until.IsZero() && msg.Filter.Until.Before(msg.Filter.Since) {
		return errors.New("until must not precede since", errors.CategoryValidation).
			WithTextCode("RANGE_INVALID")
	}
	return nil
}

// ActivityDetail requests a single export attempt.
type ActivityDetail struct {
	ID string
}

func (ActivityDetail) Type() string { return "export:activity:detail" }

func (msg ActivityDetail) Validate() error {
	if msg.ID == "" {
		return errors.New("activity ID is required", errors.CategoryValidation).
			WithTextCode("ACTIVITY_ID_REQUIRED")
	}
	return nil
}

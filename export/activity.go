package export

import (
	"context"
	"time"
)

// ActivityState is the outcome of an export attempt.
type ActivityState string

const (
	ActivityCompleted ActivityState = "completed"
	ActivityFailed    ActivityState = "failed"
	ActivityCanceled  ActivityState = "canceled"
)

// ActivityRecord describes one export attempt.
type ActivityRecord struct {
	ID         string
	Template   string
	Envelope   EnvelopeKind
	State      ActivityState
	Filename   string
	Rows       int64
	FooterRows int64
	Bytes      int64
	ErrorKind  ErrorKind
	Error      string
	Duration   time.Duration
	CreatedAt  time.Time
}

// ActivityFilter narrows activity listings. Zero fields match everything.
type ActivityFilter struct {
	Template string
	State    ActivityState
	Since    time.Time
	Until    time.Time
	Limit    int
}

// Match reports whether record passes the filter, ignoring Limit.
func (f ActivityFilter) Match(record ActivityRecord) bool {
	if f.Template != "" && record.Template != f.Template {
		return false
	}
	if f.State != "" && record.State != f.State {
		return false
	}
	if !f.Since.IsZero() && record.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && record.CreatedAt.After(f.Until) {
		return false
	}
	return true
}

// Expired reports whether record matches the prune filter: same template and state
// constraints as Match, created strictly before Until.
func (f ActivityFilter) Expired(record ActivityRecord) bool {
	if f.Until.IsZero() || !record.CreatedAt.Before(f.Until) {
		return false
	}
	if f.Template != "" && record.Template != f.Template {
		return false
	}
	return f.State == "" || record.State == f.State
}

// ActivityLog persists export attempts.
type ActivityLog interface {
	Record(ctx context.Context, record ActivityRecord) error
	List(ctx context.Context, filter ActivityFilter) ([]ActivityRecord, error)
	// Prune deletes records matching filter.Template and filter.State that were created
	// before filter.Until, and returns how many were removed.
	Prune(ctx context.Context, filter ActivityFilter) (int64, error)
}

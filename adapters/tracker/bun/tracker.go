package trackerbun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-export-xlsx/export"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivityLog stores export activity in a Bun-backed database.
type ActivityLog struct {
	DB          *bun.DB
	Now         func() time.Time
	IDGenerator func() string
}

// NewActivityLog creates a Bun-backed activity log.
func NewActivityLog(db *bun.DB) *ActivityLog {
	return &ActivityLog{DB: db, Now: time.Now, IDGenerator: uuid.NewString}
}

// CreateSchema creates the activity table when missing.
func (l *ActivityLog) CreateSchema(ctx context.Context) error {
	if l == nil || l.DB == nil {
		return export.NewError(export.KindInternal, "activity database not configured", nil)
	}
	if _, err := l.DB.NewCreateTable().Model((*activityModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := l.DB.NewCreateIndex().Model((*activityModel)(nil)).
		Index("export_activity_created_at_idx").
		Column("created_at").
		IfNotExists().
		Exec(ctx)
	return err
}

// Record inserts an activity record.
func (l *ActivityLog) Record(ctx context.Context, record export.ActivityRecord) error {
	if l == nil || l.DB == nil {
		return export.NewError(export.KindInternal, "activity database not configured", nil)
	}
	if record.ID == "" {
		record.ID = l.nextID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = l.now()
	}

	model := modelFromRecord(record)
	_, err := l.DB.NewInsert().Model(&model).Exec(ctx)
	return err
}

// Get returns a record by ID.
func (l *ActivityLog) Get(ctx context.Context, id string) (export.ActivityRecord, error) {
	if l == nil || l.DB == nil {
		return export.ActivityRecord{}, export.NewError(export.KindInternal, "activity database not configured", nil)
	}
	if id == "" {
		return export.ActivityRecord{}, export.NewError(export.KindValidation, "activity ID is required", nil)
	}

	model := new(activityModel)
	err := l.DB.NewSelect().Model(model).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return export.ActivityRecord{}, export.NewError(export.KindNotFound, fmt.Sprintf("activity %q not found", id), nil)
		}
		return export.ActivityRecord{}, err
	}
	return model.toRecord(), nil
}

// List returns records matching a filter, newest first.
func (l *ActivityLog) List(ctx context.Context, filter export.ActivityFilter) ([]export.ActivityRecord, error) {
	if l == nil || l.DB == nil {
		return nil, export.NewError(export.KindInternal, "activity database not configured", nil)
	}

	models := make([]activityModel, 0)
	query := l.DB.NewSelect().Model(&models)
	if filter.Template != "" {
		query = query.Where("template = ?", filter.Template)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at <= ?", filter.Until)
	}
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	records := make([]export.ActivityRecord, 0, len(models))
	for _, model := range models {
		records = append(records, model.toRecord())
	}
	return records, nil
}

// Prune deletes records matching filter created before filter.Until.
func (l *ActivityLog) Prune(ctx context.Context, filter export.ActivityFilter) (int64, error) {
	if l == nil || l.DB == nil {
		return 0, export.NewError(export.KindInternal, "activity database not configured", nil)
	}
	if filter.Until.IsZero() {
		return 0, export.NewError(export.KindValidation, "prune cutoff is required", nil)
	}
	query := l.DB.NewDelete().Model((*activityModel)(nil)).
		Where("created_at < ?", filter.Until)
	if filter.Template != "" {
		query = query.Where("template = ?", filter.Template)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

type activityModel struct {
	bun.BaseModel `bun:"table:export_activity,alias:export_activity"`

	ID         string    `bun:",pk"`
	Template   string    `bun:",notnull"`
	Envelope   string    `bun:"envelope"`
	State      string    `bun:",notnull"`
	Filename   string    `bun:"filename"`
	Rows       int64     `bun:"row_count"`
	FooterRows int64     `bun:"footer_rows"`
	Bytes      int64     `bun:"byte_count"`
	ErrorKind  string    `bun:"error_kind"`
	Error      string    `bun:"error_message"`
	DurationMS int64     `bun:"duration_ms"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func modelFromRecord(record export.ActivityRecord) activityModel {
	return activityModel{
		ID:         record.ID,
		Template:   record.Template,
		Envelope:   string(record.Envelope),
		State:      string(record.State),
		Filename:   record.Filename,
		Rows:       record.Rows,
		FooterRows: record.FooterRows,
		Bytes:      record.Bytes,
		ErrorKind:  string(record.ErrorKind),
		Error:      record.Error,
		DurationMS: record.Duration.Milliseconds(),
		CreatedAt:  record.CreatedAt,
	}
}

func (m activityModel) toRecord() export.ActivityRecord {
	return export.ActivityRecord{
		ID:         m.ID,
		Template:   m.Template,
		Envelope:   export.EnvelopeKind(m.Envelope),
		State:      export.ActivityState(m.State),
		Filename:   m.Filename,
		Rows:       m.Rows,
		FooterRows: m.FooterRows,
		Bytes:      m.Bytes,
		ErrorKind:  export.ErrorKind(m.ErrorKind),
		Error:      m.Error,
		Duration:   time.Duration(m.DurationMS) * time.Millisecond,
		CreatedAt:  m.CreatedAt,
	}
}

func (l *ActivityLog) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *ActivityLog) nextID() string {
	if l.IDGenerator != nil {
		return l.IDGenerator()
	}
	return uuid.NewString()
}

var _ export.ActivityLog = (*ActivityLog)(nil)

package export

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Renderer writes a table into a named template.
type Renderer interface {
	Render(ctx context.Context, table Table, templateName string) ([]byte, RenderStats, error)
}

// RenderedFile is the download produced by a successful export.
type RenderedFile struct {
	Bytes       []byte
	Filename    string
	ContentType string
	Rows        int
	FooterStart int
}

// Pipeline turns handler results into spreadsheet downloads for one endpoint.
type Pipeline struct {
	Config      Config
	Classifier  Classifier
	Flattener   Flattener
	Renderer    Renderer
	Logger      glog.Logger
	Metrics     MetricsHook
	Activity    ActivityLog
	Now         func() time.Time
	IDGenerator func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTemplates renders into templates read from source.
func WithTemplates(source TemplateSource) Option {
	return func(p *Pipeline) {
		p.Renderer = XLSXRenderer{Templates: source}
	}
}

// WithRenderer replaces the renderer.
func WithRenderer(renderer Renderer) Option {
	return func(p *Pipeline) {
		if renderer != nil {
			p.Renderer = renderer
		}
	}
}

// WithClassifier replaces the classifier.
func WithClassifier(classifier Classifier) Option {
	return func(p *Pipeline) {
		p.Classifier = classifier
	}
}

// WithTimeLayout sets the layout used for time cells.
func WithTimeLayout(layout string) Option {
	return func(p *Pipeline) {
		p.Flattener.TimeLayout = layout
	}
}

// WithLogger sets the logger.
func WithLogger(logger glog.Logger) Option {
	return func(p *Pipeline) {
		p.Logger = logger
	}
}

// WithLoggerProvider resolves the "export" logger from provider.
func WithLoggerProvider(provider glog.LoggerProvider) Option {
	return func(p *Pipeline) {
		_, p.Logger = glog.Resolve("export", provider, p.Logger)
	}
}

// WithMetrics sets the metrics hook.
func WithMetrics(metrics MetricsHook) Option {
	return func(p *Pipeline) {
		p.Metrics = metrics
	}
}

// WithActivity records every export attempt in log.
func WithActivity(log ActivityLog) Option {
	return func(p *Pipeline) {
		p.Activity = log
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.Now = now
		}
	}
}

// WithIDGenerator overrides the export ID source.
func WithIDGenerator(gen func() string) Option {
	return func(p *Pipeline) {
		if gen != nil {
			p.IDGenerator = gen
		}
	}
}

// NewPipeline validates cfg and builds a pipeline. Templates are read from
// DefaultTemplateDir unless WithTemplates or WithRenderer is given.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		Config:      cfg,
		Classifier:  Classifier{Keys: DefaultShapeKeys()},
		Flattener:   Flattener{TimeLayout: DefaultTimeLayout},
		Now:         time.Now,
		IDGenerator: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.Renderer == nil {
		p.Renderer = XLSXRenderer{Templates: NewTemplateCache(NewDirTemplates(DefaultTemplateDir))}
	}
	p.Logger = glog.Ensure(p.Logger)
	if p.Metrics == nil {
		p.Metrics = NopMetrics{}
	}
	return p, nil
}

// Rewrite overrides the limit field of a request body with the configured limit.
func (p *Pipeline) Rewrite(body []byte) ([]byte, error) {
	out, changed, err := RewriteLimit(body, p.Config.Limit)
	if err != nil {
		return nil, err
	}
	if changed {
		p.logger().Debug("export limit rewritten", "limit", p.Config.Limit)
	}
	return out, nil
}

// Export converts a handler result into a spreadsheet. Stages run in order and the
// first failure aborts the export.
func (p *Pipeline) Export(ctx context.Context, result any) (RenderedFile, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	run := exportRun{
		id:       p.newID(),
		template: p.Config.TemplateName,
		started:  p.now(),
	}
	p.emit(ctx, run, EventExportRequested, nil)

	file, err := p.export(ctx, &run, result)
	if err != nil {
		p.fail(ctx, run, err)
		return RenderedFile{}, err
	}
	p.complete(ctx, run, file)
	return file, nil
}

type exportRun struct {
	id       string
	template string
	envelope EnvelopeKind
	started  time.Time
	stats    RenderStats
}

func (p *Pipeline) export(ctx context.Context, run *exportRun, result any) (RenderedFile, error) {
	env, err := p.Classifier.Classify(result)
	if err != nil {
		return RenderedFile{}, err
	}
	run.envelope = env.Kind()

	table, err := p.Flattener.Flatten(env)
	if err != nil {
		return RenderedFile{}, err
	}
	if table.Empty() {
		return RenderedFile{}, NewError(KindEmptyExport, MessageEmptyExport, nil)
	}

	table = FilterColumns(table, p.Config.ExcludedColumns())
	if err := ctx.Err(); err != nil {
		return RenderedFile{}, err
	}

	data, stats, err := p.Renderer.Render(ctx, table, p.Config.TemplateName)
	if err != nil {
		return RenderedFile{}, err
	}
	run.stats = stats

	return RenderedFile{
		Bytes:       data,
		Filename:    NewFilename(p.Config.TemplateName),
		ContentType: ContentTypeXLSX,
		Rows:        len(table.Rows),
		FooterStart: table.FooterStart,
	}, nil
}

func (p *Pipeline) complete(ctx context.Context, run exportRun, file RenderedFile) {
	duration := p.now().Sub(run.started)
	p.logger().WithContext(ctx).Info("export completed",
		"export_id", run.id,
		"template", run.template,
		"envelope", string(run.envelope),
		"rows", file.Rows,
		"bytes", len(file.Bytes),
		"duration", duration,
	)
	p.emit(ctx, run, EventExportCompleted, nil)
	p.record(ctx, ActivityRecord{
		ID:         run.id,
		Template:   run.template,
		Envelope:   run.envelope,
		State:      ActivityCompleted,
		Filename:   file.Filename,
		Rows:       int64(file.Rows),
		FooterRows: int64(file.Rows - file.FooterStart),
		Bytes:      int64(len(file.Bytes)),
		Duration:   duration,
		CreatedAt:  run.started,
	})
}

func (p *Pipeline) fail(ctx context.Context, run exportRun, err error) {
	kind := KindFromError(err)
	state := ActivityFailed
	event := EventExportFailed
	if kind == KindCanceled || kind == KindTimeout {
		state = ActivityCanceled
		event = EventExportCanceled
	}

	logger := p.logger().WithContext(ctx)
	args := []any{"export_id", run.id, "template", run.template, "kind", string(kind), "error", err}
	switch kind {
	case KindEmptyExport, KindMalformedBody, KindCanceled, KindTimeout:
		logger.Warn("export failed", args...)
	default:
		logger.Error("export failed", args...)
	}

	p.emit(ctx, run, event, err)
	p.record(ctx, ActivityRecord{
		ID:        run.id,
		Template:  run.template,
		Envelope:  run.envelope,
		State:     state,
		ErrorKind: kind,
		Error:     err.Error(),
		Duration:  p.now().Sub(run.started),
		CreatedAt: run.started,
	})
}

func (p *Pipeline) emit(ctx context.Context, run exportRun, name string, err error) {
	if p.Metrics == nil {
		return
	}
	evt := MetricsEvent{
		Name:      name,
		ExportID:  run.id,
		Template:  run.template,
		Envelope:  run.envelope,
		Rows:      run.stats.Rows,
		Bytes:     run.stats.Bytes,
		Timestamp: p.now(),
	}
	if name != EventExportRequested {
		evt.Duration = evt.Timestamp.Sub(run.started)
	}
	if err != nil {
		evt.ErrorKind = KindFromError(err)
	}
	if emitErr := p.Metrics.Emit(ctx, evt); emitErr != nil {
		p.logger().Warn("export metrics emit failed", "event", name, "error", emitErr)
	}
}

func (p *Pipeline) record(ctx context.Context, record ActivityRecord) {
	if p.Activity == nil {
		return
	}
	// a canceled request context must not drop the audit entry
	if err := p.Activity.Record(context.WithoutCancel(ctx), record); err != nil {
		p.logger().Warn("export activity record failed", "export_id", record.ID, "error", err)
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) newID() string {
	if p.IDGenerator == nil {
		return uuid.NewString()
	}
	return p.IDGenerator()
}

func (p *Pipeline) logger() glog.Logger {
	return glog.Ensure(p.Logger)
}

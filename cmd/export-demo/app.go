package main

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	exportactivity "github.com/goliatone/go-export-xlsx/adapters/activity"
	"github.com/goliatone/go-export-xlsx/adapters/exportapi"
	exportprom "github.com/goliatone/go-export-xlsx/adapters/metrics/prometheus"
	templatess3 "github.com/goliatone/go-export-xlsx/adapters/templates/s3"
	templateswatch "github.com/goliatone/go-export-xlsx/adapters/templates/watch"
	trackerbun "github.com/goliatone/go-export-xlsx/adapters/tracker/bun"
	exportcmd "github.com/goliatone/go-export-xlsx/command"
	"github.com/goliatone/go-export-xlsx/examples"
	"github.com/goliatone/go-export-xlsx/export"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const failedActivityTTL = 7 * 24 * time.Hour

// app holds the export stack shared by both transports.
type app struct {
	cfg       demoConfig
	logger    glog.Logger
	data      *dataset
	pipelines exportapi.Pipelines
	activity  *trackerbun.ActivityLog
	cache     *export.TemplateCache
	metrics   *exportprom.Metrics
	prune     *exportcmd.PruneActivityHandler

	db      *bun.DB
	watcher *templateswatch.Watcher
	cron    *cron.Cron
	subs    []dispatcher.Subscription
}

type appOptions struct {
	// templates replaces the configured template source.
	templates export.TemplateSource
	registry  *prometheus.Registry
	commands  *gcmd.Registry
	// feed receives export activity records; nil logs them.
	feed types.ActivitySink
}

func newApp(ctx context.Context, cfg demoConfig, endpoints io.Reader, logger glog.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: glog.Ensure(logger), data: newDataset(250, 120)}
	if err := a.init(ctx, endpoints, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context, endpoints io.Reader, opts appOptions) error {
	source, err := a.templateSource(ctx, opts.templates)
	if err != nil {
		return err
	}
	a.cache = export.NewTemplateCache(source)

	sqldb, err := sql.Open(sqliteshim.ShimName, a.cfg.DatabaseDSN)
	if err != nil {
		return export.NewError(export.KindInternal, "open activity database", err)
	}
	a.db = bun.NewDB(sqldb, sqlitedialect.New())
	a.activity = trackerbun.NewActivityLog(a.db)
	if err := a.activity.CreateSchema(ctx); err != nil {
		return err
	}

	a.metrics = exportprom.New(exportprom.Config{Namespace: "export_demo"}, opts.registry)
	feed := opts.feed
	if feed == nil {
		feed = logFeed{logger: a.logger}
	}
	hooks := export.MultiMetrics{
		a.metrics,
		exportactivity.NewEmitter(exportactivity.Config{
			Sink:    feed,
			Channel: "export-demo",
			ActorID: demoActor,
		}),
	}

	routes, err := export.LoadEndpoints(endpoints)
	if err != nil {
		return err
	}
	a.pipelines, err = exportapi.BuildPipelines(routes,
		export.WithTemplates(a.cache),
		export.WithActivity(a.activity),
		export.WithMetrics(hooks),
		export.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	retention, err := a.retention()
	if err != nil {
		return err
	}
	a.subs, err = examples.RegisterExportHandlers(opts.commands, examples.Handlers{
		Pipelines: a.pipelines,
		Activity:  a.activity,
		Retention: retention,
		Cache:     a.cache,
	})
	if err != nil {
		return err
	}

	a.prune = exportcmd.NewPruneActivityHandler(a.activity, retention)
	if schedule := strings.TrimSpace(a.cfg.PruneSchedule); schedule != "" {
		a.prune.Config = gcmd.HandlerConfig{Expression: schedule}
	}

	if a.cfg.WatchTemplates && opts.templates == nil && a.cfg.S3Bucket == "" {
		a.watcher, err = templateswatch.New(templateswatch.Config{
			Root:   a.cfg.TemplateDir,
			Logger: a.logger,
		}, a.cache)
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *app) templateSource(ctx context.Context, override export.TemplateSource) (export.TemplateSource, error) {
	if override != nil {
		return override, nil
	}
	if bucket := strings.TrimSpace(a.cfg.S3Bucket); bucket != "" {
		a.logger.Info("loading templates from s3", "bucket", bucket, "prefix", a.cfg.S3Prefix)
		return templatess3.New(ctx, a.cfg.S3Region, bucket, a.cfg.S3Prefix)
	}
	return export.NewDirTemplates(a.cfg.TemplateDir), nil
}

func (a *app) retention() (export.RetentionRules, error) {
	ttl, err := a.cfg.activityTTL()
	if err != nil {
		return export.RetentionRules{}, err
	}
	rules := export.RetentionRules{DefaultTTL: ttl}
	if ttl > failedActivityTTL {
		rules.ByState = map[export.ActivityState]time.Duration{
			export.ActivityFailed:   failedActivityTTL,
			export.ActivityCanceled: failedActivityTTL,
		}
	}
	return rules, nil
}

// start launches the prune schedule and the template watcher.
func (a *app) start(ctx context.Context) error {
	expr := a.prune.CronOptions().Expression
	if expr != "" {
		if _, err := cron.ParseStandard(expr); err != nil {
			return export.NewError(export.KindValidation, "invalid prune schedule "+expr, err)
		}
		a.cron = cron.New()
		run := a.prune.CronHandler()
		if _, err := a.cron.AddFunc(expr, func() {
			if err := run(); err != nil {
				a.logger.Error("activity prune failed", "error", err)
			}
		}); err != nil {
			return export.NewError(export.KindValidation, "schedule activity prune", err)
		}
		a.cron.Start()
		a.logger.Info("activity prune scheduled", "schedule", expr)
	}

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx); err != nil {
				a.logger.Warn("template watcher stopped", "error", err)
			}
		}()
	}
	return nil
}

// Close releases everything init acquired.
func (a *app) Close() {
	if a == nil {
		return
	}
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	for _, sub := range a.subs {
		sub.Unsubscribe()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcmd "github.com/goliatone/go-command"
)

const defaultConfigPath = "export-demo.yaml"

func main() {
	logger := newLogger(os.Getenv("EXPORT_DEMO_LOG_LEVEL"), os.Getenv("EXPORT_DEMO_LOG_FORMAT"), os.Stdout)
	if err := run(logger); err != nil {
		logger.Error("export demo stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger zeroLogger) error {
	path := os.Getenv("EXPORT_DEMO_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, err := loadDemoConfig(bytes.NewReader(raw), os.Getenv)
	if err != nil {
		return err
	}
	logger = newLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, bytes.NewReader(raw), logger, appOptions{commands: gcmd.NewRegistry()})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.start(ctx); err != nil {
		return err
	}
	logger.Info("export demo listening", "addr", cfg.Addr, "transport", cfg.Transport, "endpoints", len(a.pipelines))

	if cfg.Transport == "fiber" {
		return serveFiber(ctx, a)
	}
	return serveHTTP(ctx, a, &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.httpHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	})
}

func serveHTTP(ctx context.Context, a *app, srv *http.Server) error {
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func serveFiber(ctx context.Context, a *app) error {
	srv := a.fiberServer()

	var metrics *http.Server
	if a.cfg.MetricsAddr != "" {
		metrics = &http.Server{Addr: a.cfg.MetricsAddr, Handler: a.metrics.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Serve(a.cfg.Addr)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if metrics != nil {
		_ = metrics.Shutdown(shutdownCtx)
	}
	return srv.Shutdown(shutdownCtx)
}

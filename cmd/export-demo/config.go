package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-config/cfgx"
	"github.com/goliatone/go-export-xlsx/export"
	"gopkg.in/yaml.v3"
)

// demoConfig is the server section of the demo config file. The endpoints section of
// the same file is read by export.LoadEndpoints.
type demoConfig struct {
	Addr      string `koanf:"addr" mapstructure:"addr" yaml:"addr" validate:"required"`
	Transport string `koanf:"transport" mapstructure:"transport" yaml:"transport" validate:"oneof=http fiber"`
	// MetricsAddr serves /metrics on its own listener for the fiber transport.
	MetricsAddr    string `koanf:"metrics_addr" mapstructure:"metrics_addr" yaml:"metrics_addr"`
	TemplateDir    string `koanf:"template_dir" mapstructure:"template_dir" yaml:"template_dir"`
	WatchTemplates bool   `koanf:"watch_templates" mapstructure:"watch_templates" yaml:"watch_templates"`

	S3Bucket string `koanf:"s3_bucket" mapstructure:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix string `koanf:"s3_prefix" mapstructure:"s3_prefix" yaml:"s3_prefix"`
	S3Region string `koanf:"s3_region" mapstructure:"s3_region" yaml:"s3_region"`

	DatabaseDSN string `koanf:"database_dsn" mapstructure:"database_dsn" yaml:"database_dsn" validate:"required"`
	// ActivityTTL is a Go duration; zero keeps activity forever.
	ActivityTTL   string `koanf:"activity_ttl" mapstructure:"activity_ttl" yaml:"activity_ttl"`
	PruneSchedule string `koanf:"prune_schedule" mapstructure:"prune_schedule" yaml:"prune_schedule"`

	LogLevel  string `koanf:"log_level" mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `koanf:"log_format" mapstructure:"log_format" yaml:"log_format"`
}

func defaultDemoConfig() demoConfig {
	return demoConfig{
		Addr:          ":8080",
		Transport:     "http",
		MetricsAddr:   ":9090",
		TemplateDir:   export.DefaultTemplateDir,
		DatabaseDSN:   "file:export-activity.db?cache=shared",
		ActivityTTL:   "720h",
		PruneSchedule: "0 3 * * *",
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

var demoValidator = validator.New()

func (c *demoConfig) Validate() error {
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	if err := demoValidator.Struct(c); err != nil {
		return export.NewError(export.KindValidation, "invalid demo config", err)
	}
	if _, err := c.activityTTL(); err != nil {
		return err
	}
	return nil
}

func (c demoConfig) activityTTL() (time.Duration, error) {
	raw := strings.TrimSpace(c.ActivityTTL)
	if raw == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl < 0 {
		return 0, export.NewError(export.KindValidation, fmt.Sprintf("invalid activity_ttl %q", raw), err)
	}
	return ttl, nil
}

type demoFile struct {
	Server map[string]any `yaml:"server"`
}

// loadDemoConfig reads the server section of r and applies EXPORT_DEMO_* overrides.
func loadDemoConfig(r io.Reader, getenv func(string) string) (demoConfig, error) {
	var file demoFile
	if r != nil {
		if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
			return demoConfig{}, export.NewError(export.KindValidation, "invalid demo config file", err)
		}
	}
	raw := file.Server
	if raw == nil {
		raw = map[string]any{}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	for key, env := range map[string]string{
		"addr":         "EXPORT_DEMO_ADDR",
		"transport":    "EXPORT_DEMO_TRANSPORT",
		"template_dir": "EXPORT_DEMO_TEMPLATE_DIR",
		"database_dsn": "EXPORT_DEMO_DATABASE_DSN",
		"s3_bucket":    "EXPORT_DEMO_S3_BUCKET",
		"log_level":    "EXPORT_DEMO_LOG_LEVEL",
	} {
		if value := strings.TrimSpace(getenv(env)); value != "" {
			raw[key] = value
		}
	}

	cfg, err := cfgx.Build[demoConfig](raw,
		cfgx.WithDefaults(defaultDemoConfig()),
		cfgx.WithValidator[demoConfig]((*demoConfig).Validate),
	)
	if err != nil {
		return demoConfig{}, err
	}
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	return cfg, nil
}

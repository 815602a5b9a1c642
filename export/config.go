package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-config/cfgx"
	"gopkg.in/yaml.v3"
)

const (
	// HeaderExport is the request header that opts a request into the export pipeline.
	HeaderExport = "XH-EXPORT-EXCEL"
	// DefaultLimit is the maximum number of rows requested from a handler when exporting.
	DefaultLimit = 10000
	// DefaultTemplateDir is the directory templates are resolved from.
	DefaultTemplateDir = "Export"
	// ContentTypeXLSX is the spreadsheet MIME type written on export responses.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Config is the per endpoint export configuration.
type Config struct {
	Limit        int    `koanf:"limit" mapstructure:"limit" yaml:"limit" validate:"gt=0"`
	IgnoreFields string `koanf:"ignore_fields" mapstructure:"ignore_fields" yaml:"ignore_fields"`
	TemplateName string `koanf:"template_name" mapstructure:"template_name" yaml:"template_name" validate:"required"`
}

// DefaultConfig returns a config with defaults applied. TemplateName is left empty.
func DefaultConfig() Config {
	return Config{Limit: DefaultLimit}
}

var configValidator = validator.New()

// Validate checks the config fields.
func (c *Config) Validate() error {
	if c == nil {
		return NewError(KindValidation, "config is nil", nil)
	}
	c.TemplateName = strings.TrimSpace(c.TemplateName)
	if err := configValidator.Struct(c); err != nil {
		var msgs []string
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
			}
		}
		if len(msgs) == 0 {
			return NewError(KindValidation, "invalid export config", err)
		}
		return NewError(KindValidation, "invalid export config: "+strings.Join(msgs, ", "), err)
	}
	return nil
}

// ExcludedColumns returns the parsed IgnoreFields list.
func (c Config) ExcludedColumns() []string {
	return ParseColumns(c.IgnoreFields)
}

// BuildConfig builds a Config from raw key/value settings.
func BuildConfig(raw map[string]any) (Config, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(DefaultConfig()),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		if KindFromError(err) == KindValidation {
			return Config{}, err
		}
		return Config{}, NewError(KindValidation, "invalid export config", err)
	}
	cfg.TemplateName = strings.TrimSpace(cfg.TemplateName)
	return cfg, nil
}

// Endpoints maps endpoint keys to their export config.
type Endpoints map[string]Config

// Lookup returns the config registered for key.
func (e Endpoints) Lookup(key string) (Config, bool) {
	if e == nil {
		return Config{}, false
	}
	cfg, ok := e[key]
	return cfg, ok
}

// Keys returns the sorted endpoint keys.
func (e Endpoints) Keys() []string {
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type endpointsFile struct {
	Endpoints map[string]map[string]any `yaml:"endpoints"`
}

// LoadEndpoints reads endpoint export configs from YAML:
//
//	endpoints:
//	  users:
//	    limit: 5000
//	    ignore_fields: id,password
//	    template_name: users.xlsx
func LoadEndpoints(r io.Reader) (Endpoints, error) {
	if r == nil {
		return nil, NewError(KindValidation, "endpoint config reader is nil", nil)
	}
	var file endpointsFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, NewError(KindValidation, "invalid endpoint config", err)
	}

	endpoints := make(Endpoints, len(file.Endpoints))
	for key, raw := range file.Endpoints {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, NewError(KindValidation, "endpoint key is required", nil)
		}
		cfg, err := BuildConfig(raw)
		if err != nil {
			return nil, NewError(KindValidation, fmt.Sprintf("endpoint %q", key), err)
		}
		endpoints[key] = cfg
	}
	return endpoints, nil
}

package command

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-export-xlsx/export"
)

// BatchRequest renders one saved handler result.
type BatchRequest struct {
	Endpoint string `json:"endpoint"`
	// Source is a JSON file holding the handler result.
	Source string `json:"source"`
	// Output is the workbook path. Empty writes the generated filename into OutputDir.
	Output string `json:"output,omitempty"`
}

// BatchLoader loads batch requests from a source.
type BatchLoader func(ctx context.Context) ([]BatchRequest, error)

// BatchCommand wires CLI/Cron execution for offline renders.
type BatchCommand struct {
	pipelines  PipelineLookup
	loader     BatchLoader
	outputDir  string
	cliConfig  gcmd.CLIConfig
	cronConfig gcmd.HandlerConfig
	limits     BatchLimits
	sleep      func(time.Duration)
}

// BatchOption customizes batch commands.
type BatchOption func(*BatchCommand)

// BatchLimits bounds batch execution throughput.
type BatchLimits struct {
	MaxRequests int
	MinInterval time.Duration
}

// WithBatchCLIConfig overrides CLI configuration.
func WithBatchCLIConfig(cfg gcmd.CLIConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cliConfig = cfg
	}
}

// WithBatchCronConfig overrides cron configuration.
func WithBatchCronConfig(cfg gcmd.HandlerConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cronConfig = cfg
	}
}

// WithBatchLimits overrides batch execution limits.
func WithBatchLimits(limits BatchLimits) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.limits = limits
	}
}

// WithBatchOutputDir sets the directory for requests without an explicit output.
func WithBatchOutputDir(dir string) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.outputDir = dir
	}
}

// NewBatchRenderCommand creates a CLI/Cron command that renders saved results.
func NewBatchRenderCommand(pipelines PipelineLookup, loader BatchLoader, opts ...BatchOption) *BatchCommand {
	cmd := &BatchCommand{
		pipelines: pipelines,
		loader:    loader,
		outputDir: ".",
		cliConfig: gcmd.CLIConfig{
			Path:        []string{"exports-render"},
			Description: "Render saved results into spreadsheet templates",
			Group:       "exports",
		},
		cronConfig: gcmd.HandlerConfig{Expression: "0 * * * *"},
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cmd)
		}
	}
	return cmd
}

// CronHandler executes the configured batch.
func (c *BatchCommand) CronHandler() func() error {
	return func() error {
		_, err := c.run(context.Background(), "")
		return err
	}
}

// CronOptions returns cron configuration.
func (c *BatchCommand) CronOptions() gcmd.HandlerConfig {
	if c == nil {
		return gcmd.HandlerConfig{}
	}
	return c.cronConfig
}

// CLIHandler exposes the CLI handler.
func (c *BatchCommand) CLIHandler() any {
	return &batchCLI{cmd: c}
}

// CLIOptions returns CLI configuration.
func (c *BatchCommand) CLIOptions() gcmd.CLIConfig {
	if c == nil {
		return gcmd.CLIConfig{}
	}
	return c.cliConfig
}

func (c *BatchCommand) run(ctx context.Context, from string) ([]string, error) {
	if c == nil {
		return nil, errors.New("batch command is nil", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	if c.pipelines == nil {
		return nil, errors.New("export pipelines are required", errors.CategoryValidation).
			WithTextCode("PIPELINES_REQUIRED")
	}

	requests, err := c.loadRequests(ctx, from)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(requests))
	for _, item := range requests {
		if c.limits.MaxRequests > 0 && len(written) >= c.limits.MaxRequests {
			break
		}
		path, err := c.render(ctx, item)
		if err != nil {
			return written, err
		}
		written = append(written, path)
		if c.limits.MinInterval > 0 && c.sleep != nil {
			c.sleep(c.limits.MinInterval)
		}
	}
	return written, nil
}

func (c *BatchCommand) render(ctx context.Context, item BatchRequest) (string, error) {
	pipeline, err := c.pipelines.Lookup(item.Endpoint)
	if err != nil {
		return "", export.AsGoError(err)
	}
	content, err := os.ReadFile(item.Source)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryExternal, "read batch source failed").
			WithTextCode("BATCH_SOURCE_READ")
	}
	result, err := export.DecodeOrdered(content)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryValidation, "batch source invalid JSON").
			WithTextCode("BATCH_SOURCE_INVALID")
	}

	file, err := pipeline.Export(ctx, result)
	if err != nil {
		return "", export.AsGoError(err)
	}

	target := strings.TrimSpace(item.Output)
	if target == "" {
		target = filepath.Join(c.outputDir, file.Filename)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Wrap(err, errors.CategoryExternal, "create output directory failed").
			WithTextCode("BATCH_OUTPUT_WRITE")
	}
	if err := os.WriteFile(target, file.Bytes, 0o644); err != nil {
		return "", errors.Wrap(err, errors.CategoryExternal, "write workbook failed").
			WithTextCode("BATCH_OUTPUT_WRITE")
	}
	return target, nil
}

func (c *BatchCommand) loadRequests(ctx context.Context, from string) ([]BatchRequest, error) {
	if strings.TrimSpace(from) != "" {
		return loadBatchRequestsFromFile(from)
	}
	if c.loader == nil {
		return nil, errors.New("batch loader not configured", errors.CategoryValidation).
			WithTextCode("LOADER_REQUIRED")
	}
	return c.loader(ctx)
}

type batchCLI struct {
	cmd  *BatchCommand
	From string `kong:"name='from',help='Path to JSON batch render requests'"`
}

func (c *batchCLI) Run() error {
	if c == nil || c.cmd == nil {
		return errors.New("batch command is required", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	_, err := c.cmd.run(context.Background(), c.From)
	return err
}

func loadBatchRequestsFromFile(path string) ([]BatchRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "read batch file failed").
			WithTextCode("BATCH_FILE_READ")
	}

	var requests []BatchRequest
	if err := json.Unmarshal(content, &requests); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "batch file invalid JSON").
			WithTextCode("BATCH_FILE_INVALID")
	}
	return requests, nil
}

// CLIHandler exposes activity pruning via CLI.
func (h *PruneActivityHandler) CLIHandler() any {
	return &pruneCLI{handler: h}
}

// CLIOptions describes prune CLI metadata.
func (h *PruneActivityHandler) CLIOptions() gcmd.CLIConfig {
	return gcmd.CLIConfig{
		Path:        []string{"exports-prune-activity"},
		Description: "Remove expired export activity",
		Group:       "exports",
	}
}

type pruneCLI struct {
	handler *PruneActivityHandler
}

func (c *pruneCLI) Run() error {
	if c == nil || c.handler == nil {
		return errors.New("prune handler is required", errors.CategoryInternal).
			WithTextCode("PRUNE_HANDLER_REQUIRED")
	}
	return c.handler.Execute(context.Background(), PruneActivity{})
}

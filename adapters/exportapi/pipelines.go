package exportapi

import (
	"fmt"

	"github.com/goliatone/go-export-xlsx/export"
)

// Pipelines holds one export pipeline per configured endpoint.
type Pipelines map[string]*export.Pipeline

// BuildPipelines creates a pipeline for every endpoint config. The options apply to all
// of them.
func BuildPipelines(endpoints export.Endpoints, opts ...export.Option) (Pipelines, error) {
	pipelines := make(Pipelines, len(endpoints))
	for _, key := range endpoints.Keys() {
		cfg, _ := endpoints.Lookup(key)
		pipeline, err := export.NewPipeline(cfg, opts...)
		if err != nil {
			return nil, export.NewError(export.KindValidation, fmt.Sprintf("endpoint %q", key), err)
		}
		pipelines[key] = pipeline
	}
	return pipelines, nil
}

// Lookup returns the pipeline for key.
func (p Pipelines) Lookup(key string) (*export.Pipeline, error) {
	pipeline, ok := p[key]
	if !ok || pipeline == nil {
		return nil, export.NewError(export.KindNotFound, fmt.Sprintf("export endpoint %q not configured", key), nil)
	}
	return pipeline, nil
}

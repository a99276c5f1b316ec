package provider

import (
	"context"
	"log/slog"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/deployment"
)

const demoProviderLabel = "demo"

// DemoProvider deploys nothing. Each function gets a placeholder endpoint
// so that type mappings can still be written.
type DemoProvider struct {
	logger *slog.Logger
}

// NewDemoProvider creates a demo provider.
func NewDemoProvider(logger *slog.Logger) *DemoProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &DemoProvider{logger: logger.With("provider", demoProviderLabel)}
}

// Name implements Provider.
func (p *DemoProvider) Name() string {
	return demoProviderLabel
}

// Deploy implements Provider.
func (p *DemoProvider) Deploy(_ context.Context, path []catalog.ServiceFunction) ([]choreography.Endpoint, error) {
	endpoints := make([]choreography.Endpoint, 0, len(path))
	for _, fn := range path {
		endpoints = append(endpoints, choreography.Endpoint{
			Function: fn.Name,
			Kind:     catalog.ResourceServerless,
			Link:     deployment.DemoURL(fn.Name),
		})
	}
	p.logger.Debug("demo endpoints", "functions", len(endpoints))
	return endpoints, nil
}

// Reset implements Provider.
func (p *DemoProvider) Reset(context.Context) error {
	return nil
}

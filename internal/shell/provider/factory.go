package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artpar/baasflow/internal/core/deployment"
	coreprovider "github.com/artpar/baasflow/internal/core/provider"
	"github.com/artpar/baasflow/internal/shell/docker"
)

// Config selects and configures a provider.
type Config struct {
	Kind        coreprovider.Kind
	Region      string
	Credentials coreprovider.AWSCredentials
	Settings    deployment.Settings
	DockerHost  string
	LocalHost   string
	RoleWait    time.Duration
}

// New creates the provider named by cfg.Kind. The returned close function
// releases any client the provider holds and is never nil.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Provider, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Kind {
	case coreprovider.KindAWS:
		if cfg.Region == "" {
			return nil, noop, coreprovider.ErrRegionRequired
		}
		clients, err := NewAWSClients(ctx, cfg.Region, cfg.Credentials)
		if err != nil {
			return nil, noop, fmt.Errorf("invalid AWS configuration: %w", err)
		}
		var opts []AWSOption
		if cfg.RoleWait > 0 {
			opts = append(opts, WithRoleWait(cfg.RoleWait))
		}
		return NewAWSProvider(clients, cfg.Region, cfg.Settings, logger, opts...), noop, nil

	case coreprovider.KindLocal:
		cli, err := docker.NewDockerClient(ctx, cfg.DockerHost)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to Docker: %w", err)
		}
		return NewLocalProvider(cli, cfg.Settings, cfg.LocalHost, logger), cli.Close, nil

	case coreprovider.KindDemo:
		return NewDemoProvider(logger), noop, nil

	default:
		return nil, noop, fmt.Errorf("%w: %q", coreprovider.ErrUnknownProvider, cfg.Kind)
	}
}

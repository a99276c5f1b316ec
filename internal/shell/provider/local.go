package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/deployment"
	"github.com/artpar/baasflow/internal/shell/docker"
)

const localProviderLabel = "local"

// LocalProvider implements Provider by running each function as a
// container on the local Docker daemon.
type LocalProvider struct {
	docker   docker.Client
	settings deployment.Settings
	host     string
	logger   *slog.Logger
}

// NewLocalProvider creates a local provider. host is the address used in
// endpoint URLs; it defaults to localhost.
func NewLocalProvider(client docker.Client, settings deployment.Settings, host string, logger *slog.Logger) *LocalProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if host == "" {
		host = "localhost"
	}
	return &LocalProvider{
		docker:   client,
		settings: settings.WithDefaults(),
		host:     host,
		logger:   logger.With("provider", localProviderLabel),
	}
}

// Name implements Provider.
func (p *LocalProvider) Name() string {
	return localProviderLabel
}

// Deploy removes previously started containers and starts one container per
// function, publishing the function port on a host port chosen by Docker.
// Steps that repeat a function share its container.
func (p *LocalProvider) Deploy(ctx context.Context, path []catalog.ServiceFunction) ([]choreography.Endpoint, error) {
	if err := p.Reset(ctx); err != nil {
		return nil, err
	}

	plan := deployment.BuildPlan(path, p.settings)
	endpoints := make([]choreography.Endpoint, 0, len(plan.Functions))

	for _, fp := range plan.Functions {
		ep, err := p.runFunction(ctx, fp)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}

	return plan.StepEndpoints(endpoints), nil
}

func (p *LocalProvider) runFunction(ctx context.Context, fp deployment.FunctionPlan) (choreography.Endpoint, error) {
	name := fp.Function.Name

	if err := p.ensureImage(ctx, fp.Image); err != nil {
		return choreography.Endpoint{}, p.wrap("PullImage", fp.Image, err)
	}

	id, err := p.docker.CreateContainer(ctx, docker.ContainerSpec{
		Name:   fp.Container,
		Image:  fp.Image,
		Labels: deployment.ContainerLabels(name, fp.Function.Type),
		Env: map[string]string{
			"FUNCTION_NAME":    name,
			"FUNCTION_HANDLER": fp.Handler,
			"PORT":             fmt.Sprintf("%d", p.settings.Port),
		},
		Ports: []docker.PortBinding{{
			ContainerPort: p.settings.Port,
			Protocol:      "tcp",
			HostIP:        "127.0.0.1",
		}},
		RestartPolicy: docker.RestartPolicy{Name: "no"},
		Resources:     docker.ResourceLimits{MemoryLimit: int64(fp.Memory) * 1024 * 1024},
	})
	if err != nil {
		return choreography.Endpoint{}, p.wrap("CreateContainer", fp.Container, err)
	}

	if err := p.docker.StartContainer(ctx, id); err != nil {
		_ = p.docker.RemoveContainer(ctx, id, docker.RemoveOptions{Force: true})
		return choreography.Endpoint{}, p.wrap("StartContainer", fp.Container, err)
	}

	info, err := p.docker.InspectContainer(ctx, id)
	if err != nil {
		return choreography.Endpoint{}, p.wrap("InspectContainer", fp.Container, err)
	}
	hostPort := info.HostPort(p.settings.Port)
	if hostPort == 0 {
		return choreography.Endpoint{}, p.wrap("InspectContainer", fp.Container, ErrNoHostPort)
	}

	url := deployment.LocalURL(p.host, hostPort)
	p.logger.Info("started function", "function", name, "container", fp.Container, "url", url)

	return choreography.Endpoint{
		Function: name,
		Kind:     catalog.ResourceLocal,
		Link:     fp.Image,
		URL:      url,
	}, nil
}

func (p *LocalProvider) ensureImage(ctx context.Context, image string) error {
	exists, err := p.docker.ImageExists(ctx, image)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	p.logger.Info("pulling image", "image", image)
	return p.docker.PullImage(ctx, image)
}

// Reset removes every container carrying the managed label.
func (p *LocalProvider) Reset(ctx context.Context) error {
	containers, err := p.docker.ListContainers(ctx, docker.ListOptions{
		All:     true,
		Filters: map[string]string{"label": deployment.LabelManaged + "=true"},
	})
	if err != nil {
		return p.wrap("ListContainers", "", err)
	}

	for _, c := range containers {
		err := p.docker.RemoveContainer(ctx, c.ID, docker.RemoveOptions{Force: true})
		if err != nil && !errors.Is(err, docker.ErrContainerNotFound) {
			return p.wrap("RemoveContainer", c.Name, err)
		}
		p.logger.Info("removed container", "container", c.Name)
	}
	return nil
}

func (p *LocalProvider) wrap(op, resource string, err error) error {
	return NewProviderError(localProviderLabel, op, resource, err)
}

package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/deployment"
	"github.com/artpar/baasflow/internal/shell/docker"
)

// =============================================================================
// Fake Docker Client
// =============================================================================

type fakeDocker struct {
	images     map[string]bool
	containers map[string]docker.ContainerInfo
	specs      []docker.ContainerSpec
	pulled     []string
	removed    []string
	started    []string
	nextPort   int
	noPorts    bool
	startErr   error
}

func newFakeDocker() *fakeDocker {
	return &fakeDocker{
		images:     map[string]bool{},
		containers: map[string]docker.ContainerInfo{},
		nextPort:   32768,
	}
}

func (f *fakeDocker) CreateContainer(_ context.Context, spec docker.ContainerSpec) (string, error) {
	f.specs = append(f.specs, spec)
	id := "id-" + spec.Name
	info := docker.ContainerInfo{ID: id, Name: spec.Name, Image: spec.Image, Labels: spec.Labels, Status: docker.ContainerStatusCreated}
	if !f.noPorts {
		for _, p := range spec.Ports {
			info.Ports = append(info.Ports, docker.PortBinding{ContainerPort: p.ContainerPort, HostPort: f.nextPort, Protocol: "tcp"})
			f.nextPort++
		}
	}
	f.containers[id] = info
	return id, nil
}

func (f *fakeDocker) StartContainer(_ context.Context, id string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, id)
	return nil
}

func (f *fakeDocker) RemoveContainer(_ context.Context, id string, _ docker.RemoveOptions) error {
	if _, ok := f.containers[id]; !ok {
		return docker.ErrContainerNotFound
	}
	delete(f.containers, id)
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeDocker) InspectContainer(_ context.Context, id string) (*docker.ContainerInfo, error) {
	info, ok := f.containers[id]
	if !ok {
		return nil, docker.ErrContainerNotFound
	}
	return &info, nil
}

func (f *fakeDocker) ListContainers(_ context.Context, opts docker.ListOptions) ([]docker.ContainerInfo, error) {
	var out []docker.ContainerInfo
	for _, c := range f.containers {
		if opts.Filters["label"] == deployment.LabelManaged+"=true" && c.Labels[deployment.LabelManaged] != "true" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeDocker) PullImage(_ context.Context, image string) error {
	f.pulled = append(f.pulled, image)
	f.images[image] = true
	return nil
}

func (f *fakeDocker) ImageExists(_ context.Context, image string) (bool, error) {
	return f.images[image], nil
}

func (f *fakeDocker) Ping(context.Context) error { return nil }
func (f *fakeDocker) Close() error               { return nil }

// =============================================================================
// Local Provider Tests
// =============================================================================

func TestLocalProvider_Deploy(t *testing.T) {
	fake := newFakeDocker()
	fake.images["compositebaas-transcribe:latest"] = true
	p := NewLocalProvider(fake, deployment.Settings{}, "", nil)

	path := []catalog.ServiceFunction{
		{Name: "transcribe", Type: "speechToText", Provider: "aws"},
		{Name: "translate", Type: "translateText", Provider: "aws", Config: catalog.FunctionConfig{Image: "ghcr.io/acme/translate:1"}},
	}

	endpoints, err := p.Deploy(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, endpoints, 2)

	assert.Equal(t, catalog.ResourceLocal, endpoints[0].Kind)
	assert.Equal(t, "compositebaas-transcribe:latest", endpoints[0].Link)
	assert.Equal(t, "http://localhost:32768", endpoints[0].URL)
	assert.Equal(t, "ghcr.io/acme/translate:1", endpoints[1].Link)
	assert.Equal(t, "http://localhost:32769", endpoints[1].URL)

	assert.Equal(t, []string{"ghcr.io/acme/translate:1"}, fake.pulled)
	assert.Len(t, fake.started, 2)

	spec := fake.specs[0]
	assert.Equal(t, "compositebaas-transcribe", spec.Name)
	assert.Equal(t, "true", spec.Labels[deployment.LabelManaged])
	assert.Equal(t, "speechToText", spec.Labels[deployment.LabelType])
	assert.Equal(t, "transcribe.handler", spec.Env["FUNCTION_HANDLER"])
	assert.Equal(t, "8080", spec.Env["PORT"])
	assert.Equal(t, int64(128*1024*1024), spec.Resources.MemoryLimit)
}

func TestLocalProvider_Deploy_RepeatedFunctionSharesContainer(t *testing.T) {
	fake := newFakeDocker()
	p := NewLocalProvider(fake, deployment.Settings{}, "", nil)

	translate := catalog.ServiceFunction{Name: "translate", Type: "translateText", Config: catalog.FunctionConfig{Image: "ghcr.io/acme/translate:1"}}
	path := []catalog.ServiceFunction{translate, {Name: "summarise", Type: "summary", Config: catalog.FunctionConfig{Image: "ghcr.io/acme/summarise:1"}}, translate}

	endpoints, err := p.Deploy(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, endpoints, 3)

	assert.Equal(t, endpoints[0].URL, endpoints[2].URL)
	assert.NotEqual(t, endpoints[0].URL, endpoints[1].URL)
	require.Len(t, fake.specs, 2)
	assert.Equal(t, "compositebaas-translate", fake.specs[0].Name)
	assert.Equal(t, "compositebaas-summarise", fake.specs[1].Name)
	assert.Len(t, fake.started, 2)
}

func TestLocalProvider_Deploy_NoHostPort(t *testing.T) {
	fake := newFakeDocker()
	fake.noPorts = true
	p := NewLocalProvider(fake, deployment.Settings{}, "127.0.0.1", nil)

	_, err := p.Deploy(context.Background(), []catalog.ServiceFunction{{Name: "analyse", Type: "analyse"}})
	assert.ErrorIs(t, err, ErrNoHostPort)
}

func TestLocalProvider_Deploy_StartFailsRemovesContainer(t *testing.T) {
	fake := newFakeDocker()
	fake.startErr = assert.AnError
	p := NewLocalProvider(fake, deployment.Settings{}, "", nil)

	_, err := p.Deploy(context.Background(), []catalog.ServiceFunction{{Name: "analyse", Type: "analyse"}})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"id-compositebaas-analyse"}, fake.removed)
	assert.Empty(t, fake.containers)
}

func TestLocalProvider_Reset(t *testing.T) {
	fake := newFakeDocker()
	fake.containers["a"] = docker.ContainerInfo{ID: "a", Name: "compositebaas-a", Labels: deployment.ContainerLabels("a", "t")}
	fake.containers["b"] = docker.ContainerInfo{ID: "b", Name: "postgres"}
	p := NewLocalProvider(fake, deployment.Settings{}, "", nil)

	require.NoError(t, p.Reset(context.Background()))
	assert.Equal(t, []string{"a"}, fake.removed)
	assert.Contains(t, fake.containers, "b")
}

// =============================================================================
// Demo Provider Tests
// =============================================================================

func TestDemoProvider_Deploy(t *testing.T) {
	p := NewDemoProvider(nil)
	assert.Equal(t, "demo", p.Name())

	endpoints, err := p.Deploy(context.Background(), []catalog.ServiceFunction{{Name: "analyse"}, {Name: "translate"}})
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "https://analyse", endpoints[0].Link)
	assert.Equal(t, catalog.ResourceServerless, endpoints[1].Kind)
	assert.NoError(t, p.Reset(context.Background()))
}

func TestDemoProvider_EmptyPath(t *testing.T) {
	endpoints, err := NewDemoProvider(nil).Deploy(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, endpoints)
	assert.Empty(t, endpoints)
}

// =============================================================================
// Factory Tests
// =============================================================================

func TestNew_Demo(t *testing.T) {
	p, closeFn, err := New(context.Background(), Config{Kind: "demo"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name())
	assert.NoError(t, closeFn())
}

func TestNew_AWSRequiresRegion(t *testing.T) {
	_, closeFn, err := New(context.Background(), Config{Kind: "aws"}, nil)
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestNew_Unknown(t *testing.T) {
	_, _, err := New(context.Background(), Config{Kind: "gcp"}, nil)
	assert.Error(t, err)
}

func TestProviderError(t *testing.T) {
	err := NewProviderError("aws", "CreateRole", "Lambda-Service-Role", assert.AnError)
	assert.Equal(t, "aws: CreateRole Lambda-Service-Role: "+assert.AnError.Error(), err.Error())
	assert.ErrorIs(t, err, assert.AnError)

	err = NewProviderError("aws", "ListRoles", "", assert.AnError)
	assert.Equal(t, "aws: ListRoles: "+assert.AnError.Error(), err.Error())
}

package docker

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func skipIfNoDocker(t *testing.T) Client {
	t.Helper()
	cli, err := NewDockerClient(context.Background(), "")
	if err != nil {
		t.Skip("Docker not available:", err)
	}
	if err := cli.Ping(context.Background()); err != nil {
		cli.Close()
		t.Skip("Docker not reachable:", err)
	}
	return cli
}

// Test container name prefix to identify test containers
const testPrefix = "baasflow-test-"

// =============================================================================
// Container Config Tests
// =============================================================================

func TestBuildContainerConfig_Minimal(t *testing.T) {
	config, hostConfig := buildContainerConfig(ContainerSpec{Image: "alpine:latest"})

	assert.Equal(t, "alpine:latest", config.Image)
	assert.Empty(t, config.Env)
	assert.Empty(t, config.ExposedPorts)
	assert.Empty(t, hostConfig.PortBindings)
	assert.Zero(t, hostConfig.NanoCPUs)
}

func TestBuildContainerConfig_EnvIsSorted(t *testing.T) {
	config, _ := buildContainerConfig(ContainerSpec{
		Image: "alpine",
		Env:   map[string]string{"B": "2", "A": "1"},
	})
	assert.Equal(t, []string{"A=1", "B=2"}, config.Env)
}

func TestBuildContainerConfig_Ports(t *testing.T) {
	config, hostConfig := buildContainerConfig(ContainerSpec{
		Image: "alpine",
		Ports: []PortBinding{
			{ContainerPort: 8080, HostIP: "127.0.0.1"},
			{ContainerPort: 9000, HostPort: 19000, Protocol: "udp"},
		},
	})

	_, exposed := config.ExposedPorts[nat.Port("8080/tcp")]
	assert.True(t, exposed)
	assert.Equal(t, []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: ""}}, hostConfig.PortBindings[nat.Port("8080/tcp")])
	assert.Equal(t, []nat.PortBinding{{HostPort: "19000"}}, hostConfig.PortBindings[nat.Port("9000/udp")])
}

func TestBuildContainerConfig_ResourcesAndRestart(t *testing.T) {
	_, hostConfig := buildContainerConfig(ContainerSpec{
		Image:         "alpine",
		Resources:     ResourceLimits{CPULimit: 0.5, MemoryLimit: 128 * 1024 * 1024},
		RestartPolicy: RestartPolicy{Name: "on-failure", MaximumRetryCount: 3},
	})

	assert.Equal(t, int64(500000000), hostConfig.NanoCPUs)
	assert.Equal(t, int64(128*1024*1024), hostConfig.Memory)
	assert.Equal(t, "on-failure", string(hostConfig.RestartPolicy.Name))
	assert.Equal(t, 3, hostConfig.RestartPolicy.MaximumRetryCount)
}

func TestBuildContainerConfig_Labels(t *testing.T) {
	labels := map[string]string{"com.baasflow.managed": "true"}
	config, _ := buildContainerConfig(ContainerSpec{Image: "alpine", Labels: labels})
	assert.Equal(t, labels, config.Labels)
}

func TestPortBindings(t *testing.T) {
	ports := nat.PortMap{
		"9000/tcp": {{HostIP: "0.0.0.0", HostPort: "32769"}},
		"8080/tcp": {{HostIP: "127.0.0.1", HostPort: "32768"}},
		"7000/tcp": nil,
	}

	got := portBindings(ports)
	require.Len(t, got, 2)
	assert.Equal(t, PortBinding{ContainerPort: 8080, HostPort: 32768, Protocol: "tcp", HostIP: "127.0.0.1"}, got[0])
	assert.Equal(t, 9000, got[1].ContainerPort)
}

func TestContainerInfo_HostPort(t *testing.T) {
	info := ContainerInfo{Ports: []PortBinding{
		{ContainerPort: 8080, HostPort: 0},
		{ContainerPort: 8080, HostPort: 32768},
	}}
	assert.Equal(t, 32768, info.HostPort(8080))
	assert.Equal(t, 0, info.HostPort(9000))
}

// =============================================================================
// Error Tests
// =============================================================================

func TestDockerError_Error(t *testing.T) {
	err := NewDockerError("StartContainer", "container", "abc", "container not found", ErrContainerNotFound)
	assert.Equal(t, "StartContainer container abc: container not found", err.Error())

	err = NewDockerError("ListContainers", "container", "", "boom", nil)
	assert.Equal(t, "ListContainers container: boom", err.Error())

	err = NewDockerError("Ping", "", "", "unreachable", ErrConnectionFailed)
	assert.Equal(t, "Ping: unreachable", err.Error())
}

func TestDockerError_Unwrap(t *testing.T) {
	err := NewDockerError("PullImage", "image", "x", "image not found", ErrImageNotFound)
	assert.True(t, errors.Is(err, ErrImageNotFound))
}

// =============================================================================
// Daemon Tests
// =============================================================================

func TestContainerLifecycle(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()
	ctx := context.Background()

	const img = "alpine:latest"
	exists, err := cli.ImageExists(ctx, img)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, cli.PullImage(ctx, img))
	}

	name := testPrefix + "lifecycle"
	_ = cli.RemoveContainer(ctx, name, RemoveOptions{Force: true})

	id, err := cli.CreateContainer(ctx, ContainerSpec{
		Name:   name,
		Image:  img,
		Labels: map[string]string{"com.baasflow.test": "true"},
		Ports:  []PortBinding{{ContainerPort: 8080, HostIP: "127.0.0.1"}},
	})
	require.NoError(t, err)
	defer cli.RemoveContainer(ctx, id, RemoveOptions{Force: true})

	info, err := cli.InspectContainer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, name, info.Name)
	assert.Equal(t, "true", info.Labels["com.baasflow.test"])

	list, err := cli.ListContainers(ctx, ListOptions{All: true, Filters: map[string]string{"label": "com.baasflow.test=true"}})
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	require.NoError(t, cli.RemoveContainer(ctx, id, RemoveOptions{Force: true}))
	_, err = cli.InspectContainer(ctx, id)
	assert.ErrorIs(t, err, ErrContainerNotFound)
}

func TestRemoveContainer_NotFound(t *testing.T) {
	cli := skipIfNoDocker(t)
	defer cli.Close()

	err := cli.RemoveContainer(context.Background(), testPrefix+"missing", RemoveOptions{Force: true})
	assert.ErrorIs(t, err, ErrContainerNotFound)
}

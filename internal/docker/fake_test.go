package docker

import (
	"bytes"
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/mock"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) ImagePull(ctx context.Context, ref string, options types.ImagePullOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, ref, options)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockEngine) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
	networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	args := m.Called(ctx, config, containerName)
	return args.Get(0).(container.CreateResponse), args.Error(1)
}

func (m *mockEngine) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	return m.Called(ctx, containerID).Error(0)
}

func (m *mockEngine) ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error) {
	args := m.Called(ctx, containerID)
	return args.Get(0).(types.ContainerJSON), args.Error(1)
}

func (m *mockEngine) ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, containerID, options)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockEngine) ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error {
	return m.Called(ctx, containerID, options).Error(0)
}

func (m *mockEngine) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	return m.Called(ctx, containerID, options).Error(0)
}

func (m *mockEngine) Close() error {
	return m.Called().Error(0)
}

// frame is one chunk of multiplexed container output.
type frame struct {
	stream stdcopy.StdType
	data   string
}

// multiplexed encodes frames the way the daemon does for non-TTY containers.
func multiplexed(frames ...frame) io.ReadCloser {
	var buf bytes.Buffer
	for _, f := range frames {
		w := stdcopy.NewStdWriter(&buf, f.stream)
		_, _ = w.Write([]byte(f.data))
	}
	return io.NopCloser(&buf)
}

func inspectWithState(status string) types.ContainerJSON {
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:    "0123456789abcdef",
			State: &types.ContainerState{Status: status},
		},
	}
}

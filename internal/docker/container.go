// internal/docker/container.go
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
	"github.com/google/shlex"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rusenback/logship/internal/model"
)

// RunLabel marks containers created by logship with the id of the run.
const RunLabel = "logship.run"

// stopTimeout is the grace period in seconds before the daemon kills the
// container on Stop.
const stopTimeout = 10

// ErrContainerNotFound is returned when the daemon no longer knows the
// container.
var ErrContainerNotFound = errors.New("container not found")

// ContainerCreationError is returned by Create when no container could be
// created. Message carries the daemon's explanation.
type ContainerCreationError struct {
	Image   string
	Message string
	Err     error
}

func (e *ContainerCreationError) Error() string {
	return fmt.Sprintf("creating container from image %q: %s", e.Image, e.Message)
}

func (e *ContainerCreationError) Unwrap() error { return e.Err }

// Container is the handle of the one container a run owns.
type Container struct {
	id    string
	name  string
	image string
	api   engineAPI
	log   zerolog.Logger

	timeout time.Duration
}

// ID returns the full container id.
func (c *Container) ID() string { return c.id }

// ShortID returns the 12 character id Docker shows to users.
func (c *Container) ShortID() string {
	if len(c.id) > 12 {
		return c.id[:12]
	}
	return c.id
}

// Name returns the container name without the leading slash.
func (c *Container) Name() string { return c.name }

// Image returns the image reference the container was created from.
func (c *Container) Image() string { return c.image }

// Create creates, but does not start, a container running command in image.
// The command line is split with shell quoting rules.
func (c *Client) Create(ctx context.Context, image, command string) (*Container, error) {
	cmd, err := shlex.Split(command)
	if err != nil {
		return nil, &ContainerCreationError{Image: image, Message: fmt.Sprintf("invalid command line: %v", err), Err: err}
	}

	runID := uuid.NewString()
	name := "logship-" + runID
	cfg := &container.Config{
		Image:  image,
		Cmd:    cmd,
		Labels: map[string]string{RunLabel: runID},
	}

	resp, err := c.create(ctx, cfg, name)
	if err != nil && errdefs.IsNotFound(err) && c.pull {
		c.log.Info().Str("image", image).Msg("image not present locally, pulling")
		if perr := c.pullImage(ctx, image); perr != nil {
			return nil, &ContainerCreationError{Image: image, Message: perr.Error(), Err: perr}
		}
		resp, err = c.create(ctx, cfg, name)
	}
	if err != nil {
		return nil, &ContainerCreationError{Image: image, Message: err.Error(), Err: err}
	}

	for _, w := range resp.Warnings {
		c.log.Warn().Str("container", name).Msg(w)
	}

	cont := &Container{
		id:      resp.ID,
		name:    name,
		image:   image,
		api:     c.api,
		timeout: c.timeout,
	}
	cont.log = c.log.With().Str("container", cont.ShortID()).Logger()
	cont.log.Info().Str("name", name).Str("image", image).Strs("cmd", cmd).Msg("container created")
	return cont, nil
}

func (c *Client) create(ctx context.Context, cfg *container.Config, name string) (container.CreateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.api.ContainerCreate(ctx, cfg, &container.HostConfig{}, nil, nil, name)
}

func (c *Client) pullImage(ctx context.Context, image string) error {
	rc, err := c.api.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("pulling image %s: %w", image, err)
	}
	defer rc.Close()

	// The pull only completes once the progress stream has been consumed.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("pulling image %s: %w", image, err)
	}
	return nil
}

// Start starts the container
func (c *Container) Start(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.api.ContainerStart(ctx, c.id, container.StartOptions{}); err != nil {
		return fmt.Errorf("starting container %s: %w", c.ShortID(), c.wrap(err))
	}
	c.log.Info().Msg("container started")
	return nil
}

// Refresh fetches the current lifecycle state from the daemon.
func (c *Container) Refresh(ctx context.Context) (model.ContainerState, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	info, err := c.api.ContainerInspect(ctx, c.id)
	if err != nil {
		return "", fmt.Errorf("inspecting container %s: %w", c.ShortID(), c.wrap(err))
	}
	if info.ContainerJSONBase == nil || info.State == nil {
		return "", fmt.Errorf("inspecting container %s: no state in response", c.ShortID())
	}
	return model.ContainerState(info.State.Status), nil
}

// Stop stops the container
func (c *Container) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout+stopTimeout*time.Second)
	defer cancel()

	timeout := stopTimeout
	if err := c.api.ContainerStop(ctx, c.id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("stopping container %s: %w", c.ShortID(), c.wrap(err))
	}
	return nil
}

// Remove deletes the container. A container the daemon does not know
// (anymore) yields ErrContainerNotFound.
func (c *Container) Remove(ctx context.Context, force bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.api.ContainerRemove(ctx, c.id, container.RemoveOptions{Force: force}); err != nil {
		return fmt.Errorf("removing container %s: %w", c.ShortID(), c.wrap(err))
	}
	return nil
}

// wrap maps the daemon's not-found errors onto ErrContainerNotFound.
func (c *Container) wrap(err error) error {
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %v", ErrContainerNotFound, err)
	}
	return err
}

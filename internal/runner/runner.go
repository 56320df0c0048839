// Package runner wires one logship run together: sink addressing, the
// container, the shipping loop and the teardown that always follows.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rusenback/logship/internal/docker"
	"github.com/rusenback/logship/internal/model"
	"github.com/rusenback/logship/internal/shipper"
	"github.com/rusenback/logship/internal/teardown"
)

// Failure classes of a run, matched with errors.Is.
var (
	ErrSetup    = errors.New("log sink setup failed")
	ErrCreate   = errors.New("container creation failed")
	ErrStart    = errors.New("container start failed")
	ErrTeardown = errors.New("container removal failed")
)

// Handle is the container a run owns.
type Handle interface {
	shipper.Container
	teardown.Remover
	Start(ctx context.Context) error
	ShortID() string
}

// Engine creates containers.
type Engine interface {
	Create(ctx context.Context, image, command string) (Handle, error)
}

// Sink is the log sink: addressing plus delivery.
type Sink interface {
	Ensure(ctx context.Context, target model.SinkTarget) error
	shipper.Sink
}

// Options describe the run.
type Options struct {
	Image   string
	Command string
	Target  model.SinkTarget
	Shipper shipper.Options

	// TeardownTimeout bounds the removal of the container.
	TeardownTimeout time.Duration
}

// Result is what a run leaves behind.
type Result struct {
	ContainerID string
	Stats       shipper.Stats
	Teardown    teardown.Outcome
}

// Runner executes one run.
type Runner struct {
	engine Engine
	sink   Sink
	log    zerolog.Logger
	opts   Options
}

// New returns a Runner.
func New(engine Engine, sink Sink, log zerolog.Logger, opts Options) *Runner {
	if opts.TeardownTimeout <= 0 {
		opts.TeardownTimeout = time.Minute
	}
	return &Runner{engine: engine, sink: sink, log: log, opts: opts}
}

// Run prepares the log sink, runs the container while shipping its output
// and removes the container again. Removal happens whenever a container was
// created, whatever happened afterwards; cancelling ctx stops the container
// but not its removal.
func (r *Runner) Run(ctx context.Context) (res Result, err error) {
	guard := teardown.New(r.log)
	defer func() {
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.TeardownTimeout)
		defer cancel()

		outcome, terr := guard.Run(tctx)
		res.Teardown = outcome
		if terr != nil {
			err = errors.Join(err, fmt.Errorf("%w: %w", ErrTeardown, terr))
		}
	}()

	if err := r.sink.Ensure(ctx, r.opts.Target); err != nil {
		r.log.Error().Err(err).Stringer("target", r.opts.Target).Msg("failed to prepare the log group and stream")
		return res, fmt.Errorf("%w: %w", ErrSetup, err)
	}

	handle, err := r.engine.Create(ctx, r.opts.Image, r.opts.Command)
	if err != nil {
		ev := r.log.Error().Err(err).Str("image", r.opts.Image)
		var cerr *docker.ContainerCreationError
		if errors.As(err, &cerr) {
			ev = ev.Str("daemon", cerr.Message)
		}
		ev.Msg("failed to create a docker container")
		return res, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	guard.Arm(handle)
	res.ContainerID = handle.ShortID()

	if err := handle.Start(ctx); err != nil {
		r.log.Error().Err(err).Str("container", handle.ShortID()).Msg("failed to start the docker container")
		return res, fmt.Errorf("%w: %w", ErrStart, err)
	}

	res.Stats = shipper.New(handle, r.sink, r.opts.Target, r.log, r.opts.Shipper).Run(ctx)
	r.log.Info().
		Str("container", handle.ShortID()).
		Stringer("state", res.Stats.FinalState).
		Bool("interrupted", res.Stats.Interrupted).
		Int("polls", res.Stats.Polls).
		Int("records", res.Stats.Records).
		Int("delivered", res.Stats.Delivered).
		Int("rejected", res.Stats.Rejected).
		Int("delivery_errors", res.Stats.DeliveryErrors).
		Msg("log shipping finished")
	return res, nil
}

// DockerEngine is an Engine backed by the Docker daemon. It connects on the
// first Create, so a run reaches the daemon only after the log sink is ready.
type DockerEngine struct {
	cfg    docker.Config
	log    zerolog.Logger
	client *docker.Client
}

// NewDockerEngine returns a DockerEngine for the daemon described by cfg.
func NewDockerEngine(cfg docker.Config, log zerolog.Logger) *DockerEngine {
	return &DockerEngine{cfg: cfg, log: log}
}

// Create connects to the daemon if needed and creates a container.
func (e *DockerEngine) Create(ctx context.Context, image, command string) (Handle, error) {
	if e.client == nil {
		c, err := docker.NewClient(ctx, e.cfg, e.log)
		if err != nil {
			return nil, fmt.Errorf("connecting to docker: %w", err)
		}
		e.client = c
	}
	cont, err := e.client.Create(ctx, image, command)
	if err != nil {
		return nil, err
	}
	return cont, nil
}

// Close releases the daemon connection, if one was made.
func (e *DockerEngine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusenback/logship/internal/docker"
	"github.com/rusenback/logship/internal/model"
	"github.com/rusenback/logship/internal/shipper"
	"github.com/rusenback/logship/internal/teardown"
)

type fakeHandle struct {
	states      []model.ContainerState
	outputs     []string
	polls       int
	refreshErrs []error
	startErr    error
	removeErr   map[bool]error

	state   model.ContainerState
	started bool
	stops   int
	removes []bool
}

func (h *fakeHandle) ShortID() string { return "c0ffee" }

func (h *fakeHandle) Start(ctx context.Context) error {
	h.started = true
	return h.startErr
}

func (h *fakeHandle) Refresh(ctx context.Context) (model.ContainerState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(h.refreshErrs) > 0 {
		err := h.refreshErrs[0]
		h.refreshErrs = h.refreshErrs[1:]
		return "", err
	}
	h.polls++
	h.state = model.StateExited
	if h.polls <= len(h.states) {
		h.state = h.states[h.polls-1]
	}
	return h.state, nil
}

func (h *fakeHandle) ReadOutput(ctx context.Context) ([]byte, error) {
	i := min(h.polls, len(h.outputs)) - 1
	if i < 0 {
		return nil, nil
	}
	return []byte(h.outputs[i]), nil
}

func (h *fakeHandle) Stop(ctx context.Context) error {
	h.stops++
	h.state = model.StateExited
	return nil
}

func (h *fakeHandle) Remove(ctx context.Context, force bool) error {
	h.removes = append(h.removes, force)
	if !force && h.state == model.StateRunning {
		return errors.New("You cannot remove a running container")
	}
	return h.removeErr[force]
}

type fakeEngine struct {
	handle  *fakeHandle
	err     error
	creates int
}

func (e *fakeEngine) Create(ctx context.Context, image, command string) (Handle, error) {
	e.creates++
	if e.err != nil {
		return nil, e.err
	}
	return e.handle, nil
}

type fakeSink struct {
	ensureErr   error
	ensures     int
	deliverErrs map[int]error
	batches     [][]model.LogRecord
	calls       int
}

func (s *fakeSink) Ensure(ctx context.Context, target model.SinkTarget) error {
	s.ensures++
	return s.ensureErr
}

func (s *fakeSink) Deliver(ctx context.Context, target model.SinkTarget, records []model.LogRecord) (model.DeliveryResult, error) {
	s.calls++
	if err := s.deliverErrs[s.calls]; err != nil {
		return model.DeliveryResult{}, err
	}
	s.batches = append(s.batches, records)
	return model.DeliveryResult{Accepted: len(records)}, nil
}

func newTestRunner(e Engine, s Sink, logs *bytes.Buffer, sopts shipper.Options) *Runner {
	log := zerolog.Nop()
	if logs != nil {
		log = zerolog.New(logs)
	}
	return New(e, s, log, Options{
		Image:   "busybox",
		Command: "sh -c 'echo hi'",
		Target:  model.SinkTarget{Group: "g", Stream: "s"},
		Shipper: sopts,
	})
}

func TestRunToCompletion(t *testing.T) {
	h := &fakeHandle{
		states:  []model.ContainerState{model.StateCreated, model.StateRunning, model.StateExited},
		outputs: []string{"", "hi\n", "hi\n"},
	}
	e := &fakeEngine{handle: h}
	s := &fakeSink{}

	res, err := newTestRunner(e, s, nil, shipper.Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.True(t, h.started)
	assert.Len(t, s.batches, 1)
	assert.Equal(t, model.StateExited, res.Stats.FinalState)
	assert.Equal(t, teardown.Removed, res.Teardown)
	assert.Equal(t, "c0ffee", res.ContainerID)
	assert.Equal(t, []bool{false}, h.removes)
}

func TestRunSetupFailure(t *testing.T) {
	h := &fakeHandle{}
	e := &fakeEngine{handle: h}
	s := &fakeSink{ensureErr: errors.New("AccessDeniedException")}

	res, err := newTestRunner(e, s, nil, shipper.Options{}).Run(context.Background())

	assert.ErrorIs(t, err, ErrSetup)
	assert.Zero(t, e.creates)
	assert.Empty(t, h.removes)
	assert.Equal(t, teardown.Skipped, res.Teardown)
}

func TestRunCreateFailure(t *testing.T) {
	h := &fakeHandle{}
	e := &fakeEngine{handle: h, err: &docker.ContainerCreationError{
		Image:   "no/such:image",
		Message: "pull access denied for no/such",
	}}
	s := &fakeSink{}
	var logs bytes.Buffer

	res, err := newTestRunner(e, s, &logs, shipper.Options{}).Run(context.Background())

	assert.ErrorIs(t, err, ErrCreate)
	assert.False(t, h.started)
	assert.Zero(t, h.polls)
	assert.Empty(t, h.removes)
	assert.Zero(t, s.calls)
	assert.Equal(t, teardown.Skipped, res.Teardown)
	assert.Contains(t, logs.String(), "pull access denied for no/such")
	assert.Contains(t, logs.String(), `"level":"error"`)
}

func TestRunStartFailureStillTearsDown(t *testing.T) {
	h := &fakeHandle{startErr: errors.New("OCI runtime create failed")}
	e := &fakeEngine{handle: h}

	res, err := newTestRunner(e, &fakeSink{}, nil, shipper.Options{}).Run(context.Background())

	assert.ErrorIs(t, err, ErrStart)
	assert.Zero(t, h.polls)
	assert.Equal(t, []bool{false}, h.removes)
	assert.Equal(t, teardown.Removed, res.Teardown)
}

func TestRunDeliveryErrorOnSecondPoll(t *testing.T) {
	h := &fakeHandle{
		states:  []model.ContainerState{model.StateRunning, model.StateRunning, model.StateExited},
		outputs: []string{"1\n", "1\n2\n", "1\n2\n3\n"},
	}
	s := &fakeSink{deliverErrs: map[int]error{2: errors.New("net/http: TLS handshake timeout")}}
	var logs bytes.Buffer

	res, err := newTestRunner(&fakeEngine{handle: h}, s, &logs, shipper.Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.Polls)
	assert.Equal(t, 1, res.Stats.DeliveryErrors)
	assert.Equal(t, teardown.Removed, res.Teardown)
	assert.Contains(t, logs.String(), "TLS handshake timeout")
}

func TestRunInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &fakeHandle{
		states:  []model.ContainerState{model.StateRunning, model.StateRunning, model.StateRunning},
		outputs: []string{"a\n", "a\n", "a\n"},
	}
	observer := func(ev shipper.Event) {
		if ev.Kind == shipper.EventDelivered {
			cancel()
		}
	}

	res, err := newTestRunner(&fakeEngine{handle: h}, &fakeSink{}, nil, shipper.Options{Observer: observer}).Run(ctx)

	require.NoError(t, err)
	assert.True(t, res.Stats.Interrupted)
	assert.Equal(t, 1, h.stops)
	assert.Equal(t, []bool{false}, h.removes)
}

func TestRunForcedRemoval(t *testing.T) {
	h := &fakeHandle{
		states:    []model.ContainerState{model.StateExited},
		removeErr: map[bool]error{false: errors.New("container is running")},
	}

	res, err := newTestRunner(&fakeEngine{handle: h}, &fakeSink{}, nil, shipper.Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, h.removes)
	assert.Equal(t, teardown.ForceRemoved, res.Teardown)
}

func TestRunAlreadyRemoved(t *testing.T) {
	h := &fakeHandle{
		states:    []model.ContainerState{model.StateExited},
		removeErr: map[bool]error{false: fmt.Errorf("removing: %w", docker.ErrContainerNotFound)},
	}

	res, err := newTestRunner(&fakeEngine{handle: h}, &fakeSink{}, nil, shipper.Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []bool{false}, h.removes)
	assert.Equal(t, teardown.AlreadyRemoved, res.Teardown)
}

func TestRunTeardownFailure(t *testing.T) {
	h := &fakeHandle{
		states: []model.ContainerState{model.StateExited},
		removeErr: map[bool]error{
			false: errors.New("busy"),
			true:  errors.New("still busy"),
		},
	}

	res, err := newTestRunner(&fakeEngine{handle: h}, &fakeSink{}, nil, shipper.Options{}).Run(context.Background())

	assert.ErrorIs(t, err, ErrTeardown)
	assert.Equal(t, teardown.Failed, res.Teardown)
	assert.Equal(t, []bool{false, true}, h.removes)
}

func TestRunRefreshErrorsKeepTheContainerRunning(t *testing.T) {
	h := &fakeHandle{
		refreshErrs: []error{
			errors.New("daemon hiccup"),
			errors.New("daemon hiccup"),
			errors.New("daemon hiccup"),
			errors.New("daemon hiccup"),
			errors.New("daemon hiccup"),
			errors.New("daemon hiccup"),
		},
		states:  []model.ContainerState{model.StateRunning, model.StateExited},
		outputs: []string{"a\n", "a\nb\n"},
	}
	s := &fakeSink{}

	res, err := newTestRunner(&fakeEngine{handle: h}, s, nil, shipper.Options{RefreshBackoff: time.Millisecond}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 8, res.Stats.Polls)
	assert.Equal(t, model.StateExited, res.Stats.FinalState)
	assert.Zero(t, h.stops)
	assert.Equal(t, []bool{false}, h.removes)
	assert.Equal(t, teardown.Removed, res.Teardown)
	assert.Len(t, s.batches, 2)
}

func TestRunContainerVanished(t *testing.T) {
	gone := fmt.Errorf("inspecting container c0ffee: %w", docker.ErrContainerNotFound)
	h := &fakeHandle{
		refreshErrs: []error{gone},
		removeErr:   map[bool]error{false: gone},
	}

	res, err := newTestRunner(&fakeEngine{handle: h}, &fakeSink{}, nil, shipper.Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Polls)
	assert.Equal(t, []bool{false}, h.removes)
	assert.Equal(t, teardown.AlreadyRemoved, res.Teardown)
}

func TestRunSetupFailureNeverReachesDocker(t *testing.T) {
	cfg := docker.DefaultConfig()
	cfg.Host = "tcp://127.0.0.1:1"
	engine := NewDockerEngine(cfg, zerolog.Nop())
	s := &fakeSink{ensureErr: errors.New("AccessDeniedException")}

	res, err := newTestRunner(engine, s, nil, shipper.Options{}).Run(context.Background())

	assert.ErrorIs(t, err, ErrSetup)
	assert.Nil(t, engine.client)
	assert.Equal(t, teardown.Skipped, res.Teardown)
	assert.NoError(t, engine.Close())
}

package shipper

import (
	"context"
	"errors"

	"github.com/rusenback/logship/internal/model"
)

// step is what the fake container reports on one Refresh and the ReadOutput
// that follows it.
type step struct {
	state  model.ContainerState
	output string
	err    error
}

type fakeContainer struct {
	steps   []step
	pos     int
	refresh int
	reads   int
	stops   int
	stopErr error
	readErr error
}

func (c *fakeContainer) current() step {
	i := c.pos - 1
	if i < 0 {
		i = 0
	}
	if i >= len(c.steps) {
		i = len(c.steps) - 1
	}
	return c.steps[i]
}

func (c *fakeContainer) Refresh(ctx context.Context) (model.ContainerState, error) {
	c.refresh++
	c.pos++
	if c.pos > len(c.steps) {
		return model.StateExited, nil
	}
	st := c.current()
	return st.state, st.err
}

func (c *fakeContainer) ReadOutput(ctx context.Context) ([]byte, error) {
	c.reads++
	if c.readErr != nil {
		return nil, c.readErr
	}
	return []byte(c.current().output), nil
}

func (c *fakeContainer) Stop(ctx context.Context) error {
	c.stops++
	if ctx.Err() != nil {
		return errors.New("stop called with a cancelled context")
	}
	return c.stopErr
}

type fakeSink struct {
	batches [][]model.LogRecord
	errs    map[int]error
	results map[int]model.DeliveryResult
	calls   int
}

func (s *fakeSink) Deliver(ctx context.Context, target model.SinkTarget, records []model.LogRecord) (model.DeliveryResult, error) {
	s.calls++
	if err := s.errs[s.calls]; err != nil {
		return model.DeliveryResult{}, err
	}
	s.batches = append(s.batches, records)
	if res, ok := s.results[s.calls]; ok {
		return res, nil
	}
	return model.DeliveryResult{Accepted: len(records)}, nil
}

func (s *fakeSink) messages() [][]string {
	out := make([][]string, 0, len(s.batches))
	for _, b := range s.batches {
		msgs := make([]string, 0, len(b))
		for _, r := range b {
			msgs = append(msgs, r.Message)
		}
		out = append(out, msgs)
	}
	return out
}

// cancellingSink cancels the run while a delivery is in flight.
type cancellingSink struct {
	cancel context.CancelFunc
	calls  int
}

func (s *cancellingSink) Deliver(ctx context.Context, target model.SinkTarget, records []model.LogRecord) (model.DeliveryResult, error) {
	s.calls++
	s.cancel()
	return model.DeliveryResult{}, ctx.Err()
}

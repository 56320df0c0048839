// Package shipper runs the loop that forwards the output of a running
// container to a log sink.
package shipper

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rusenback/logship/internal/docker"
	"github.com/rusenback/logship/internal/model"
)

// Container is the lifecycle handle the loop polls.
type Container interface {
	Refresh(ctx context.Context) (model.ContainerState, error)
	ReadOutput(ctx context.Context) ([]byte, error)
	Stop(ctx context.Context) error
}

// Sink receives the records.
type Sink interface {
	Deliver(ctx context.Context, target model.SinkTarget, records []model.LogRecord) (model.DeliveryResult, error)
}

// Options tune a Shipper. The zero value polls without pause.
type Options struct {
	// PollInterval is the minimum time between two polls.
	PollInterval time.Duration
	// StopTimeout bounds stopping the container after an interruption.
	StopTimeout time.Duration
	// RefreshBackoff is the first pause after a failed state query. The
	// pause grows with every further failure in a row, up to
	// MaxRefreshBackoff. Failed queries never end the loop unless the
	// container is gone.
	RefreshBackoff    time.Duration
	MaxRefreshBackoff time.Duration

	// Now stamps records; defaults to time.Now.
	Now func() time.Time
	// Observer, when set, is told about every step of the loop.
	Observer Observer
}

// Stats summarizes a finished run of the loop.
type Stats struct {
	Polls          int
	Batches        int
	Records        int
	Delivered      int
	Rejected       int
	DeliveryErrors int
	FinalState     model.ContainerState
	Interrupted    bool
}

// Shipper polls one container and ships its new output lines.
type Shipper struct {
	container Container
	sink      Sink
	target    model.SinkTarget
	log       zerolog.Logger
	opts      Options

	cursor   cursor
	stats    Stats
	failures int
	retry    *backoff.ExponentialBackOff
}

// New returns a Shipper for container delivering to target.
func New(container Container, sink Sink, target model.SinkTarget, log zerolog.Logger, opts Options) *Shipper {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 30 * time.Second
	}
	if opts.RefreshBackoff <= 0 {
		opts.RefreshBackoff = 500 * time.Millisecond
	}
	if opts.MaxRefreshBackoff < opts.RefreshBackoff {
		opts.MaxRefreshBackoff = max(30*time.Second, opts.RefreshBackoff)
	}
	if opts.Observer == nil {
		opts.Observer = func(Event) {}
	}
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = opts.RefreshBackoff
	retry.MaxInterval = opts.MaxRefreshBackoff
	retry.MaxElapsedTime = 0
	retry.Reset()

	return &Shipper{
		container: container,
		sink:      sink,
		target:    target,
		log:       log.With().Str("component", "shipper").Logger(),
		opts:      opts,
		retry:     retry,
	}
}

func limiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Run polls until the container leaves the created/running states or ctx is
// cancelled. Delivery problems are logged and never end the loop. On
// cancellation the container is stopped before Run returns.
func (s *Shipper) Run(ctx context.Context) Stats {
	pace := limiter(s.opts.PollInterval)

	for {
		if err := pace.Wait(ctx); err != nil {
			s.interrupt(ctx)
			return s.stats
		}
		s.stats.Polls++

		state, err := s.container.Refresh(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.interrupt(ctx)
				return s.stats
			}
			if errors.Is(err, docker.ErrContainerNotFound) {
				s.log.Warn().Err(err).Msg("container is gone, nothing left to ship")
				s.opts.Observer(Event{Kind: EventStopped, State: s.stats.FinalState})
				return s.stats
			}
			s.failures++
			pause := s.retry.NextBackOff()
			s.log.Error().Err(err).Int("attempt", s.failures).Dur("retry_in", pause).Msg("failed to refresh container state")
			s.opts.Observer(Event{Kind: EventRefreshFailed, Err: err})
			if err := sleep(ctx, pause); err != nil {
				s.interrupt(ctx)
				return s.stats
			}
			continue
		}
		if s.failures > 0 {
			s.failures = 0
			s.retry.Reset()
		}

		if state != s.stats.FinalState {
			s.log.Debug().Stringer("state", state).Msg("container state changed")
			s.opts.Observer(Event{Kind: EventState, State: state})
		}
		s.stats.FinalState = state

		if !state.KeepPolling() {
			s.log.Info().Stringer("state", state).Msg("container finished, draining output")
			s.ship(ctx, true)
			s.opts.Observer(Event{Kind: EventStopped, State: state})
			return s.stats
		}

		s.ship(ctx, false)
		if ctx.Err() != nil {
			s.interrupt(ctx)
			return s.stats
		}
	}
}

// sleep pauses for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ship reads the output, turns new lines into records and delivers them.
func (s *Shipper) ship(ctx context.Context, final bool) {
	out, err := s.container.ReadOutput(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("failed to read container output")
			s.opts.Observer(Event{Kind: EventReadFailed, Err: err})
		}
		return
	}

	lines, reset := s.cursor.advance(out, final)
	if reset {
		s.log.Warn().Int("bytes", len(out)).Msg("container output shrank, shipping it from the start")
	}
	if len(lines) == 0 {
		return
	}

	now := s.opts.Now()
	records := make([]model.LogRecord, len(lines))
	for i, line := range lines {
		records[i] = model.LogRecord{Timestamp: now, Message: line}
	}
	s.stats.Batches++
	s.stats.Records += len(records)

	res, err := s.sink.Deliver(ctx, s.target, records)
	if err != nil && ctx.Err() != nil {
		s.log.Warn().Err(err).Int("records", len(records)).Msg("delivery cut short by interruption, dropping batch")
		return
	}
	if err != nil {
		s.stats.DeliveryErrors++
		s.log.Warn().Err(err).Int("records", len(records)).Msg("failed to deliver log records, dropping batch")
		s.opts.Observer(Event{Kind: EventDeliveryFailed, Records: records, Err: err})
		return
	}

	s.stats.Delivered += res.Accepted
	s.stats.Rejected += res.Rejected
	if res.Rejected > 0 {
		s.log.Warn().
			Int("rejected", res.Rejected).
			Int("too_new", res.TooNew).
			Int("too_old", res.TooOld).
			Int("expired", res.Expired).
			Msg("some log records were rejected by the sink")
	} else {
		s.log.Debug().Int("records", len(records)).Msg("log records delivered")
	}
	s.opts.Observer(Event{Kind: EventDelivered, Records: records, Result: res})
}

// interrupt stops the container after the run context has been cancelled.
func (s *Shipper) interrupt(ctx context.Context) {
	s.stats.Interrupted = true
	s.log.Info().Msg("interrupted, stopping the container")
	s.opts.Observer(Event{Kind: EventInterrupted, State: s.stats.FinalState})

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.StopTimeout)
	defer cancel()

	if err := s.container.Stop(stopCtx); err != nil {
		s.log.Warn().Err(err).Msg("failed to stop the container")
		return
	}
	s.log.Info().Msg("container stopped")
}

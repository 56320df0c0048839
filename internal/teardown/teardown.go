// Package teardown removes the run's container exactly once, escalating to
// a forced removal when the graceful one fails.
package teardown

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rusenback/logship/internal/docker"
)

// Remover deletes a container.
type Remover interface {
	Remove(ctx context.Context, force bool) error
}

// Outcome tells how a teardown ended.
type Outcome int

const (
	// Skipped means there was no container to remove.
	Skipped Outcome = iota
	Removed
	AlreadyRemoved
	ForceRemoved
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Removed:
		return "removed"
	case AlreadyRemoved:
		return "already-removed"
	case ForceRemoved:
		return "force-removed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Guard owns the removal of one container.
type Guard struct {
	log    zerolog.Logger
	target Remover
	done   bool
	result Outcome
	err    error
}

// New returns a Guard with nothing to remove yet.
func New(log zerolog.Logger) *Guard {
	return &Guard{log: log.With().Str("component", "teardown").Logger()}
}

// Arm hands the container to the guard once it exists.
func (g *Guard) Arm(r Remover) {
	g.target = r
}

// Run removes the armed container. Only the first call does any work; later
// calls return the first outcome.
func (g *Guard) Run(ctx context.Context) (Outcome, error) {
	if g.done {
		return g.result, g.err
	}
	g.done = true
	g.result, g.err = g.remove(ctx)
	return g.result, g.err
}

func (g *Guard) remove(ctx context.Context) (Outcome, error) {
	if g.target == nil {
		g.log.Debug().Msg("no container was created, nothing to remove")
		return Skipped, nil
	}

	err := g.target.Remove(ctx, false)
	switch {
	case err == nil:
		g.log.Info().Msg("docker container was removed")
		return Removed, nil
	case errors.Is(err, docker.ErrContainerNotFound):
		g.log.Info().Msg("container already removed")
		return AlreadyRemoved, nil
	}

	g.log.Warn().Err(err).Msg("graceful removal failed, forcing removal")
	ferr := g.target.Remove(ctx, true)
	switch {
	case ferr == nil:
		g.log.Warn().Msg("docker container was force removed")
		return ForceRemoved, nil
	case errors.Is(ferr, docker.ErrContainerNotFound):
		g.log.Info().Msg("container already removed")
		return AlreadyRemoved, nil
	}

	g.log.Error().Err(ferr).Msg("forced removal failed, container is left behind")
	return Failed, fmt.Errorf("removing container: %w", ferr)
}

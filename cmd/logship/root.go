package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rusenback/logship/internal/config"
	"github.com/rusenback/logship/internal/logger"
	"github.com/rusenback/logship/internal/runner"
	"github.com/rusenback/logship/internal/shipper"
	"github.com/rusenback/logship/internal/sink"
	"github.com/rusenback/logship/internal/tui"
)

// errRunFailed marks a run that already logged why it failed.
var errRunFailed = errors.New("run failed")

func newRootCmd() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "logship",
		Short: "Run a command inside a Docker container and send its output to AWS CloudWatch Logs",
		Long: `logship creates a container from the given image, runs the command in it and
forwards every line the container writes to stdout or stderr to a CloudWatch
Logs stream while the container runs. The log group and stream are created if
needed. The container is removed when it exits or logship is interrupted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cfg.BindFlags(cmd.Flags())
	for _, name := range config.Required {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// execute runs the root command and returns the process exit code.
func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", config.FlagLogLevel, err)
	}
	log := logger.New(stdout, stderr, level)

	if cfg.TUI {
		return runWithTUI(ctx, cfg, level, log)
	}
	_, err = runOnce(ctx, cfg, log, shipper.Options{})
	return err
}

// runOnce prepares the sink and the Docker engine and performs the run. The
// engine connects to the daemon only once the log group and stream exist.
func runOnce(ctx context.Context, cfg config.Config, log zerolog.Logger, sopts shipper.Options) (runner.Result, error) {
	sinkClient, err := sink.New(cfg.Sink(), log)
	if err != nil {
		log.Error().Err(err).Msg("invalid log sink configuration")
		return runner.Result{}, errRunFailed
	}

	engine := runner.NewDockerEngine(cfg.Docker(), log)
	defer engine.Close()

	sopts.PollInterval = cfg.PollInterval
	r := runner.New(engine, sinkClient, log, runner.Options{
		Image:   cfg.Image,
		Command: cfg.Command,
		Target:  cfg.Target(),
		Shipper: sopts,
	})

	res, err := r.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %w", errRunFailed, err)
	}
	return res, nil
}

// runWithTUI performs the run while the status view owns the terminal. Log
// lines go to the view; the final outcome is logged to the console again
// once the view has closed.
func runWithTUI(ctx context.Context, cfg config.Config, level zerolog.Level, console zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tui.NewProgram(tui.NewModel(cfg.Image, cfg.Command, cfg.Target(), cancel))
	log := logger.NewPlain(prog.LogWriter(), level)

	var (
		res    runner.Result
		runErr error
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		res, runErr = runOnce(ctx, cfg, log, shipper.Options{Observer: prog.Observer()})
		prog.Done(res, runErr)
		return nil
	})
	g.Go(func() error {
		err := prog.Run()
		if err != nil {
			// Without a view nobody can stop the run by key anymore.
			cancel()
		}
		return err
	})
	viewErr := g.Wait()

	if viewErr != nil {
		console.Warn().Err(viewErr).Msg("status view failed")
	}
	if runErr != nil {
		console.Error().Err(runErr).Msg("run failed")
		return errRunFailed
	}
	console.Info().
		Str("container", res.ContainerID).
		Stringer("state", res.Stats.FinalState).
		Int("records", res.Stats.Records).
		Int("delivered", res.Stats.Delivered).
		Int("rejected", res.Stats.Rejected).
		Int("delivery_errors", res.Stats.DeliveryErrors).
		Stringer("teardown", res.Teardown).
		Msg("log shipping finished")
	return nil
}

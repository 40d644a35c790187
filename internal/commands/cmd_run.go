package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/subhankaladi/ai-employee/internal/core/lock"
	"github.com/subhankaladi/ai-employee/internal/employee"
	"github.com/subhankaladi/ai-employee/pkg/profiler"
)

type RunCmd struct {
	flags *Flags
	app   *employee.App

	once     bool
	interval time.Duration
	strategy string
	watch    bool

	profilerPort int
}

func NewRunCmd(flags *Flags, app *employee.App) *RunCmd {
	return &RunCmd{flags: flags, app: app}
}

func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run the orchestration loop against the vault",
		UsageText: "employee run [options]",
		Description: `Polls the vault on a fixed interval. Each cycle:

  1. hands new Needs_Action items to the intake strategy (planning or agent)
  2. executes every item in Approved and archives it to Done
  3. refreshes the counters in Dashboard.md

Only one engine may run against a vault at a time.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "once",
				Usage:       "run a single cycle and exit",
				Destination: &cmd.once,
			},
			&cli.DurationFlag{
				Name:        "interval",
				Usage:       "polling interval (overrides config)",
				Destination: &cmd.interval,
			},
			&cli.StringFlag{
				Name:        "strategy",
				Usage:       "intake strategy: planning or agent (overrides config)",
				Destination: &cmd.strategy,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Usage:       "wake early when files land in Needs_Action or Approved",
				Destination: &cmd.watch,
			},
			&cli.IntFlag{
				Name:        "profiler-port",
				Usage:       "enable pprof HTTP endpoint on specified port (e.g., 6060)",
				Sources:     cli.EnvVars("EMPLOYEE_PROFILER_PORT"),
				Destination: &cmd.profilerPort,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config
	if cmd.interval > 0 {
		cfg.Interval = cmd.interval
	}
	if cmd.strategy != "" {
		cfg.Intake.Strategy = cmd.strategy
	}
	if c.IsSet("watch") {
		cfg.Watch = cmd.watch
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.ValidateDeep(cmd.flags.ConfigPath); err != nil {
		var fieldErrs criterio.FieldErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			log.Warn().Str("field", fe.Field).Err(fe.Err).Msg("config check failed")
		}
	}

	if err := cmd.app.Vault.Ensure(); err != nil {
		return fmt.Errorf("prepare vault: %w", err)
	}

	if err := cmd.app.Lock.Acquire(); err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return fmt.Errorf("another engine is already running against %s: %w", cfg.VaultPath, err)
		}
		return err
	}
	defer func() {
		if err := cmd.app.Lock.Release(); err != nil {
			log.Error().Err(err).Msg("release lock")
		}
	}()

	if err := cmd.app.Dedup.Load(ctx, cmd.app.Vault); err != nil {
		return err
	}

	orch, err := cmd.app.Orchestrator()
	if err != nil {
		return err
	}

	if cmd.once {
		res, err := orch.RunCycle(ctx)
		_, _ = fmt.Fprintf(c.Root().Writer, "pending=%d handled=%d dispatched=%d failed=%d dashboard_updated=%t\n",
			res.Pending, res.Handled, res.Dispatched, res.Failed, res.DashboardUpdated)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.profilerPort > 0 {
		profServer := profiler.New(cmd.profilerPort, log.Logger)
		if err := profServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := profServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
		log.Info().
			Str("url", fmt.Sprintf("http://%s/debug/pprof/", profServer.Addr())).
			Msg("profiler endpoint available")
	}

	var wake chan struct{}
	if cfg.Watch {
		watcher, err := cmd.app.Watcher()
		if err != nil {
			log.Warn().Err(err).Msg("file watching disabled")
		} else {
			defer func() { _ = watcher.Close() }()
			wake = make(chan struct{}, 1)
			go watcher.Run(ctx, wake)
		}
	}

	return orch.Run(ctx, wake)
}

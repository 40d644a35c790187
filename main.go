package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/subhankaladi/ai-employee/internal/commands"
	"github.com/subhankaladi/ai-employee/internal/core/config"
	"github.com/subhankaladi/ai-employee/internal/core/logging"
	"github.com/subhankaladi/ai-employee/internal/employee"
	"github.com/subhankaladi/ai-employee/pkg/executil"
	"github.com/subhankaladi/ai-employee/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser   func()
		employeeApp = &employee.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "employee",
		Usage:     "Run the vault-driven AI employee",
		UsageText: "employee [global options] command [command options]",
		Description: `employee watches an Obsidian-style vault and moves work items through
Needs_Action, Plans, Pending_Approval, Approved and Done.

Run 'employee init' to create the vault layout.
Run 'employee run' to start the orchestration loop.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("EMPLOYEE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("EMPLOYEE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("EMPLOYEE_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "vault",
				Usage:       "path to the vault root (overrides vault_path)",
				Sources:     cli.EnvVars("EMPLOYEE_VAULT"),
				Destination: &flags.Vault,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.Vault)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			svcLogger := logging.Component("employee")
			built, err := employee.NewApp(cfg, &executil.RealExecutor{}, svcLogger)
			if err != nil {
				return ctx, err
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*employeeApp = *built

			log.Debug().
				Str("vault", cfg.VaultPath).
				Dur("interval", cfg.Interval).
				Str("strategy", cfg.Intake.Strategy).
				Msg("configuration loaded")

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewInitCmd(flags, employeeApp).Register(app)
	app = commands.NewRunCmd(flags, employeeApp).Register(app)
	app = commands.NewStatusCmd(flags, employeeApp).Register(app)
	app = commands.NewApprovalsCmd(flags, employeeApp).Register(app)
	app = commands.NewDashboardCmd(flags, employeeApp).Register(app)
	app = commands.NewLogCmd(flags, employeeApp).Register(app)
	app = commands.NewDoctorCmd(flags, employeeApp).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/subhankaladi/ai-employee/internal/employee"
)

type DashboardCmd struct {
	flags *Flags
	app   *employee.App

	sync bool
	raw  bool
}

func NewDashboardCmd(flags *Flags, app *employee.App) *DashboardCmd {
	return &DashboardCmd{flags: flags, app: app}
}

func (cmd *DashboardCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "dashboard",
		Usage:     "Render Dashboard.md",
		UsageText: "employee dashboard [--sync] [--raw]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "sync",
				Usage:       "refresh the counters before rendering",
				Destination: &cmd.sync,
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print the markdown without rendering",
				Destination: &cmd.raw,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DashboardCmd) run(_ context.Context, c *cli.Command) error {
	if cmd.sync {
		if _, err := cmd.app.SyncDashboard(time.Now()); err != nil {
			return err
		}
	}

	path := cmd.app.Dashboard.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no dashboard at %s; run 'employee init' to create one", path)
		}
		return err
	}

	out := c.Root().Writer
	if cmd.raw || !isTerminal(out) {
		_, err := out.Write(data)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth(out)),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	rendered, err := r.Render(string(data))
	if err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

type fdWriter interface {
	Fd() uintptr
}

func isTerminal(w any) bool {
	f, ok := w.(fdWriter)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w any) int {
	if f, ok := w.(fdWriter); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return min(width, 120)
		}
	}
	return 80
}

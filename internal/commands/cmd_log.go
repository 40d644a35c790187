package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/subhankaladi/ai-employee/internal/core/actionlog"
	"github.com/subhankaladi/ai-employee/internal/core/styles"
	"github.com/subhankaladi/ai-employee/internal/employee"
	"github.com/subhankaladi/ai-employee/pkg/iojson"
)

type LogCmd struct {
	flags *Flags
	app   *employee.App

	date   string
	format string
	failed bool
}

func NewLogCmd(flags *Flags, app *employee.App) *LogCmd {
	return &LogCmd{flags: flags, app: app}
}

func (cmd *LogCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "log",
		Usage:     "Show the action log for a day",
		UsageText: "employee log [--date YYYY-MM-DD] [--failed]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "date",
				Aliases:     []string{"d"},
				Usage:       "day to show (defaults to today)",
				Destination: &cmd.date,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "failed",
				Usage:       "only show failed actions",
				Destination: &cmd.failed,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *LogCmd) run(_ context.Context, c *cli.Command) error {
	day := time.Now()
	if cmd.date != "" {
		parsed, err := actionlog.ParseDay(cmd.date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", cmd.date)
		}
		day = parsed
	}

	entries, err := cmd.app.Actions.Read(day)
	if err != nil {
		return err
	}

	if cmd.failed {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Status == actionlog.StatusFailed {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	out := c.Root().Writer
	if cmd.format == "json" {
		if entries == nil {
			entries = []actionlog.Entry{}
		}
		return iojson.WriteWith(out, c.Root().ErrWriter, entries)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintf(out, "No actions logged on %s\n", day.Format("2006-01-02"))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tSTATUS\tACTION\tACTOR\tDETAILS")
	for _, e := range entries {
		status := string(e.Status)
		icon := styles.StatusStyle(status).Render(styles.Icon(status))
		_, _ = fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("15:04:05"), icon, status, e.ActionType, e.Actor, e.Details)
	}
	return w.Flush()
}

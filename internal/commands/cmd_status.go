package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/subhankaladi/ai-employee/internal/core/styles"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
	"github.com/subhankaladi/ai-employee/internal/employee"
	"github.com/subhankaladi/ai-employee/pkg/iojson"
)

type StatusCmd struct {
	flags  *Flags
	app    *employee.App
	format string
}

func NewStatusCmd(flags *Flags, app *employee.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Show item counts per stage",
		UsageText: "employee status [--format json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return app
}

type stageCount struct {
	Stage string `json:"stage"`
	Dir   string `json:"dir"`
	Count int    `json:"count"`
}

func (cmd *StatusCmd) run(_ context.Context, c *cli.Command) error {
	counts, err := cmd.app.Vault.Count()
	if err != nil {
		return fmt.Errorf("count items: %w", err)
	}

	rows := make([]stageCount, 0, len(vault.Stages))
	for _, s := range vault.Stages {
		rows = append(rows, stageCount{Stage: string(s), Dir: s.Dir(), Count: counts[s]})
	}

	out := c.Root().Writer
	if cmd.format == "json" {
		return iojson.WriteWith(out, c.Root().ErrWriter, struct {
			Vault  string       `json:"vault"`
			Stages []stageCount `json:"stages"`
		}{Vault: cmd.app.Vault.Root(), Stages: rows})
	}

	_, _ = fmt.Fprintln(out, styles.TextMutedStyle.Render(cmd.app.Vault.Root()))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STAGE\tITEMS")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", r.Dir, r.Count)
	}
	return w.Flush()
}

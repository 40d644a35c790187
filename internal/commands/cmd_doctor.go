package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/subhankaladi/ai-employee/internal/core/doctor"
	"github.com/subhankaladi/ai-employee/internal/core/styles"
	"github.com/subhankaladi/ai-employee/internal/employee"
	"github.com/subhankaladi/ai-employee/pkg/iojson"
)

type DoctorCmd struct {
	flags   *Flags
	app     *employee.App
	format  string
	autofix bool
}

func NewDoctorCmd(flags *Flags, app *employee.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your employee setup",
		UsageText:   "employee doctor [options]",
		Description: "Runs diagnostic checks on configuration, the vault layout, external tools, and the run lock.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "automatically fix issues (creates missing stage directories)",
				Destination: &cmd.autofix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := cmd.app.Doctor.RunChecks(ctx, cmd.flags.ConfigPath, cmd.autofix)

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(results)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	report := doctor.Summarize(results)

	out := struct {
		Ready   bool            `json:"ready"`
		Verdict string          `json:"verdict"`
		Summary doctor.Report   `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Ready:   report.Ready(),
		Verdict: report.Verdict(),
		Summary: report,
		Checks:  results,
	}

	if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); err != nil {
		return err
	}
	if !report.Ready() {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) outputText(results []doctor.Result) error {
	w := os.Stderr
	divider := styles.TextMutedStyle.Render(strings.Repeat("─", 40))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render("Employee Doctor"))
	_, _ = fmt.Fprintln(w, divider)
	_, _ = fmt.Fprintln(w)

	for _, result := range results {
		_, _ = fmt.Fprintln(w, styles.TextForegroundBoldStyle.Render(result.Name))

		for _, item := range result.Items {
			var detail string
			if item.Detail != "" {
				detail = " " + styles.TextMutedStyle.Render(item.Detail)
			}

			icon := styles.StatusStyle(string(item.Status)).Render(styles.Icon(string(item.Status)))
			_, _ = fmt.Fprintf(w, "  %s %s%s\n", icon, item.Label, detail)
		}

		_, _ = fmt.Fprintln(w)
	}

	report := doctor.Summarize(results)
	verdictStyle := styles.TextSuccessStyle
	switch {
	case !report.Ready():
		verdictStyle = styles.TextErrorStyle
	case report.Warned > 0:
		verdictStyle = styles.TextWarningStyle
	}
	_, _ = fmt.Fprintln(w, verdictStyle.Render(report.Verdict()))
	_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render(report.String()))

	if !cmd.autofix && report.Fixable > 0 {
		_, _ = fmt.Fprintln(w)
		hint := fmt.Sprintf("Run 'employee doctor --autofix' to fix %d issue(s) in the vault layout", report.Fixable)
		_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render(hint))
	}

	if !report.Ready() {
		return cli.Exit("", 1)
	}

	return nil
}

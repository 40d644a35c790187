package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/subhankaladi/ai-employee/internal/core/item"
	"github.com/subhankaladi/ai-employee/internal/core/styles"
	"github.com/subhankaladi/ai-employee/internal/employee"
)

type ApprovalsCmd struct {
	flags *Flags
	app   *employee.App

	approve string
	reject  string
	list    bool
}

func NewApprovalsCmd(flags *Flags, app *employee.App) *ApprovalsCmd {
	return &ApprovalsCmd{flags: flags, app: app}
}

func (cmd *ApprovalsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "approvals",
		Usage:     "Review replies waiting for human approval",
		UsageText: "employee approvals [--approve NAME | --reject NAME | --list]",
		Description: `Lists requests in Pending_Approval. On a terminal, without flags, an
interactive picker lets you approve or reject one request.

Approving moves the request to Approved; the running engine sends it on its
next cycle. Rejecting moves it to Rejected.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "approve",
				Usage:       "approve the named request",
				Destination: &cmd.approve,
			},
			&cli.StringFlag{
				Name:        "reject",
				Usage:       "reject the named request",
				Destination: &cmd.reject,
			},
			&cli.BoolFlag{
				Name:        "list",
				Usage:       "only list pending requests",
				Destination: &cmd.list,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ApprovalsCmd) run(_ context.Context, c *cli.Command) error {
	out := c.Root().Writer

	switch {
	case cmd.approve != "" && cmd.reject != "":
		return fmt.Errorf("--approve and --reject are mutually exclusive")
	case cmd.approve != "":
		if err := cmd.app.Approvals.Approve(cmd.approve); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, styles.TextSuccessStyle.Render("approved "+cmd.approve))
		return nil
	case cmd.reject != "":
		if err := cmd.app.Approvals.Reject(cmd.reject); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, styles.TextWarningStyle.Render("rejected "+cmd.reject))
		return nil
	}

	pending, err := cmd.app.Approvals.Pending()
	if err != nil {
		return fmt.Errorf("list approvals: %w", err)
	}

	if len(pending) == 0 {
		_, _ = fmt.Fprintln(out, styles.TextMutedStyle.Render("No pending approvals"))
		return nil
	}

	if cmd.list || !term.IsTerminal(int(os.Stdin.Fd())) {
		return printApprovals(out, pending)
	}

	return cmd.pick(c, pending)
}

func printApprovals(out io.Writer, pending []item.ActionItem) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tACTION\tTO\tSUBJECT\tEXPIRES")
	for _, it := range pending {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			it.Name, it.Action(), it.To(), it.Subject(), it.Get("expires", "-"))
	}
	return w.Flush()
}

const (
	decisionApprove = "approve"
	decisionReject  = "reject"
	decisionSkip    = "skip"
)

func (cmd *ApprovalsCmd) pick(c *cli.Command, pending []item.ActionItem) error {
	options := make([]huh.Option[string], 0, len(pending))
	byName := make(map[string]item.ActionItem, len(pending))
	for _, it := range pending {
		label := fmt.Sprintf("%s → %s", it.Subject(), it.To())
		options = append(options, huh.NewOption(label, it.Name))
		byName[it.Name] = it
	}

	var name string
	err := huh.NewSelect[string]().
		Title("Pending approvals").
		Options(options...).
		Value(&name).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	it := byName[name]
	decision := decisionSkip
	err = huh.NewSelect[string]().
		Title(it.Name).
		Description(it.Reply()).
		Options(
			huh.NewOption("Approve and send", decisionApprove),
			huh.NewOption("Reject", decisionReject),
			huh.NewOption("Decide later", decisionSkip),
		).
		Value(&decision).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	out := c.Root().Writer
	switch decision {
	case decisionApprove:
		if err := cmd.app.Approvals.Approve(name); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, styles.TextSuccessStyle.Render("approved "+name))
	case decisionReject:
		if err := cmd.app.Approvals.Reject(name); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, styles.TextWarningStyle.Render("rejected "+name))
	}
	return nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/subhankaladi/ai-employee/internal/core/dashboard"
	"github.com/subhankaladi/ai-employee/internal/core/styles"
	"github.com/subhankaladi/ai-employee/internal/core/vault"
	"github.com/subhankaladi/ai-employee/internal/employee"
)

// HandbookFile is the rules-of-engagement document the agent is told to read.
const HandbookFile = "Company_Handbook.md"

const handbookTemplate = `# Company Handbook

Rules of engagement for the AI employee.

## Communication

- Be polite and professional in every reply.
- Reply to routine messages within one working day.

## Approval Required

- Any reply to a recipient outside the company domains.
- Anything mentioning payments, invoices, contracts, legal matters, money or banking.

## Never

- Send money or share credentials.
- Delete files outside the vault.
`

type InitCmd struct {
	flags *Flags
	app   *employee.App

	writeConfig bool
}

func NewInitCmd(flags *Flags, app *employee.App) *InitCmd {
	return &InitCmd{flags: flags, app: app}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Create the vault layout",
		UsageText: "employee init [--write-config]",
		Description: `Creates every stage directory plus a starter Dashboard.md and
Company_Handbook.md. Existing files are never overwritten.

Use --write-config to also write the current configuration to the config path.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "write-config",
				Usage:       "write a config file if none exists",
				Destination: &cmd.writeConfig,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(_ context.Context, c *cli.Command) error {
	out := c.Root().Writer
	v := cmd.app.Vault

	if err := v.Ensure(); err != nil {
		return err
	}
	for _, s := range vault.Stages {
		_, _ = fmt.Fprintf(out, "  %s %s\n", styles.TextSuccessStyle.Render(styles.IconPass), s.Dir())
	}

	files := []struct {
		path    string
		content string
	}{
		{cmd.app.Dashboard.Path(), dashboard.Template(time.Now())},
		{filepath.Join(v.Root(), HandbookFile), handbookTemplate},
	}
	for _, f := range files {
		created, err := writeIfAbsent(f.path, []byte(f.content))
		if err != nil {
			return err
		}
		report(out, f.path, created)
	}

	if cmd.writeConfig {
		data, err := yaml.Marshal(cmd.app.Config)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		created, err := writeIfAbsent(cmd.flags.ConfigPath, data)
		if err != nil {
			return err
		}
		report(out, cmd.flags.ConfigPath, created)
	}

	return nil
}

func report(out io.Writer, path string, created bool) {
	if created {
		_, _ = fmt.Fprintf(out, "  %s %s\n", styles.TextSuccessStyle.Render(styles.IconPass), path)
		return
	}
	_, _ = fmt.Fprintf(out, "  %s %s %s\n", styles.TextMutedStyle.Render(styles.IconWarn), path, styles.TextMutedStyle.Render("(exists)"))
}

// writeIfAbsent creates path with data unless something is already there.
func writeIfAbsent(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return false, err
	}
	return true, f.Close()
}

// Package agent invokes the external reasoning agent CLI.
package agent

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/subhankaladi/ai-employee/pkg/executil"
)

// DefaultTimeout bounds a single agent invocation.
const DefaultTimeout = 300 * time.Second

var (
	// ErrTimeout is returned when the agent exceeds its wall-clock budget.
	ErrTimeout = errors.New("agent timed out")
	// ErrNotFound is returned when the agent binary cannot be found.
	ErrNotFound = errors.New("agent command not found")
)

// Agent runs the reasoning agent with a natural-language instruction as its
// single positional argument, in the vault root.
type Agent struct {
	exec    executil.Executor
	command []string
	dir     string
	timeout time.Duration
	log     zerolog.Logger
}

// New creates an agent. command is the program and any fixed leading
// arguments; the instruction is appended as the last argument.
func New(exec executil.Executor, command []string, dir string, timeout time.Duration, log zerolog.Logger) *Agent {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Agent{
		exec:    exec,
		command: command,
		dir:     dir,
		timeout: timeout,
		log:     log.With().Str("component", "agent").Logger(),
	}
}

// Command returns the configured program name.
func (a *Agent) Command() string {
	if len(a.command) == 0 {
		return ""
	}
	return a.command[0]
}

// Invoke runs the agent and succeeds only when it exits with status zero.
func (a *Agent) Invoke(ctx context.Context, instruction string) error {
	_, err := a.run(ctx, instruction)
	return err
}

// Ask runs the agent and returns its standard output.
func (a *Agent) Ask(ctx context.Context, instruction string) (string, error) {
	res, err := a.run(ctx, instruction)
	if err != nil {
		return "", err
	}
	return string(res.Stdout), nil
}

func (a *Agent) run(ctx context.Context, instruction string) (executil.Result, error) {
	if len(a.command) == 0 {
		return executil.Result{}, fmt.Errorf("%w: no command configured", ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := executil.Command{
		Name: a.command[0],
		Args: append(append([]string{}, a.command[1:]...), instruction),
		Dir:  a.dir,
	}

	a.log.Info().Str("command", cmd.Name).Str("instruction", preview(instruction)).Msg("invoking agent")
	started := time.Now()

	res, err := a.exec.Run(ctx, cmd)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return res, fmt.Errorf("%w after %s", ErrTimeout, a.timeout)
		case errors.Is(err, exec.ErrNotFound):
			return res, fmt.Errorf("%w: %s", ErrNotFound, cmd.Name)
		default:
			return res, fmt.Errorf("agent failed: %w", err)
		}
	}

	a.log.Info().Dur("took", time.Since(started)).Msg("agent completed")
	return res, nil
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 50 {
		return s[:50] + "..."
	}
	return s
}

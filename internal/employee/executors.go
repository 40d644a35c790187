package employee

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/subhankaladi/ai-employee/pkg/executil"
)

var (
	// ErrExecutorFailed is returned when an executor ran but did not confirm success.
	ErrExecutorFailed = errors.New("executor failed")
	// ErrUnknownAction is returned for an action tag with no registered executor.
	ErrUnknownAction = errors.New("unknown action")
)

// Dispatch carries the fields an executor needs, taken from an approved item.
type Dispatch struct {
	Item    string
	Action  string
	To      string
	Subject string
	Body    string
}

// Executor carries out one kind of approved action. The returned string
// describes what happened and is recorded in the action log.
type Executor interface {
	Execute(ctx context.Context, d Dispatch) (string, error)
}

// CommandExecutor runs an external program as
//
//	command... <to> <subject> <body>
//
// and succeeds only when it exits zero and prints the success marker.
type CommandExecutor struct {
	exec    executil.Executor
	command []string
	marker  string
	timeout time.Duration
	dir     string
}

// NewCommandExecutor creates a CommandExecutor. dir is the working directory.
func NewCommandExecutor(exec executil.Executor, command []string, marker string, timeout time.Duration, dir string) *CommandExecutor {
	return &CommandExecutor{
		exec:    exec,
		command: command,
		marker:  marker,
		timeout: timeout,
		dir:     dir,
	}
}

// Command returns the configured program name.
func (e *CommandExecutor) Command() string {
	if len(e.command) == 0 {
		return ""
	}
	return e.command[0]
}

// Execute implements Executor.
func (e *CommandExecutor) Execute(ctx context.Context, d Dispatch) (string, error) {
	if len(e.command) == 0 {
		return "", fmt.Errorf("%w: no command configured", ErrExecutorFailed)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := append(append([]string{}, e.command[1:]...), d.To, d.Subject, d.Body)
	res, err := e.exec.Run(ctx, executil.Command{Name: e.command[0], Args: args, Dir: e.dir})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s", ErrExecutorFailed, e.timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrExecutorFailed, err)
	}

	out := strings.TrimSpace(string(res.Stdout))
	if e.marker == "" || !strings.Contains(out, e.marker) {
		return "", fmt.Errorf("%w: success marker %q not in output: %s", ErrExecutorFailed, e.marker, truncate(out, 200))
	}

	return fmt.Sprintf("%s to %s: %s", d.Action, d.To, d.Subject), nil
}

// Registry maps action tags to executors.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register binds action to ex, replacing any previous binding.
func (r *Registry) Register(action string, ex Executor) {
	r.executors[action] = ex
}

// Lookup returns the executor for action.
func (r *Registry) Lookup(action string) (Executor, error) {
	ex, ok := r.executors[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return ex, nil
}

// Actions returns the registered action tags, sorted.
func (r *Registry) Actions() []string {
	actions := make([]string, 0, len(r.executors))
	for a := range r.executors {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

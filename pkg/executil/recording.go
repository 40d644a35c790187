package executil

import (
	"context"
	"sync"
)

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors maps to control return values, or set Func
// for full control.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []Command

	// Outputs maps command names to their stdout.
	Outputs map[string][]byte

	// Errors maps command names to their error.
	Errors map[string]error

	// Func, when set, replaces the Outputs/Errors lookup.
	Func func(ctx context.Context, cmd Command) (Result, error)
}

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(ctx context.Context, cmd Command) (Result, error) {
	e.mu.Lock()
	e.Commands = append(e.Commands, Command{
		Name: cmd.Name,
		Args: append([]string(nil), cmd.Args...),
		Dir:  cmd.Dir,
	})
	fn := e.Func
	var out []byte
	var err error
	if e.Outputs != nil {
		out = e.Outputs[cmd.Name]
	}
	if e.Errors != nil {
		err = e.Errors[cmd.Name]
	}
	e.mu.Unlock()

	if fn != nil {
		return fn(ctx, cmd)
	}
	return Result{Stdout: out}, err
}

// Calls returns a copy of the recorded commands.
func (e *RecordingExecutor) Calls() []Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Command(nil), e.Commands...)
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}

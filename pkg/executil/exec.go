// Package executil runs external commands for the agent and executor
// integrations.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const maxStderrLen = 500

// waitDelay bounds how long Run waits for output pipes to close after the
// process group was killed.
const waitDelay = 2 * time.Second

// limitedWriter caps writes to a bytes.Buffer at a maximum byte count.
// Bytes beyond the limit are silently discarded.
type limitedWriter struct {
	buf *bytes.Buffer
	n   int64
	max int64
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.n >= w.max {
		return len(p), nil
	}
	remaining := w.max - w.n
	origLen := len(p)
	if int64(origLen) > remaining {
		p = p[:remaining]
	}
	n, err := w.buf.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, err
	}
	return origLen, nil
}

// Command describes a process to start. Args are passed as discrete argv
// entries, never through a shell.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means inherit.
	Dir string
}

// String renders the command for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout []byte
	// Stderr is capped at 500 bytes.
	Stderr string
}

// Executor runs commands.
type Executor interface {
	// Run starts the command, waits for it and returns its output. A non-zero
	// exit is an error; the Result is still populated.
	Run(ctx context.Context, cmd Command) (Result, error)
}

// RealExecutor runs actual processes.
type RealExecutor struct{}

// Run implements Executor. On failure, stderr is included in the error
// message, capped at 500 bytes to keep agent noise out of logs. The original
// *exec.ExitError is preserved via wrapping so callers can inspect exit codes
// with errors.As.
//
// The command runs in its own process group. When ctx ends the whole group
// is killed, so Run returns even if grandchildren still hold the pipes.
func (e *RealExecutor) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	startOwnGroup(c)
	c.Cancel = func() error { return killGroup(c) }
	c.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &limitedWriter{buf: &stderr, max: maxStderrLen}

	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: strings.TrimSpace(stderr.String())}
	if err != nil {
		if res.Stderr != "" {
			return res, fmt.Errorf("exec %s: %s: %w", cmd.Name, res.Stderr, err)
		}
		return res, fmt.Errorf("exec %s: %w", cmd.Name, err)
	}
	return res, nil
}

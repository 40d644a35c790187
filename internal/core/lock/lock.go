// Package lock guards a vault against two engine instances running at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrLocked is returned when a live process holds the lock.
var ErrLocked = errors.New("vault is locked by another process")

// FileName is the lock file name inside the state directory.
const FileName = "run.lock"

// Lock is a PID lock file.
type Lock struct {
	path string
}

// New returns a lock backed by the file at path.
func New(path string) *Lock {
	return &Lock{path: path}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock. A lock left behind by a dead process is reclaimed.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}

	err := l.create()
	if err == nil || !os.IsExist(err) {
		return err
	}

	pid, ok := l.holder()
	if ok && processExists(pid) {
		return fmt.Errorf("%w (PID %d)", ErrLocked, pid)
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale lock file: %w", err)
	}

	// one retry only
	if err := l.create(); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w (acquired during retry)", ErrLocked)
		}
		return err
	}
	return nil
}

func (l *Lock) create() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return err
		}
		return fmt.Errorf("create lock file: %w", err)
	}

	_, writeErr := fmt.Fprintf(f, "%d", os.Getpid())
	_ = f.Close()
	if writeErr != nil {
		_ = os.Remove(l.path)
		return fmt.Errorf("write lock file: %w", writeErr)
	}
	return nil
}

// Release removes the lock file. Releasing a lock that is not held is a no-op.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// Holder returns the PID of the live process holding the lock, if any.
func (l *Lock) Holder() (int, bool) {
	pid, ok := l.holder()
	if !ok || !processExists(pid) {
		return 0, false
	}
	return pid, true
}

func (l *Lock) holder() (int, bool) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processExists uses signal 0, which checks for a process without signalling it.
func processExists(pid int) bool {
	if pid == os.Getpid() {
		return true
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

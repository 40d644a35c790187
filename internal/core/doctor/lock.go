package doctor

import (
	"context"
	"fmt"

	"github.com/subhankaladi/ai-employee/internal/core/lock"
)

// LockCheck reports whether another engine is running against the vault.
type LockCheck struct {
	lock *lock.Lock
}

// NewLockCheck creates a new lock check.
func NewLockCheck(l *lock.Lock) *LockCheck {
	return &LockCheck{lock: l}
}

func (c *LockCheck) Name() string {
	return "Lock"
}

func (c *LockCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if pid, ok := c.lock.Holder(); ok {
		result.Items = append(result.Items, CheckItem{
			Label:  "run.lock",
			Status: StatusWarn,
			Detail: fmt.Sprintf("held by PID %d; a second `employee run` will refuse to start", pid),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "run.lock",
		Status: StatusPass,
		Detail: "no engine running",
	})
	return result
}

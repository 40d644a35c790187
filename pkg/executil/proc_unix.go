//go:build !windows

package executil

import (
	"os/exec"
	"syscall"
)

// startOwnGroup puts the child in a new process group so a cancel reaches
// everything it spawned.
func startOwnGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killGroup(c *exec.Cmd) error {
	if c.Process == nil || c.Process.Pid <= 0 {
		return nil
	}
	if pgid, err := syscall.Getpgid(c.Process.Pid); err == nil && pgid > 0 {
		// negative pgid signals the whole group
		return syscall.Kill(-pgid, syscall.SIGKILL)
	}
	return c.Process.Kill()
}

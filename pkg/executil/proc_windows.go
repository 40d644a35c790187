//go:build windows

package executil

import "os/exec"

func startOwnGroup(c *exec.Cmd) {}

func killGroup(c *exec.Cmd) error {
	if c.Process == nil {
		return nil
	}
	return c.Process.Kill()
}

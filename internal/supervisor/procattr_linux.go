//go:build linux

package supervisor

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr puts the worker in its own process group and has the
// kernel kill it if the supervisor dies without cleaning up.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}

//go:build unix && !linux

package supervisor

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr puts the worker in its own process group. There is no
// parent-death signal outside Linux; Stop and the launch abort path are
// the only cleanup.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// Package supervisor launches queue workers, relays their output, and
// shuts them down together.
//
// Every worker runs in its own process group so that a shim such as herd
// and the program it spawns are signaled as one unit.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/charliek/qrun/internal/domain"
)

// ProcessRunner creates and starts processes
type ProcessRunner interface {
	Start(ctx context.Context, spec domain.WorkerSpec, env []string) (Process, error)
}

// Process represents a running worker process
type Process interface {
	PID() int
	Wait() error
	Signal(sig os.Signal) error
	Stdout() io.Reader
}

// ExecRunner implements ProcessRunner using os/exec
type ExecRunner struct {
	// Stderr receives the workers' standard error unmodified.
	// Defaults to os.Stderr.
	Stderr io.Writer
}

// NewExecRunner creates a new ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stderr: os.Stderr}
}

// Start starts the worker described by spec.
// The context only bounds the start itself; cancelling it later does not
// kill the process. Use Signal for that.
func (r *ExecRunner) Start(ctx context.Context, spec domain.WorkerSpec, env []string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Program, spec.Args...)
	if env != nil {
		cmd.Env = env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	// An *os.File is handed to the child as-is, so stderr is not buffered
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", spec.Program, err)
	}

	return &execProcess{cmd: cmd, stdout: stdout}, nil
}

// execProcess wraps exec.Cmd to implement Process
type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
}

func (p *execProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

// Signal signals the worker's whole process group
func (p *execProcess) Signal(sig os.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}

	pgid, err := syscall.Getpgid(p.cmd.Process.Pid)
	if err != nil {
		return p.cmd.Process.Signal(sig)
	}

	return syscall.Kill(-pgid, sig.(syscall.Signal))
}

func (p *execProcess) Stdout() io.Reader {
	return p.stdout
}

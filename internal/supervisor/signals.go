package supervisor

import (
	"os"
	"syscall"
)

// Signal definitions for cross-platform compatibility
var (
	sigterm os.Signal = syscall.SIGTERM
	sigkill os.Signal = syscall.SIGKILL
)

// InterruptSignals are the signals that start a coordinated shutdown
var InterruptSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

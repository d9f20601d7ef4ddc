package domain

import (
	"strings"
	"time"
)

// WorkerSpec describes one worker to be launched.
// Specs are immutable once resolved.
type WorkerSpec struct {
	// ID is unique and sequential across all queues, starting at 1
	ID int `yaml:"id" json:"id"`
	// Label is the queue name, or "worker N" for unnamed workers
	Label string `yaml:"label" json:"label"`
	// Queue is the queue passed to the worker; empty for unnamed workers
	Queue   string   `yaml:"queue,omitempty" json:"queue,omitempty"`
	Program string   `yaml:"program" json:"program"`
	Args    []string `yaml:"args" json:"args"`
}

// CommandLine returns the invocation as a single display string
func (s WorkerSpec) CommandLine() string {
	if len(s.Args) == 0 {
		return s.Program
	}
	return s.Program + " " + strings.Join(s.Args, " ")
}

// PumpState represents where a worker's output pump is in its lifecycle.
// Every pump ends in PumpStateTerminated.
type PumpState string

const (
	// PumpStateReading waits for the next line or for shutdown
	PumpStateReading PumpState = "reading"
	// PumpStateDraining means the output stream ended and the child is being reaped
	PumpStateDraining PumpState = "draining"
	// PumpStateCancelling means shutdown was observed and the child is being terminated
	PumpStateCancelling PumpState = "cancelling"
	// PumpStateTerminated means the child is reaped and the pump has exited
	PumpStateTerminated PumpState = "terminated"
)

// String returns the string representation of PumpState
func (s PumpState) String() string {
	return string(s)
}

// IsTerminated returns true once the pump has exited
func (s PumpState) IsTerminated() bool {
	return s == PumpStateTerminated
}

// WorkerInfo represents the runtime state of a worker
type WorkerInfo struct {
	ID        int       `json:"id"`
	Label     string    `json:"label"`
	State     PumpState `json:"state"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Cmd       string    `json:"cmd"`
	Lines     int64     `json:"lines"`
}

// UptimeSeconds returns the number of seconds the worker has been running
func (w WorkerInfo) UptimeSeconds() int64 {
	if w.StartedAt.IsZero() {
		return 0
	}
	return int64(time.Since(w.StartedAt).Seconds())
}

package supervisor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charliek/qrun/internal/domain"
)

// Supervisor states
const (
	StateStopped  = "stopped"
	StateRunning  = "running"
	StateStopping = "stopping"
)

// Config holds the collaborators of a Supervisor
type Config struct {
	// Runner starts worker processes. Defaults to an ExecRunner.
	Runner ProcessRunner
	// Sink receives every worker line
	Sink Sink
	// Notifier prints supervisor messages. Defaults to stdout.
	Notifier Notifier
	// Env is the environment for every worker. Nil inherits ours.
	Env []string
	// Grace is the time between SIGTERM and SIGKILL on shutdown.
	// Zero sends SIGKILL right away.
	Grace time.Duration
}

// Supervisor owns the workers of one run.
// It launches them, waits for an interrupt, and reaps every one of them.
type Supervisor struct {
	mu sync.RWMutex

	cfg       Config
	shutdown  *Shutdown
	workers   []*Worker
	state     string
	startedAt time.Time
}

// New creates a new supervisor
func New(cfg Config) *Supervisor {
	if cfg.Runner == nil {
		cfg.Runner = NewExecRunner()
	}
	if cfg.Sink == nil {
		cfg.Sink = Tee()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = stdoutNotifier{}
	}

	return &Supervisor{
		cfg:      cfg,
		shutdown: NewShutdown(),
		state:    StateStopped,
	}
}

// Launch starts one process per spec, in order, and then starts their pumps.
// If any process fails to start, the ones already started are killed and
// reaped and no pump is started.
func (s *Supervisor) Launch(ctx context.Context, specs []domain.WorkerSpec) error {
	if len(specs) == 0 {
		return domain.ErrNoWorkers
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped || s.shutdown.Fired() {
		return domain.ErrAlreadyRunning
	}

	workers := make([]*Worker, 0, len(specs))
	for _, spec := range specs {
		proc, err := s.cfg.Runner.Start(ctx, spec, s.cfg.Env)
		if err != nil {
			abort(workers)
			return fmt.Errorf("%w: worker %d (%s): %v", domain.ErrLaunchFailed, spec.ID, spec.Label, err)
		}
		workers = append(workers, newWorker(spec, proc))
	}

	s.workers = workers
	s.state = StateRunning
	s.startedAt = time.Now()

	for _, w := range workers {
		s.cfg.Sink.Write(domain.LogEntry{
			Timestamp: time.Now(),
			WorkerID:  w.spec.ID,
			Worker:    w.spec.Label,
			Stream:    domain.StreamSystem,
			Line:      fmt.Sprintf("started (pid %d): %s", w.proc.PID(), w.spec.CommandLine()),
		})
		go w.pump(s.cfg.Sink, s.shutdown, s.cfg.Grace)
	}

	return nil
}

// abort kills and reaps processes whose pumps never started
func abort(workers []*Worker) {
	for _, w := range workers {
		_ = w.proc.Signal(sigkill)
		_ = w.proc.Wait()
	}
}

// Run blocks until an interrupt arrives, ctx is done, or the shutdown is
// fired elsewhere, and then stops all workers.
func (s *Supervisor) Run(ctx context.Context, interrupt <-chan os.Signal) {
	select {
	case <-interrupt:
	case <-ctx.Done():
	case <-s.shutdown.Done():
	}
	s.Stop()
}

// Stop announces the shutdown, fires it, and waits for every pump.
// Only the first call announces; later calls just wait.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		s.shutdown.Fire()
		s.Wait()
		return
	}
	s.state = StateStopping
	count := len(s.workers)
	s.mu.Unlock()

	s.cfg.Notifier.Notice("\nShutdown signal received. Stopping %d workers...", count)
	s.shutdown.Fire()
	s.Wait()

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
}

// Wait blocks until every pump has terminated. It does not fire the
// shutdown; pumps end on their own only when their workers exit.
func (s *Supervisor) Wait() {
	s.mu.RLock()
	workers := s.workers
	s.mu.RUnlock()

	for _, w := range workers {
		<-w.done
	}
}

// Shutdown returns the broadcast observed by every pump
func (s *Supervisor) Shutdown() *Shutdown {
	return s.shutdown
}

// Workers returns info for all workers in id order
func (s *Supervisor) Workers() []domain.WorkerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.WorkerInfo, 0, len(s.workers))
	for _, w := range s.workers {
		result = append(result, w.Info())
	}
	return result
}

// Status returns supervisor status
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		State:     s.state,
		StartedAt: s.startedAt,
		Workers:   len(s.workers),
	}
}

// Status holds supervisor status information
type Status struct {
	State     string
	StartedAt time.Time
	Workers   int
}

// UptimeSeconds returns seconds since the workers were launched
func (st Status) UptimeSeconds() int64 {
	if st.StartedAt.IsZero() {
		return 0
	}
	return int64(time.Since(st.StartedAt).Seconds())
}

type stdoutNotifier struct{}

func (stdoutNotifier) Notice(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

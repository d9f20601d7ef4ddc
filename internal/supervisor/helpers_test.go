package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charliek/qrun/internal/domain"
)

// fakeProcess is a Process whose output and exit are driven by the test
type fakeProcess struct {
	pid     int
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	exited  chan struct{}
	once    sync.Once

	// ignoreTerm makes the process survive SIGTERM
	ignoreTerm bool

	mu      sync.Mutex
	signals []os.Signal
}

func newFakeProcess(pid int) *fakeProcess {
	r, w := io.Pipe()
	return &fakeProcess{
		pid:     pid,
		stdoutR: r,
		stdoutW: w,
		exited:  make(chan struct{}),
	}
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Wait() error {
	<-p.exited
	return nil
}

func (p *fakeProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	p.signals = append(p.signals, sig)
	p.mu.Unlock()

	if sig == sigkill || (sig == sigterm && !p.ignoreTerm) {
		p.exit()
	}
	return nil
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdoutR }

// print writes lines to stdout; it blocks until the pump has read them
func (p *fakeProcess) print(lines ...string) {
	for _, l := range lines {
		_, _ = fmt.Fprintln(p.stdoutW, l)
	}
}

// closeStdout ends the output stream without exiting
func (p *fakeProcess) closeStdout() {
	_ = p.stdoutW.Close()
}

// exit closes stdout and lets Wait return
func (p *fakeProcess) exit() {
	p.once.Do(func() {
		_ = p.stdoutW.Close()
		close(p.exited)
	})
}

func (p *fakeProcess) received() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.signals...)
}

func (p *fakeProcess) hasExited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// fakeRunner hands out fakeProcesses and can fail a given launch
type fakeRunner struct {
	mu     sync.Mutex
	procs  []*fakeProcess
	failAt int // 1-based launch number that fails, 0 for never
}

func (r *fakeRunner) Start(ctx context.Context, spec domain.WorkerSpec, env []string) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAt == len(r.procs)+1 {
		return nil, errors.New("exec: \"herd\": executable file not found in $PATH")
	}
	p := newFakeProcess(1000 + spec.ID)
	r.procs = append(r.procs, p)
	return p, nil
}

func (r *fakeRunner) started() []*fakeProcess {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*fakeProcess(nil), r.procs...)
}

// recordingSink keeps every entry it receives
type recordingSink struct {
	mu      sync.Mutex
	entries []domain.LogEntry
}

func (s *recordingSink) Write(entry domain.LogEntry) {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

// lines returns the worker output lines, skipping system entries
func (s *recordingSink) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, e := range s.entries {
		if e.Stream == domain.StreamStdout {
			out = append(out, e.Line)
		}
	}
	return out
}

type panicSink struct{}

func (panicSink) Write(domain.LogEntry) { panic("sink exploded") }

// recordingNotifier keeps every notice
type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (n *recordingNotifier) Notice(format string, args ...any) {
	n.mu.Lock()
	n.notices = append(n.notices, fmt.Sprintf(format, args...))
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

func testSpecs(n int) []domain.WorkerSpec {
	specs := make([]domain.WorkerSpec, n)
	for i := range specs {
		specs[i] = domain.WorkerSpec{
			ID:      i + 1,
			Label:   "default",
			Queue:   "default",
			Program: "herd",
			Args:    []string{"php", "artisan", "queue:listen", "--queue", "default"},
		}
	}
	return specs
}

// outputPanicSink accepts system entries and panics on worker output
type outputPanicSink struct{}

func (outputPanicSink) Write(entry domain.LogEntry) {
	if entry.Stream == domain.StreamStdout {
		panic("sink exploded")
	}
}

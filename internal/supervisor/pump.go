package supervisor

import (
	"bufio"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/domain"
)

// Worker owns one running worker process and the pump relaying its output.
// Only the pump goroutine touches the process once pumping has started.
type Worker struct {
	spec      domain.WorkerSpec
	proc      Process
	startedAt time.Time

	mu    sync.RWMutex
	state domain.PumpState
	lines atomic.Int64

	// done is closed when the pump has terminated
	done chan struct{}
}

func newWorker(spec domain.WorkerSpec, proc Process) *Worker {
	return &Worker{
		spec:      spec,
		proc:      proc,
		startedAt: time.Now(),
		state:     domain.PumpStateReading,
		done:      make(chan struct{}),
	}
}

// Spec returns the spec the worker was launched from
func (w *Worker) Spec() domain.WorkerSpec {
	return w.spec
}

// State returns the pump state
func (w *Worker) State() domain.PumpState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Done returns a channel closed once the pump has terminated
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Info returns a snapshot of the worker
func (w *Worker) Info() domain.WorkerInfo {
	return domain.WorkerInfo{
		ID:        w.spec.ID,
		Label:     w.spec.Label,
		State:     w.State(),
		PID:       w.proc.PID(),
		StartedAt: w.startedAt,
		Cmd:       w.spec.CommandLine(),
		Lines:     w.lines.Load(),
	}
}

func (w *Worker) setState(state domain.PumpState) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}

// pump relays output lines to sink until the stream ends or shutdown fires,
// then makes sure the process is gone. It always terminates.
func (w *Worker) pump(sink Sink, shutdown *Shutdown, grace time.Duration) {
	lines := make(chan string)
	stop := make(chan struct{})
	var stopOnce sync.Once
	stopReading := func() { stopOnce.Do(func() { close(stop) }) }

	defer close(w.done)
	defer w.setState(domain.PumpStateTerminated)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("worker %d (%s): pump panic: %v", w.spec.ID, w.spec.Label, r)
			stopReading()
			w.terminate(w.waitAsync(), 0)
		}
	}()

	go readLines(w.proc.Stdout(), lines, stop)

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				w.drain(shutdown, grace)
				return
			}
			w.emit(sink, line)
		case <-shutdown.Done():
			stopReading()
			w.setState(domain.PumpStateCancelling)
			w.terminate(w.waitAsync(), grace)
			return
		}
	}
}

// emit forwards a non-blank line
func (w *Worker) emit(sink Sink, line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	w.lines.Add(1)
	sink.Write(domain.LogEntry{
		Timestamp: time.Now(),
		WorkerID:  w.spec.ID,
		Worker:    w.spec.Label,
		Stream:    domain.StreamStdout,
		Line:      line,
	})
}

// drain reaps a worker whose output has ended. A worker that closed its
// stdout but keeps running is still killed on shutdown.
func (w *Worker) drain(shutdown *Shutdown, grace time.Duration) {
	w.setState(domain.PumpStateDraining)
	exited := w.waitAsync()
	select {
	case <-exited:
	case <-shutdown.Done():
		w.terminate(exited, grace)
	}
}

// terminate stops the process and waits for it to be reaped. With a grace
// period the process gets SIGTERM first. Signal errors are ignored since
// the process may already be gone.
func (w *Worker) terminate(exited <-chan struct{}, grace time.Duration) {
	if grace > 0 && !closed(exited) {
		_ = w.proc.Signal(sigterm)
		select {
		case <-exited:
			return
		case <-time.After(grace):
		}
	}
	if !closed(exited) {
		_ = w.proc.Signal(sigkill)
	}
	<-exited
}

// waitAsync reaps the process in the background
func (w *Worker) waitAsync() <-chan struct{} {
	exited := make(chan struct{})
	go func() {
		_ = w.proc.Wait()
		close(exited)
	}()
	return exited
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// readLines sends each line of r to lines until r ends. A line longer than
// the read buffer arrives as several consecutive lines. Once stop is closed
// lines are discarded, so the writer never blocks on a full pipe.
func readLines(r io.Reader, lines chan<- string, stop <-chan struct{}) {
	reader := bufio.NewReaderSize(r, constants.MaxLineLength)

	for {
		chunk, _, err := reader.ReadLine()
		if err != nil {
			break
		}
		select {
		case lines <- string(chunk):
		case <-stop:
		}
	}
	close(lines)

	// A read error ends the stream like EOF does, but whatever the worker
	// still writes must be consumed.
	_, _ = io.Copy(io.Discard, r)
}

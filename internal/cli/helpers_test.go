package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// lockedBuffer is written by the run and read by the test concurrently
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testApp is an app whose interrupt channel the test controls
type testApp struct {
	*app
	stdout  *lockedBuffer
	stderr  *lockedBuffer
	signals chan chan<- os.Signal
}

func newTestApp() *testApp {
	stdout, stderr := &lockedBuffer{}, &lockedBuffer{}
	ta := &testApp{
		app:     newApp(stdout, stderr),
		stdout:  stdout,
		stderr:  stderr,
		signals: make(chan chan<- os.Signal, 1),
	}
	ta.notify = func(c chan<- os.Signal, _ ...os.Signal) { ta.signals <- c }
	ta.stopNotify = func(chan<- os.Signal) {}
	return ta
}

// start runs qrun in the background and returns its exit code channel
func (ta *testApp) start(args ...string) <-chan int {
	code := make(chan int, 1)
	go func() {
		code <- ta.execute(context.Background(), args)
	}()
	return code
}

// fakeWorker writes a script that prints its arguments and then idles
// like a queue listener
func fakeWorker(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-php")
	script := "#!/bin/sh\necho \"Processing $*\"\necho\necho \"Processed $QRUN_TEST_APP\"\nexec sleep 30\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// testContext mirrors testing.T.Context (Go 1.24+): a context canceled
// when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

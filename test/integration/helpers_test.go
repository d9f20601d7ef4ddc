package integration

import (
	"bytes"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"
)

const (
	testAPIPort = 15555
	testAPIAddr = "http://127.0.0.1:15555"
)

// fakePHP stands in for php artisan: it announces itself and then
// listens forever
const fakePHP = `#!/bin/sh
echo "Processing $*"
echo
echo "Processed: App\\Jobs\\SendMail"
exec sleep 30
`

// fakeHerd runs whatever it is given, like the real shim
const fakeHerd = `#!/bin/sh
exec "$@"
`

// buildBinary builds the qrun binary and returns its path
func buildBinary(t *testing.T) string {
	t.Helper()

	binary := filepath.Join(t.TempDir(), "qrun")

	cmd := exec.Command("go", "build", "-o", binary, "./cmd/qrun")
	cmd.Dir = projectRoot(t)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, output)
	}

	return binary
}

func projectRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	return filepath.Join(wd, "..", "..")
}

// fakeToolchain writes php and herd scripts and returns a PATH that
// finds them first
func fakeToolchain(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for name, script := range map[string]string{"php": fakePHP, "herd": fakeHerd} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir + string(os.PathListSeparator) + os.Getenv("PATH")
}

// syncBuffer collects output written by the child while the test reads it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// qrunProcess is a running qrun binary
type qrunProcess struct {
	cmd    *exec.Cmd
	stdout *syncBuffer
	stderr *syncBuffer
	done   chan struct{}
	err    error
}

// startQrun starts the binary with the fake toolchain on PATH
func startQrun(t *testing.T, binary string, args ...string) *qrunProcess {
	t.Helper()

	p := &qrunProcess{
		cmd:    exec.Command(binary, args...),
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
		done:   make(chan struct{}),
	}
	p.cmd.Dir = projectRoot(t)
	p.cmd.Env = append(os.Environ(), "PATH="+fakeToolchain(t))
	p.cmd.Stdout = p.stdout
	p.cmd.Stderr = p.stderr

	if err := p.cmd.Start(); err != nil {
		t.Fatalf("failed to start qrun: %v", err)
	}
	go func() {
		p.err = p.cmd.Wait()
		close(p.done)
	}()

	t.Cleanup(p.kill)
	return p
}

// kill forcefully ends qrun if it is still running
func (p *qrunProcess) kill() {
	select {
	case <-p.done:
	default:
		_ = p.cmd.Process.Kill()
		<-p.done
	}
}

// waitExit waits for qrun to exit and returns its exit code
func (p *qrunProcess) waitExit(t *testing.T, timeout time.Duration) int {
	t.Helper()

	select {
	case <-p.done:
	case <-time.After(timeout):
		t.Fatalf("qrun did not exit within %v\nstdout:\n%s", timeout, p.stdout.String())
	}

	if p.err == nil {
		return 0
	}
	if exitErr, ok := p.err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	t.Fatalf("waiting for qrun: %v", p.err)
	return -1
}

// waitForOutput waits until stdout matches pattern
func (p *qrunProcess) waitForOutput(t *testing.T, pattern *regexp.Regexp, count int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(pattern.FindAllString(p.stdout.String(), -1)) >= count {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("expected %d matches of %q within %v\nstdout:\n%s\nstderr:\n%s",
		count, pattern, timeout, p.stdout.String(), p.stderr.String())
}

var startedPattern = regexp.MustCompile(`started \(pid (\d+)\)`)

// workerPIDs returns the pids qrun reported at launch
func (p *qrunProcess) workerPIDs(t *testing.T) []int {
	t.Helper()

	var pids []int
	for _, m := range startedPattern.FindAllStringSubmatch(p.stdout.String(), -1) {
		pid, err := strconv.Atoi(m[1])
		if err != nil {
			t.Fatalf("bad pid %q", m[1])
		}
		pids = append(pids, pid)
	}
	return pids
}

// waitForAPI waits for the API to be ready
func waitForAPI(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(addr + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("API did not become ready within %v", timeout)
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// skipShort skips the test if -short flag is provided
func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

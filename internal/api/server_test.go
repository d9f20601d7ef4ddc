package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/qrun/internal/domain"
	"github.com/charliek/qrun/internal/logs"
	"github.com/charliek/qrun/internal/supervisor"
)

func newIdleServer(t *testing.T, config ServerConfig) (*Server, *logs.Manager) {
	t.Helper()

	logMgr := logs.NewManager(logs.ManagerConfig{BufferSize: 100})
	t.Cleanup(logMgr.Close)

	sup := supervisor.New(supervisor.Config{Sink: logMgr, Notifier: noopNotifier{}})
	return NewServer(config, NewHandlers(sup, logMgr, nil)), logMgr
}

func TestCorsMiddleware_LocalhostOrigins(t *testing.T) {
	tests := []struct {
		name          string
		origin        string
		expectAllowed bool
	}{
		{"localhost http", "http://localhost", true},
		{"localhost with port", "http://localhost:3000", true},
		{"127.0.0.1 with port", "http://127.0.0.1:8080", true},
		{"ipv6 localhost", "http://[::1]", true},
		{"external domain", "http://evil.com", false},
		{"subdomain localhost", "http://sub.localhost", false},
		{"no origin", "", false},
		{"localhost-like domain", "http://localhost.evil.com", false},
	}

	server, _ := newIdleServer(t, ServerConfig{Addr: "127.0.0.1:0"})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/status", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			server.router.ServeHTTP(w, req)

			corsHeader := w.Header().Get("Access-Control-Allow-Origin")
			if tt.expectAllowed {
				assert.Equal(t, tt.origin, corsHeader)
			} else {
				assert.Empty(t, corsHeader)
			}
		})
	}
}

func TestCorsMiddleware_OptionsRequest(t *testing.T) {
	server, _ := newIdleServer(t, ServerConfig{Addr: "127.0.0.1:0"})

	req := httptest.NewRequest("OPTIONS", "/api/v1/shutdown", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAuthMiddleware(t *testing.T) {
	server, _ := newIdleServer(t, ServerConfig{Addr: "127.0.0.1:0", Token: "secret-token-123"})

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"missing header", "/api/v1/status", "", http.StatusUnauthorized},
		{"basic auth", "/api/v1/status", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong case", "/api/v1/status", "bearer secret-token-123", http.StatusUnauthorized},
		{"wrong token", "/api/v1/status", "Bearer wrong-token", http.StatusUnauthorized},
		{"valid token", "/api/v1/status", "Bearer secret-token-123", http.StatusOK},
		{"health needs no token", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			server.router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, "UNAUTHORIZED", resp.Code)
			}
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	server, _ := newIdleServer(t, ServerConfig{Addr: "127.0.0.1:0"})

	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/workers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerAddr(t *testing.T) {
	server, _ := newIdleServer(t, ServerConfig{Addr: "127.0.0.1:0"})
	assert.Equal(t, "127.0.0.1:0", server.Addr())

	require.NoError(t, server.Listen())
	defer server.Shutdown(context.Background())

	assert.True(t, strings.HasPrefix(server.Addr(), "127.0.0.1:"))
	assert.NotEqual(t, "127.0.0.1:0", server.Addr())
}

func TestServerStartShutdown(t *testing.T) {
	server, _ := newIdleServer(t, ServerConfig{Addr: "127.0.0.1:0"})

	require.NoError(t, server.Listen())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve()
	}()

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Error("server did not stop within timeout")
	}
}

func TestServerServe_NotListening(t *testing.T) {
	server, _ := newIdleServer(t, ServerConfig{Addr: "127.0.0.1:0"})
	assert.Error(t, server.Serve())
}

func TestServerShutdown_NilServer(t *testing.T) {
	server, _ := newIdleServer(t, ServerConfig{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, server.Shutdown(ctx))
}

func TestStreamLogs(t *testing.T) {
	server, logMgr := newIdleServer(t, ServerConfig{Addr: "127.0.0.1:0"})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/logs/stream?worker=payments")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	logMgr.Write(domain.LogEntry{Timestamp: time.Now(), WorkerID: 1, Worker: "default", Stream: domain.StreamStdout, Line: "skipped"})
	logMgr.Write(domain.LogEntry{Timestamp: time.Now(), WorkerID: 2, Worker: "payments", Stream: domain.StreamStdout, Line: "Processed"})

	var data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			break
		}
	}

	var entry LogEntryResponse
	require.NoError(t, json.Unmarshal([]byte(data), &entry))
	assert.Equal(t, "payments", entry.Worker)
	assert.Equal(t, "Processed", entry.Line)
}

func TestStreamLogs_Tail(t *testing.T) {
	server, logMgr := newIdleServer(t, ServerConfig{})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	for _, line := range []string{"one", "two", "three"} {
		logMgr.Write(domain.LogEntry{Timestamp: time.Now(), WorkerID: 1, Worker: "default", Stream: domain.StreamStdout, Line: line})
	}

	resp, err := http.Get(ts.URL + "/api/v1/logs/stream?tail=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			var entry LogEntryResponse
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &entry))
			lines = append(lines, entry.Line)
			if len(lines) == 2 {
				logMgr.Write(domain.LogEntry{Timestamp: time.Now(), WorkerID: 1, Worker: "default", Stream: domain.StreamStdout, Line: "four"})
			}
		}
	}
	assert.Equal(t, []string{"two", "three", "four"}, lines)
}

func TestStreamLogs_KeepAlive(t *testing.T) {
	old := keepAliveInterval
	keepAliveInterval = 20 * time.Millisecond
	defer func() { keepAliveInterval = old }()

	server, _ := newIdleServer(t, ServerConfig{})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/logs/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == ": keepalive\n" {
			return
		}
	}
}

func TestStreamLogs_InvalidPattern(t *testing.T) {
	server, _ := newIdleServer(t, ServerConfig{})

	req := httptest.NewRequest("GET", "/api/v1/logs/stream?pattern=(&regex=true", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCodeInvalidPattern)
}

func TestTailParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 0},
		{"tail=5", 5},
		{"tail=-1", 0},
		{"tail=abc", 0},
		{"tail=999999", 10000},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/logs/stream?"+tt.query, nil)
			assert.Equal(t, tt.want, tailParam(req))
		})
	}
}

func TestIsLocalhostOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost", true},
		{"https://localhost", true},
		{"http://127.0.0.1:8080", true},
		{"https://[::1]", true},
		{"http://example.com", false},
		{"http://127.0.0.1.evil.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, isLocalhostOrigin(tt.origin))
		})
	}
}

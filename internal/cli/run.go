package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"

	"github.com/charliek/qrun/internal/api"
	"github.com/charliek/qrun/internal/config"
	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/logs"
	"github.com/charliek/qrun/internal/supervisor"
	"github.com/charliek/qrun/internal/tui"
)

// runWorkers launches the workers and supervises them until an interrupt.
// A clean shutdown returns nil; every other outcome is an error.
func (a *app) runWorkers(ctx context.Context, opts config.Options, tokens []string, rf runFlags) error {
	if err := config.Validate(opts); err != nil {
		return err
	}

	extra, err := config.LoadEnvFile(opts.EnvFile)
	if err != nil {
		return err
	}
	var env []string
	if len(extra) > 0 {
		env = config.Environ(os.Environ(), extra)
	}

	specs := config.Resolve(opts, tokens)
	console := logs.NewConsole(a.stdout, config.LayoutFor(specs))
	logMgr := logs.NewManager(logs.DefaultManagerConfig())

	// The dashboard owns the terminal, so lines only go to the history
	var sinks []supervisor.Sink
	if !rf.tui {
		sinks = append(sinks, console)
	}
	sinks = append(sinks, logMgr)
	var apiMetrics *api.Metrics
	if rf.addr != "" {
		apiMetrics = api.NewMetrics()
		sinks = append(sinks, apiMetrics)
	}

	sup := supervisor.New(supervisor.Config{
		Runner:   &supervisor.ExecRunner{Stderr: a.stderr},
		Sink:     supervisor.Tee(sinks...),
		Notifier: console,
		Env:      env,
		Grace:    opts.Grace,
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	if rf.addr != "" {
		apiMetrics.TrackWorkers(sup.Workers)
		server, err := a.startAPI(rf, sup, logMgr, apiMetrics, console, cancelRun)
		if err != nil {
			return err
		}
		defer shutdownAPI(server)
	}
	// Closing the history ends open log streams before the API shuts down
	defer logMgr.Close()

	// Installed before launch so an early Ctrl+C still reaps every worker
	sigCh := make(chan os.Signal, 1)
	a.notify(sigCh, supervisor.InterruptSignals...)
	defer a.stopNotify(sigCh)

	if err := sup.Launch(ctx, specs); err != nil {
		return err
	}
	defer sup.Stop()

	if rf.tui {
		a.runDashboard(runCtx, sup, logMgr, sigCh)
		sup.Stop()
		return nil
	}

	sup.Run(runCtx, sigCh)
	return nil
}

// runDashboard blocks until the dashboard is closed by the user, an
// interrupt, or a shutdown from elsewhere
func (a *app) runDashboard(ctx context.Context, sup *supervisor.Supervisor, logMgr *logs.Manager, sigCh <-chan os.Signal) {
	tuiCtx, quit := context.WithCancel(ctx)
	defer quit()

	go func() {
		select {
		case <-sigCh:
		case <-sup.Shutdown().Done():
		case <-tuiCtx.Done():
		}
		quit()
	}()

	if err := tui.Run(tuiCtx, sup, logMgr); err != nil {
		fmt.Fprintf(a.stderr, "TUI error: %v\n", err)
	}
}

// startAPI binds the control API and serves it in the background.
// A shutdown request cancels the run.
func (a *app) startAPI(rf runFlags, sup *supervisor.Supervisor, logMgr *logs.Manager, apiMetrics *api.Metrics, console *logs.Console, shutdownFn func()) (*api.Server, error) {
	token := rf.token
	if token == "" && !isLocalhostAddr(rf.addr) {
		var err error
		if token, err = generateToken(); err != nil {
			return nil, fmt.Errorf("generating API token: %w", err)
		}
	}

	server := api.NewServer(api.ServerConfig{Addr: rf.addr, Token: token, Metrics: apiMetrics}, api.NewHandlers(sup, logMgr, shutdownFn))
	if err := server.Listen(); err != nil {
		return nil, fmt.Errorf("starting control API: %w", err)
	}

	if token != "" {
		console.Notice("Control API: http://%s (token: %s)", server.Addr(), token)
	} else {
		console.Notice("Control API: http://%s", server.Addr())
	}

	go func() {
		if err := server.Serve(); err != nil {
			fmt.Fprintf(a.stderr, "API server error: %v\n", err)
		}
	}()

	return server, nil
}

func shutdownAPI(server *api.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(ctx)
}

// isLocalhostAddr reports whether a host:port only listens on loopback
func isLocalhostAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	switch host {
	case constants.DefaultAPIHost, "localhost", "::1":
		return true
	}
	return false
}

// generateToken generates a random API token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

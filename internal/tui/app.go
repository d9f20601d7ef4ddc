// Package tui is an optional terminal dashboard for a running supervisor
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/qrun/internal/domain"
	"github.com/charliek/qrun/internal/logs"
)

// Run shows the dashboard until the user quits or ctx is done. The caller
// decides what quitting means; qrun stops all workers.
func Run(ctx context.Context, workers WorkerLister, logMgr *logs.Manager) error {
	p := tea.NewProgram(NewModel(workers), tea.WithAltScreen())

	// Replay what was printed before the dashboard came up
	history, subID, ch, err := logMgr.Follow(domain.LogFilter{}, maxLogEntries)
	if err != nil {
		return err
	}
	defer logMgr.Unsubscribe(subID)

	fwdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for _, entry := range history {
			p.Send(LogEntryMsg(entry))
		}
		forwardLogs(fwdCtx, p, ch)
	}()

	go func() {
		<-fwdCtx.Done()
		p.Quit()
	}()

	_, err = p.Run()
	return err
}

// forwardLogs forwards log entries from the subscription channel to the TUI program.
// It exits when the context is cancelled or the channel is closed.
func forwardLogs(ctx context.Context, p *tea.Program, ch <-chan domain.LogEntry) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			p.Send(LogEntryMsg(entry))
		}
	}
}

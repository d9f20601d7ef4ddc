package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/qrun/internal/domain"
)

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.mode == ModeHelp {
		return m.helpView()
	}

	var sb strings.Builder
	sb.WriteString(m.workerPanel())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.statusBar())
	return sb.String()
}

// labelStyle returns the color for a worker label
func (m Model) labelStyle(label string) lipgloss.Style {
	idx, ok := m.labelIndex[label]
	if !ok {
		return defaultWorkerStyle
	}
	return labelColors[idx%len(labelColors)]
}

// formatLogEntry formats a single log entry for display
func (m Model) formatLogEntry(entry domain.LogEntry) string {
	ts := dimStyle.Render(entry.Timestamp.Format("15:04:05"))
	prefix := m.labelStyle(entry.Worker).Render(fmt.Sprintf("[%02d] %-10s", entry.WorkerID, entry.Worker))

	line := entry.Line
	if entry.Stream == domain.StreamSystem {
		line = dimStyle.Render(line)
	}
	return fmt.Sprintf("%s %s %s", ts, prefix, line)
}

// workerPanel renders the worker status header
func (m Model) workerPanel() string {
	items := make([]string, 0, len(m.snapshot))
	for _, w := range m.snapshot {
		name := fmt.Sprintf("%d:%s", w.ID, w.Label)
		if m.soloWorker == w.ID {
			name = "[" + name + "]"
		}
		items = append(items, stateStyle(w.State).Render(name+" "+w.State.String()))
	}

	return headerStyle.Render(strings.Join(items, "  "))
}

// statusBar renders the bottom status bar
func (m Model) statusBar() string {
	var left string
	switch {
	case m.mode == ModeStringFilter:
		left = "Filter: " + m.textInput.View()
	case m.soloWorker != 0:
		left = fmt.Sprintf("Showing: worker %d (ESC to clear)", m.soloWorker)
	case m.searchPattern != "":
		left = fmt.Sprintf("Filter: %s (ESC to clear)", m.searchPattern)
	default:
		left = "q: stop all workers | ? for help"
	}

	followIndicator := "[FOLLOW]"
	if !m.followMode {
		followIndicator = "[PAUSED]"
	}
	right := fmt.Sprintf("%s %d/%d lines", followIndicator, len(m.filteredEntries()), len(m.logEntries))

	leftWidth := max(m.width-len(right)-4, 0)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		statusStyle.Width(leftWidth).Render(left),
		"  ",
		statusStyle.Render(right),
	)
}

// helpView renders the help overlay
func (m Model) helpView() string {
	help := `
qrun - Queue Workers

Navigation:
  j/↓        Scroll down
  k/↑        Scroll up (pauses auto-follow)
  g/Home     Go to top (pauses auto-follow)
  G/End      Go to bottom (resumes auto-follow)
  PgUp/PgDn  Page up/down
  F          Toggle auto-follow mode

Filtering:
  1-9        Solo worker (toggle)
  s or /     String filter (substring)
  ESC        Clear filters

Other:
  ?          Toggle help
  q/Ctrl+C   Stop all workers and quit

Press any key to close help...
`
	return helpStyle.Render(help)
}

package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/qrun/internal/domain"
)

// maxLogEntries is the maximum number of log entries to keep in memory
const maxLogEntries = 1000

// refreshInterval is how often worker states are polled
const refreshInterval = 500 * time.Millisecond

// Mode represents the current TUI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeStringFilter
	ModeHelp
)

// WorkerLister reports the current workers. *supervisor.Supervisor
// satisfies it.
type WorkerLister interface {
	Workers() []domain.WorkerInfo
}

// Model is the bubbletea model for the dashboard
type Model struct {
	workers    WorkerLister
	snapshot   []domain.WorkerInfo
	logEntries []domain.LogEntry

	// labelIndex gives each label a stable color, in order of appearance
	labelIndex map[string]int

	viewport  viewport.Model
	textInput textinput.Model
	mode      Mode

	// Filtering
	soloWorker    int    // Worker id to show alone, 0 for all
	searchPattern string // Case insensitive substring filter

	followMode bool

	width  int
	height int
	ready  bool
}

// NewModel creates a new dashboard model
func NewModel(workers WorkerLister) Model {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 100
	ti.Width = 40

	m := Model{
		workers:    workers,
		logEntries: make([]domain.LogEntry, 0),
		labelIndex: make(map[string]int),
		textInput:  ti,
		mode:       ModeNormal,
		followMode: true,
	}
	m.refresh()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// LogEntryMsg is sent when a new log entry arrives
type LogEntryMsg domain.LogEntry

// TickMsg is sent periodically to refresh worker states
type TickMsg time.Time

// tickCmd returns a command that ticks periodically
func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// refresh takes a new worker snapshot
func (m *Model) refresh() {
	m.snapshot = m.workers.Workers()
	for _, w := range m.snapshot {
		m.colorIndex(w.Label)
	}
}

// colorIndex returns the color slot for a label, assigning the next free
// one on first sight
func (m *Model) colorIndex(label string) int {
	idx, ok := m.labelIndex[label]
	if !ok {
		idx = len(m.labelIndex)
		m.labelIndex[label] = idx
	}
	return idx
}

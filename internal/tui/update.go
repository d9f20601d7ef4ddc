package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/qrun/internal/domain"
)

// nearBottomThreshold is the scroll percentage (0.0-1.0) at which we consider
// the viewport to be "near" the bottom for auto-follow purposes.
const nearBottomThreshold = 0.98

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
		m.updateViewport()

	case LogEntryMsg:
		m.handleLogEntry(domain.LogEntry(msg))

	case TickMsg:
		m.refresh()
		cmds = append(cmds, tickCmd())
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleWindowSize handles window resize messages
func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 3 // Worker panel
	footerHeight := 2 // Status bar

	viewportHeight := max(msg.Height-headerHeight-footerHeight, 1)

	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.viewport.YPosition = headerHeight
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
}

// handleLogEntry appends an entry, keeping the view at the bottom when the
// user was already there
func (m *Model) handleLogEntry(entry domain.LogEntry) {
	wasNearBottom := m.isNearBottom()

	m.logEntries = append(m.logEntries, entry)
	if len(m.logEntries) > maxLogEntries {
		kept := make([]domain.LogEntry, maxLogEntries)
		copy(kept, m.logEntries[len(m.logEntries)-maxLogEntries:])
		m.logEntries = kept
	}
	m.updateViewport()

	if wasNearBottom {
		m.followMode = true
	}
	if m.followMode {
		m.viewport.GotoBottom()
	}
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeStringFilter:
		return m.handleStringFilterKey(msg)
	case ModeHelp:
		// Any key closes help
		m.mode = ModeNormal
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.mode = ModeHelp

	case "s", "/":
		m.mode = ModeStringFilter
		m.textInput.SetValue("")
		m.textInput.Focus()

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		id := int(msg.String()[0] - '0')
		if id <= len(m.snapshot) {
			if m.soloWorker == id {
				m.soloWorker = 0
			} else {
				m.soloWorker = id
			}
			m.updateViewport()
		}

	case "esc":
		m.soloWorker = 0
		m.searchPattern = ""
		m.updateViewport()

	case "up", "k":
		m.viewport.LineUp(1)
		m.followMode = false

	case "down", "j":
		m.viewport.LineDown(1)

	case "pgup":
		m.viewport.HalfViewUp()
		m.followMode = false

	case "pgdown":
		m.viewport.HalfViewDown()

	case "home", "g":
		m.viewport.GotoTop()
		m.followMode = false

	case "end", "G":
		m.viewport.GotoBottom()
		m.followMode = true

	case "F":
		m.followMode = !m.followMode
		if m.followMode {
			m.viewport.GotoBottom()
		}
	}

	return m, nil
}

// handleStringFilterKey filters live while typing
func (m Model) handleStringFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.textInput.Blur()
		m.searchPattern = ""
		m.updateViewport()
		return m, nil

	case "enter":
		m.mode = ModeNormal
		m.textInput.Blur()
		m.searchPattern = m.textInput.Value()
		m.updateViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.searchPattern = m.textInput.Value()
	m.updateViewport()
	return m, cmd
}

// isNearBottom checks if the viewport is at or near the bottom
func (m *Model) isNearBottom() bool {
	if m.viewport.AtBottom() {
		return true
	}
	return m.viewport.ScrollPercent() >= nearBottomThreshold
}

// updateViewport renders the filtered entries into the viewport
func (m *Model) updateViewport() {
	entries := m.filteredEntries()
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = m.formatLogEntry(entry)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

// filteredEntries returns log entries after applying filters
func (m *Model) filteredEntries() []domain.LogEntry {
	var result []domain.LogEntry

	for _, entry := range m.logEntries {
		if m.soloWorker != 0 && entry.WorkerID != m.soloWorker {
			continue
		}
		if m.searchPattern != "" && !containsIgnoreCase(entry.Line, m.searchPattern) {
			continue
		}
		result = append(result, entry)
	}

	return result
}

// containsIgnoreCase performs a case-insensitive substring search
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/domain"
)

// Colors
var (
	// Pump state colors
	readingColor    = lipgloss.Color("10") // Green
	drainingColor   = lipgloss.Color("11") // Yellow
	cancellingColor = lipgloss.Color("11") // Yellow
	terminatedColor = lipgloss.Color("8")  // Gray

	// UI colors
	headerBg = lipgloss.Color("235")
	statusBg = lipgloss.Color("236")
	helpBg   = lipgloss.Color("234")
	dimColor = lipgloss.Color("8")
)

// Styles
var (
	readingStyle = lipgloss.NewStyle().
			Foreground(readingColor).
			Bold(true)

	drainingStyle = lipgloss.NewStyle().
			Foreground(drainingColor)

	cancellingStyle = lipgloss.NewStyle().
			Foreground(cancellingColor)

	terminatedStyle = lipgloss.NewStyle().
			Foreground(terminatedColor)

	defaultWorkerStyle = lipgloss.NewStyle()

	headerStyle = lipgloss.NewStyle().
			Background(headerBg).
			Padding(0, 1).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Background(helpBg).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	// Dim style for timestamps and system lines
	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	// Label colors for log lines, same palette as the console
	labelColors []lipgloss.Style
)

func init() {
	for _, color := range constants.ProcessColors {
		labelColors = append(labelColors, lipgloss.NewStyle().Foreground(lipgloss.Color(color)))
	}
}

// stateStyle returns the style for a pump state
func stateStyle(state domain.PumpState) lipgloss.Style {
	switch state {
	case domain.PumpStateReading:
		return readingStyle
	case domain.PumpStateDraining:
		return drainingStyle
	case domain.PumpStateCancelling:
		return cancellingStyle
	case domain.PumpStateTerminated:
		return terminatedStyle
	default:
		return defaultWorkerStyle
	}
}

package logs

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/domain"
)

// Console writes worker lines to a terminal with an aligned, colored prefix.
// Writes are serialized so lines from different workers never interleave
// mid-line.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	layout   domain.Layout
	renderer *lipgloss.Renderer
	styles   map[string]lipgloss.Style
	dim      lipgloss.Style
}

// NewConsole creates a console writing to out.
// Colors are only emitted when out is a terminal.
func NewConsole(out io.Writer, layout domain.Layout) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:      out,
		layout:   layout,
		renderer: r,
		styles:   make(map[string]lipgloss.Style),
		dim:      r.NewStyle().Faint(true),
	}
}

// Write prints one entry as a single line
func (c *Console) Write(entry domain.LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := c.style(entry.Worker).Render(c.layout.Prefix(entry.WorkerID, entry.Worker))
	line := entry.Line
	if entry.Stream == domain.StreamSystem {
		line = c.dim.Render(line)
	}
	fmt.Fprintf(c.out, "%s%s\n", prefix, line)
}

// Notice prints an unprefixed supervisor message
func (c *Console) Notice(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

// style returns the color for a label; workers of one queue share a color.
// Callers must hold c.mu.
func (c *Console) style(label string) lipgloss.Style {
	s, ok := c.styles[label]
	if !ok {
		color := constants.ProcessColors[len(c.styles)%len(constants.ProcessColors)]
		s = c.renderer.NewStyle().Foreground(lipgloss.Color(color))
		c.styles[label] = s
	}
	return s
}

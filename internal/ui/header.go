package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the box printed at the start of a command: the title, the
// command line, and the target it acts on (server, file, record count).
type Header struct {
	Title   string            // e.g., "PARAMETER IMPORT"
	Command string            // e.g., "mcparam-cfg import tuned.yaml"
	Params  map[string]string // e.g., {"Server": "ws://10.0.0.2:14560/ws"}
	Width   int
}

// NewHeader creates a header sized to the terminal
func NewHeader(title, command string, params map[string]string) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth overrides the terminal width
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// paramLines renders the params as an aligned key column, sorted by key
func (h *Header) paramLines() []string {
	keys := sortedKeys(h.Params)
	keyCol := 0
	for _, k := range keys {
		keyCol = max(keyCol, lipgloss.Width(k))
	}

	lines := make([]string, len(keys))
	for i, k := range keys {
		pad := strings.Repeat(" ", keyCol-lipgloss.Width(k))
		lines[i] = HeaderParamKeyStyle.Render(k+":") + pad + " " + HeaderParamValueStyle.Render(h.Params[k])
	}
	return lines
}

// Render returns the styled header. Widths below MinTerminalWidth get a
// borderless layout.
func (h *Header) Render() string {
	title := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	command := HeaderCommandStyle.Render(h.Command)
	params := h.paramLines()

	if h.Width < MinTerminalWidth {
		lines := append([]string{title, command}, params...)
		return strings.Join(lines, "\n")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, command)
	if len(params) > 0 {
		divider := lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Render(strings.Repeat("─", max(h.Width-6, 10)))
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, strings.Join(params, "\n"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(h.Width - 2).
		Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

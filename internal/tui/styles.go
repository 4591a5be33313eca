package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/mcparam/internal/ui"
	"github.com/muurk/mcparam/internal/version"
)

// AppName is shown at the left of every screen's header
const AppName = "MCPARAM TUNING CONSOLE"

// Layout limits. The parameter list needs more room than CLI output.
const (
	MinTerminalWidth = 72
	MaxContentWidth  = ui.MaxContentWidth
)

// The console shares the CLI palette
var (
	PrimaryColor   = ui.PrimaryColor
	WarningColor   = ui.WarningColor
	ErrorColor     = ui.ErrorColor
	TextColor      = ui.TextColor
	SubtleColor    = ui.MutedColor
	HighlightColor = ui.SuccessColor
	BorderColor    = ui.PrimaryColor
)

// Link states shown at the right of the header
type LinkState int

const (
	LinkNone LinkState = iota
	LinkConnecting
	LinkUp
	LinkDown
)

// Status is the header's right-hand side: the link state and its target
type Status struct {
	State  LinkState
	Target string
}

// Render formats the status, e.g. "● ws://10.0.0.2:14560/ws"
func (s Status) Render() string {
	var dot lipgloss.Style
	switch s.State {
	case LinkUp:
		dot = lipgloss.NewStyle().Foreground(ui.SuccessColor)
	case LinkConnecting:
		dot = lipgloss.NewStyle().Foreground(WarningColor)
	case LinkDown:
		dot = lipgloss.NewStyle().Foreground(ErrorColor)
	default:
		return lipgloss.NewStyle().Foreground(SubtleColor).Render("not connected")
	}
	return dot.Render("●") + " " + lipgloss.NewStyle().Foreground(SubtleColor).Render(s.Target)
}

var (
	TitleStyle            = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true).Padding(1, 0)
	SubtitleStyle         = lipgloss.NewStyle().Foreground(SubtleColor).Italic(true)
	SelectedMenuItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(HighlightColor).Bold(true)
	SpinnerStyle          = lipgloss.NewStyle().Foreground(PrimaryColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor)

	// Dashboard
	ColumnHeaderStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	ModifiedStyle     = lipgloss.NewStyle().Foreground(WarningColor)
	CursorRowStyle    = lipgloss.NewStyle().Foreground(HighlightColor).Bold(true)
	FocusedInputStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	StatusOKStyle     = lipgloss.NewStyle().Foreground(HighlightColor)
	StatusErrorStyle  = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	DetailBoxStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(SubtleColor).
				Padding(0, 1)
)

// RenderTitle renders a screen title
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderSubtitle renders secondary text
func RenderSubtitle(text string) string {
	return SubtitleStyle.Render(text)
}

// RenderError renders an error message
func RenderError(text string) string {
	return ErrorStyle.Render(ui.FailureMarker + " " + text)
}

// headerContent places the app name and version left and the link status right
func headerContent(width int, status Status) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + version.Version)
	right := status.Render()

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}

// RenderApplicationContainer wraps every screen in the application frame:
// a header with the name, version and link status, the screen content, and
// a footer holding context-sensitive help.
//
//	func (m Model) View() string {
//	    return RenderApplicationContainer(m.buildContent(), m.status(), m.Help.View(m.Keys), m.Width, m.Height)
//	}
func RenderApplicationContainer(content string, status Status, footerText string, terminalWidth, terminalHeight int) string {
	terminalWidth = max(terminalWidth, MinTerminalWidth)
	if terminalHeight < 10 {
		terminalHeight = 24
	}
	inner := terminalWidth - 4

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(inner).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(inner).
		Padding(0, 1)

	body := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(headerContent(inner-2, status)),
		lipgloss.NewStyle().Width(inner).Render(content),
		footerStyle.Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText)),
	)

	framed := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(body)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, framed)
}

package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Ground-station palette, readable on dark terminals
var (
	PrimaryColor = lipgloss.Color("#00A6D6") // borders, headers
	SuccessColor = lipgloss.Color("#3FB950")
	ErrorColor   = lipgloss.Color("#F85149")
	WarningColor = lipgloss.Color("#D29922") // warnings, modified values
	MutedColor   = lipgloss.Color("#6E7681") // defaults, secondary info
	TextColor    = lipgloss.Color("#E6EDF3")
)

// Layout limits
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 120
)

// indent is the left padding shared by header and progress lines
var indent = lipgloss.NewStyle().PaddingLeft(2)

// Header styles
var (
	HeaderTitleStyle      = indent.Foreground(TextColor).Bold(true)
	HeaderCommandStyle    = indent.Foreground(MutedColor)
	HeaderParamKeyStyle   = indent.Foreground(MutedColor)
	HeaderParamValueStyle = lipgloss.NewStyle().Foreground(TextColor)
)

// Step styles, keyed by how a step settled
var (
	ProgressLabelStyle = indent.Foreground(TextColor)
	StepCompleteStyle  = lipgloss.NewStyle().Foreground(SuccessColor)
	StepRunningStyle   = lipgloss.NewStyle().Foreground(WarningColor)
	StepPendingStyle   = lipgloss.NewStyle().Foreground(MutedColor)
	StepNoteStyle      = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
)

// Result box styles
var (
	SuccessTitleStyle         = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	WarningTitleStyle         = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	ErrorTitleStyle           = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	ErrorMessageStyle         = lipgloss.NewStyle().Foreground(ErrorColor)
	ResultKeyStyle            = lipgloss.NewStyle().Foreground(MutedColor)
	ResultValueStyle          = lipgloss.NewStyle().Foreground(TextColor)
	TroubleshootingTitleStyle = lipgloss.NewStyle().Foreground(MutedColor).Bold(true)
	TroubleshootingItemStyle  = lipgloss.NewStyle().Foreground(MutedColor)
)

// Parameter table styles
var (
	tableCell          = lipgloss.NewStyle().Padding(0, 1)
	TableHeaderStyle   = tableCell.Foreground(PrimaryColor).Bold(true)
	TableCellStyle     = tableCell.Foreground(TextColor)
	TableModifiedStyle = tableCell.Foreground(WarningColor)
	TableMutedStyle    = tableCell.Foreground(MutedColor)
)

// Markers
const (
	StepMarkerComplete = "✓"
	StepMarkerRunning  = "●"
	StepMarkerPending  = "·"
	StepMarkerSkipped  = "⊘"
	SuccessMarker      = "✓"
	WarningMarker      = "⚠"
	FailureMarker      = "✗"
	ModifiedMarker     = "*"
)

// GetTerminalWidth returns the stdout width clamped to the layout limits.
// Pipes and files get MinTerminalWidth.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return min(max(width, MinTerminalWidth), MaxContentWidth)
}

// IsTerminal reports whether stdout is an interactive terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// boxStyle returns the double-bordered result box style in color c
func boxStyle(width int, c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(c).
		Width(width-2).
		Padding(0, 2)
}

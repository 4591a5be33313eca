package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/mcparam/internal/param"
)

// maxNotes caps the notes shown in a result box
const maxNotes = 12

// ResultType selects the box color and banner
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// banner returns the marker, label, color and title style of a result type
func (t ResultType) banner() (string, string, lipgloss.Color, lipgloss.Style) {
	switch t {
	case ResultFailure:
		return FailureMarker, "FAILED", ErrorColor, ErrorTitleStyle
	case ResultWarning:
		return WarningMarker, "WARNING", WarningColor, WarningTitleStyle
	default:
		return SuccessMarker, "SUCCESS", SuccessColor, SuccessTitleStyle
	}
}

// Result is the box printed when a command finishes
type Result struct {
	Type            ResultType
	Title           string            // e.g., "Parameter Import complete"
	Details         map[string]string // rendered in key order
	Notes           []string          // e.g., import warnings
	Error           error             // failure only
	Troubleshooting []string          // failure only
	Width           int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details map[string]string) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details map[string]string) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: GetTerminalWidth()}
}

// SetWidth overrides the terminal width
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail adds a key-value line
func (r *Result) AddDetail(key, value string) *Result {
	if r.Details == nil {
		r.Details = make(map[string]string)
	}
	r.Details[key] = value
	return r
}

// AddNote appends a line below the details
func (r *Result) AddNote(note string) *Result {
	r.Notes = append(r.Notes, note)
	return r
}

// Render returns the styled result box
func (r *Result) Render() string {
	width := max(r.Width, MinTerminalWidth)
	marker, label, color, titleStyle := r.Type.banner()

	lines := []string{"", titleStyle.Render(fmt.Sprintf("   %s  %s  ─  %s", marker, label, r.Title)), ""}
	if r.Type == ResultFailure {
		lines = append(lines, r.failureLines(width)...)
	} else {
		lines = append(lines, r.detailLines()...)
	}
	lines = append(lines, "")
	return boxStyle(width, color).Render(strings.Join(lines, "\n"))
}

// detailLines renders the details with an aligned key column, then the notes
func (r *Result) detailLines() []string {
	keys := sortedKeys(r.Details)
	keyCol := 0
	for _, k := range keys {
		keyCol = max(keyCol, lipgloss.Width(k))
	}

	var lines []string
	for _, k := range keys {
		key := ResultKeyStyle.Render(fmt.Sprintf("   %-*s", keyCol+1, k+":"))
		lines = append(lines, key+" "+ResultValueStyle.Render(r.Details[k]))
	}

	if len(r.Notes) > 0 && len(lines) > 0 {
		lines = append(lines, "")
	}
	for i, note := range r.Notes {
		if i == maxNotes {
			lines = append(lines, TroubleshootingItemStyle.Render(fmt.Sprintf("   … and %d more", len(r.Notes)-maxNotes)))
			break
		}
		lines = append(lines, TroubleshootingItemStyle.Render("   • "+note))
	}
	return lines
}

// failureLines renders the error and the troubleshooting box. Parameter
// errors name the parameter on a line of their own.
func (r *Result) failureLines(width int) []string {
	var lines []string
	if r.Error != nil {
		if perr, ok := param.AsError(r.Error); ok && perr.Name != "" {
			lines = append(lines,
				ErrorMessageStyle.Render("   Parameter: "+perr.Name),
				ErrorMessageStyle.Render("   Error:     "+param.GetShortErrorMessage(r.Error)),
			)
		} else {
			lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()))
		}
		lines = append(lines, "")
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, r.troubleshootingBox(width))
	}
	return lines
}

// troubleshootingBox renders the tips in an inner rounded box
func (r *Result) troubleshootingBox(width int) string {
	lines := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(width-12, 40)).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
	StepSkipped                    // Skipped
)

// settled reports whether the step has finished one way or another
func (s StepStatus) settled() bool {
	return s == StepComplete || s == StepFailed || s == StepSkipped
}

// look returns the marker and name style of a status
func (s StepStatus) look() (string, lipgloss.Style) {
	switch s {
	case StepComplete:
		return StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		return StepMarkerRunning, StepRunningStyle
	case StepFailed:
		return FailureMarker, ErrorTitleStyle
	case StepSkipped:
		return StepMarkerSkipped, StepPendingStyle
	default:
		return StepMarkerPending, StepPendingStyle
	}
}

// Step is one unit of a multi-step operation, usually one parameter
type Step struct {
	Number  int    // 1-based
	Name    string // e.g., "MC_ROLL_P"
	Status  StepStatus
	Message string // e.g., "clamped to 12"
}

// Progress tracks a multi-step operation and renders it as a bar and step list
type Progress struct {
	Label   string
	Steps   []Step
	Current int     // 1-based number of the running step
	Percent float64 // share of settled steps, 0.0 - 1.0
	Width   int
	bar     progress.Model
	nameCol int
}

// NewProgress creates a tracker for totalSteps pending steps
func NewProgress(label string, totalSteps int) *Progress {
	steps := make([]Step, totalSteps)
	for i := range steps {
		steps[i] = Step{Number: i + 1}
	}
	p := &Progress{Label: label, Steps: steps}
	return p.SetWidth(GetTerminalWidth())
}

// SetWidth sizes the bar for the terminal width
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := min(max(width-24, 20), 50)
	p.bar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth))
	return p
}

// SetStepNames names the steps in order and aligns the marker column to the longest name
func (p *Progress) SetStepNames(names []string) *Progress {
	for i, name := range names {
		if i < len(p.Steps) {
			p.Steps[i].Name = name
		}
	}
	p.nameCol = 0
	for _, s := range p.Steps {
		p.nameCol = max(p.nameCol, lipgloss.Width(s.Name))
	}
	return p
}

// UpdateStep records a step's status and optional message
func (p *Progress) UpdateStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return
	}
	step := &p.Steps[stepNumber-1]
	step.Status = status
	step.Message = message
	p.nameCol = max(p.nameCol, lipgloss.Width(step.Name))

	if status == StepRunning {
		p.Current = stepNumber
		return
	}
	settled := 0
	for _, s := range p.Steps {
		if s.Status.settled() {
			settled++
		}
	}
	p.Percent = float64(settled) / float64(len(p.Steps))
}

// Count returns the number of steps in status
func (p *Progress) Count(status StepStatus) int {
	n := 0
	for _, s := range p.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Summary describes the settled steps on one line, e.g. "14 done, 1 skipped"
func (p *Progress) Summary() string {
	parts := []string{fmt.Sprintf("%d done", p.Count(StepComplete))}
	if n := p.Count(StepSkipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if n := p.Count(StepFailed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	if n := p.Count(StepPending); n > 0 {
		parts = append(parts, fmt.Sprintf("%d not run", n))
	}
	return strings.Join(parts, ", ")
}

// Render returns the label, bar and step list
func (p *Progress) Render() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	counter := fmt.Sprintf("[%d/%d]", p.Current, len(p.Steps))
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
		fmt.Sprintf("%s  %3.0f%%  %s", p.bar.ViewAs(p.Percent), p.Percent*100, counter)))
	b.WriteString("\n\n")

	lines := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		lines[i] = p.renderStepLine(s)
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// renderStepLine renders "  [ 3/15] MC_ROLL_P    ✓  (7.25)"
func (p *Progress) renderStepLine(step Step) string {
	total := len(p.Steps)
	digits := len(fmt.Sprint(total))
	marker, style := step.Status.look()

	var b strings.Builder
	fmt.Fprintf(&b, "  [%*d/%d] ", digits, step.Number, total)
	b.WriteString(style.Render(step.Name))
	b.WriteString(strings.Repeat(" ", max(p.nameCol-lipgloss.Width(step.Name), 0)+2))
	b.WriteString(style.Render(marker))
	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}

// StepCallback reports progress of one step. Operations call it as each
// step starts and settles.
type StepCallback func(stepNumber int, name string, status StepStatus, message string)

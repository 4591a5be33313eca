package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig holds configuration for a multi-step command execution
type RunnerConfig struct {
	Title           string            // Command title (e.g., "Parameter Import")
	Command         string            // Full command (e.g., "mcparam-cfg import tuned.yaml")
	Params          map[string]string // Parameters to display in header
	TotalSteps      int               // Total number of steps (for progress)
	StepNames       []string          // Names for each step
	Troubleshooting []string          // Tips shown when the operation fails
	Output          io.Writer         // Output writer (default: os.Stdout)
	Width           int               // Render width (default: terminal width)
}

// Runner orchestrates the UI for a multi-step command.
// It manages the header, progress, and result flow and provides
// callbacks for reporting progress.
type Runner struct {
	config    RunnerConfig
	header    *Header
	progress  *Progress
	output    io.Writer
	startTime time.Time
	width     int
}

// NewRunner creates a new runner for a command
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	width := config.Width
	if width <= 0 {
		width = GetTerminalWidth()
	}

	header := NewHeader(config.Title, config.Command, config.Params)
	header.SetWidth(width)

	var progress *Progress
	if config.TotalSteps > 0 {
		progress = NewProgress("", config.TotalSteps)
		progress.SetWidth(width)
		if len(config.StepNames) > 0 {
			progress.SetStepNames(config.StepNames)
		}
	}

	return &Runner{
		config:   config,
		header:   header,
		progress: progress,
		output:   config.Output,
		width:    width,
	}
}

// Operation is the work a Runner drives. It reports progress through onStep
// and returns the details to show in the result box. A non-nil warnings slice
// turns a success into a warning result.
type Operation func(ctx context.Context, onStep StepCallback) (details map[string]string, warnings []string, err error)

// Run prints the header, executes op, and prints the result box.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	r.startTime = time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, warnings, err := op(ctx, r.stepCallback())
	duration := time.Since(r.startTime)

	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		tips := r.config.Troubleshooting
		result := NewFailureResult(r.config.Title+" failed", err, tips).SetWidth(r.width)
		_, _ = fmt.Fprintln(r.output, result.Render())
		return err
	}

	if details == nil {
		details = make(map[string]string)
	}
	details["Duration"] = duration.Round(time.Millisecond).String()
	if r.progress != nil {
		details["Steps"] = r.progress.Summary()
	}

	var result *Result
	if len(warnings) > 0 {
		result = NewWarningResult(r.config.Title+" completed with warnings", details)
		result.Notes = warnings
	} else {
		result = NewSuccessResult(r.config.Title+" complete", details)
	}
	_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())
	return nil
}

// stepCallback prints each step as it settles
func (r *Runner) stepCallback() StepCallback {
	return func(stepNumber int, name string, status StepStatus, message string) {
		if r.progress == nil || stepNumber < 1 || stepNumber > len(r.progress.Steps) {
			return
		}

		if name != "" {
			r.progress.Steps[stepNumber-1].Name = name
		}
		r.progress.UpdateStep(stepNumber, status, message)

		step := r.progress.Steps[stepNumber-1]
		switch status {
		case StepComplete, StepFailed, StepSkipped:
			_, _ = fmt.Fprintln(r.output, r.progress.renderStepLine(step))
		case StepRunning:
			// Overwritten when the step settles
			_, _ = fmt.Fprint(r.output, r.progress.renderStepLine(step)+"\r")
		}
	}
}

// Progress returns the runner's progress tracker, or nil when the runner has no steps
func (r *Runner) Progress() *Progress {
	return r.progress
}

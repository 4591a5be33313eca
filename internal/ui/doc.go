// Package ui provides terminal UI components for the mcparam-cfg and
// mcparam-server command line tools.
//
// The components follow a "run once and exit" pattern: they render polished
// output with Lipgloss but never wait for input, except for Confirm. The
// interactive tuning screen lives in the tui package.
//
// # Components
//
//   - Header: command banner showing the operation and its target
//   - Progress: progress bar with a step list
//   - Result: success, warning and failure boxes
//   - ParamTable and CatalogTable: parameter tables built on lipgloss/table
//   - Confirm: typed confirmation before values are overwritten
//
// Runner ties Header, Progress and Result together for multi-step commands
// such as import:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:      "Parameter Import",
//	    Command:    "mcparam-cfg import tuned.yaml",
//	    Params:     map[string]string{"Server": url},
//	    TotalSteps: len(records),
//	})
//
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) (map[string]string, []string, error) {
//	    onStep(1, "MC_ROLL_P", ui.StepRunning, "")
//	    // ... apply the record ...
//	    onStep(1, "MC_ROLL_P", ui.StepComplete, "")
//	    return details, warnings, nil
//	})
//
// # Logging Integration
//
// Logging is controlled via the MCPARAM_LOG_LEVEL environment variable. When
// unset or empty, zap logging is silent so the curated UI output is displayed
// cleanly.
package ui

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/mcparam/internal/param"
	"github.com/muurk/mcparam/internal/store"
	"github.com/muurk/mcparam/internal/ui"
)

// Export command flags
var exportModified bool

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Save live parameter values to a file",
	Long: `Save every live value, in registration order, to a parameter file.

The file format follows the extension: .yaml/.yml for YAML, .db/.sqlite or a
sqlite: prefix for SQLite. An existing file is replaced.`,
	Example: `  mcparam-cfg export tuned.yaml
  mcparam-cfg export --modified overrides.yaml
  mcparam-cfg export sqlite:bench.db`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file := args[0]

	c, url, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	values, err := c.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to read parameters: %w", err)
	}
	records := make([]param.Record, 0, len(values))
	for _, v := range values {
		if exportModified && v.State != param.StateModified {
			continue
		}
		records = append(records, param.Record{Name: v.Name, Value: v.Value})
	}

	st, err := store.Open(file)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ctx, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Parameters Exported", map[string]string{
		"Server":     url,
		"File":       file,
		"Parameters": strconv.Itoa(len(records)),
	})
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load parameter values from a file into the server",
	Long: `Write every record in a parameter file to the server with import semantics:
values outside the declared bounds are clamped, records naming unknown
parameters or carrying the wrong type are skipped. A bad record never stops
the rest from loading.`,
	Example: `  mcparam-cfg import tuned.yaml
  mcparam-cfg import --yes sqlite:bench.db`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file := args[0]

	st, err := store.Open(file)
	if err != nil {
		return err
	}
	defer st.Close()
	records, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s contains no parameters", file)
	}

	c, url, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	if !assumeYes && !ui.Confirm(cmd.InOrStdin(), out, ui.ImportConfirmation(url, file, len(records))) {
		return nil
	}

	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}
	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Parameter Import",
		Command: "mcparam-cfg import " + file,
		Params: map[string]string{
			"Server":  url,
			"File":    file,
			"Records": strconv.Itoa(len(records)),
		},
		TotalSteps: len(records),
		StepNames:  names,
		Troubleshooting: []string{
			"Check that the server is still reachable",
			"Records before the failure have already been applied",
			"Run 'mcparam-cfg list --modified' to see the live state",
		},
		Output: out,
	})

	return runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) (map[string]string, []string, error) {
		var rep param.ImportReport
		for i, rec := range records {
			step := i + 1
			onStep(step, rec.Name, ui.StepRunning, "")

			applied, warn, err := c.Import(ctx, rec)
			if err != nil {
				onStep(step, rec.Name, ui.StepFailed, param.GetShortErrorMessage(err))
				return nil, nil, err
			}
			if applied {
				rep.Applied = append(rep.Applied, rec.Name)
			}
			switch {
			case warn == nil:
				onStep(step, rec.Name, ui.StepComplete, rec.Value.String())
			case applied:
				rep.Warnings = append(rep.Warnings, *warn)
				onStep(step, rec.Name, ui.StepComplete, fmt.Sprintf("clamped to %s", warn.To))
			default:
				rep.Warnings = append(rep.Warnings, *warn)
				onStep(step, rec.Name, ui.StepSkipped, warn.Kind.String())
			}
		}

		details := map[string]string{
			"Applied": strconv.Itoa(len(rep.Applied)),
			"Clamped": strconv.Itoa(rep.Clamped()),
			"Skipped": strconv.Itoa(rep.Skipped()),
		}
		var notes []string
		for _, w := range rep.Warnings {
			notes = append(notes, w.String())
		}
		return details, notes, nil
	})
}

func init() {
	exportCmd.Flags().BoolVarP(&exportModified, "modified", "m", false, "Only export parameters that differ from their default")
	importCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/mcparam/internal/client"
	"github.com/muurk/mcparam/internal/param"
	"github.com/muurk/mcparam/internal/protocol"
	"github.com/muurk/mcparam/internal/ui"
)

// paramEntry is one parameter in json and yaml listings
type paramEntry struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Value   string `json:"value" yaml:"value"`
	Default string `json:"default" yaml:"default"`
	State   string `json:"state" yaml:"state"`
	Changes uint32 `json:"changes" yaml:"changes"`
	Unit    string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Group   string `json:"group,omitempty" yaml:"group,omitempty"`
	Option  string `json:"option,omitempty" yaml:"option,omitempty"`
}

// liveParam pairs a live value with its definition
type liveParam struct {
	def   param.Definition
	value *protocol.ValueMessage
}

func (p liveParam) entry() paramEntry {
	e := paramEntry{
		Name:    p.def.Name,
		Type:    p.def.Type.String(),
		Value:   p.value.Value.String(),
		Default: p.def.Default.String(),
		State:   p.value.State.String(),
		Changes: p.value.Changes,
		Unit:    p.def.Unit,
		Group:   p.def.Group,
	}
	if i, ok := p.value.Value.AsInt32(); ok {
		if opt, ok := p.def.OptionByValue(i); ok {
			e.Option = opt.Label
		}
	}
	return e
}

func (p liveParam) row() ui.Row {
	return ui.NewRow(p.def, p.value.Value, p.value.State, uint64(p.value.Changes))
}

// fetchAll lists every value and describes each parameter
func fetchAll(ctx context.Context, c *client.Client) ([]liveParam, error) {
	values, err := c.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list parameters: %w", err)
	}
	params := make([]liveParam, 0, len(values))
	for _, v := range values {
		def, err := c.Describe(ctx, v.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to describe %s: %w", v.Name, err)
		}
		params = append(params, liveParam{def: def, value: v})
	}
	return params, nil
}

// fetchOne reads and describes a single parameter
func fetchOne(ctx context.Context, c *client.Client, name string) (liveParam, error) {
	def, err := c.Describe(ctx, name)
	if err != nil {
		return liveParam{}, err
	}
	v, err := c.Get(ctx, name)
	if err != nil {
		return liveParam{}, err
	}
	return liveParam{def: def, value: v}, nil
}

// writeStructured encodes v as json or yaml
func writeStructured(out io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

// List command flags
var (
	listModified bool
	listGroup    string
	listFormat   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List parameters and their live values",
	Long: `List every parameter in registration order with its live value, default
and change count. Modified parameters are marked with *.`,
	Example: `  mcparam-cfg list
  mcparam-cfg list --modified
  mcparam-cfg list --group attitude --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, _, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	params, err := fetchAll(ctx, c)
	if err != nil {
		return err
	}

	filtered := params[:0]
	for _, p := range params {
		if listModified && p.value.State != param.StateModified {
			continue
		}
		if listGroup != "" && p.def.Group != listGroup {
			continue
		}
		filtered = append(filtered, p)
	}

	if listFormat == "table" {
		rows := make([]ui.Row, len(filtered))
		for i, p := range filtered {
			rows[i] = p.row()
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintParams(rows)
		return nil
	}

	entries := make([]paramEntry, len(filtered))
	for i, p := range filtered {
		entries[i] = p.entry()
	}
	return writeStructured(cmd.OutOrStdout(), listFormat, entries)
}

var getCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print one parameter's live value",
	Example: `  mcparam-cfg get MC_ROLL_P
  mcparam-cfg get OMNI_ATT_MODE`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, _, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		p, err := fetchOne(ctx, c, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatValue(p.def, p.value.Value))
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Write one parameter",
	Long: `Write one parameter with set semantics: a value outside the declared bounds
or of the wrong type is rejected and the live value is left untouched.

Selector parameters accept either the option value or its label.`,
	Example: `  mcparam-cfg set MC_ROLL_P 7.25
  mcparam-cfg set OMNI_ATT_MODE "constant tilt"
  mcparam-cfg set OMNI_ATT_MODE 2`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, text := args[0], args[1]

	c, _, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	before, err := fetchOne(ctx, c, name)
	if err != nil {
		return err
	}
	v, err := before.def.ParseText(text)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", name, err)
	}
	if err := c.Set(ctx, name, v); err != nil {
		return fmt.Errorf("failed to set %s: %s", name, param.GetShortErrorMessage(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", name,
		ui.FormatValue(before.def, before.value.Value), ui.FormatValue(before.def, v))
	return nil
}

// Reset command flags
var (
	resetAll  bool
	assumeYes bool
)

var resetCmd = &cobra.Command{
	Use:   "reset [NAME]",
	Short: "Restore parameters to their defaults",
	Long: `Restore one parameter, or with --all every modified parameter, to its
declared default.`,
	Example: `  mcparam-cfg reset MC_ROLL_P
  mcparam-cfg reset --all`,
	Args: func(cmd *cobra.Command, args []string) error {
		if resetAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, url, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	if !resetAll {
		if err := c.Reset(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to reset %s: %s", args[0], param.GetShortErrorMessage(err))
		}
		fmt.Fprintf(out, "%s reset to default\n", args[0])
		return nil
	}

	values, err := c.List(ctx)
	if err != nil {
		return err
	}
	var modified []string
	for _, v := range values {
		if v.State == param.StateModified {
			modified = append(modified, v.Name)
		}
	}
	if len(modified) == 0 {
		fmt.Fprintln(out, "All parameters are at their defaults")
		return nil
	}
	if !assumeYes && !ui.Confirm(cmd.InOrStdin(), out, ui.ResetAllConfirmation(url, len(modified))) {
		return nil
	}

	for _, name := range modified {
		if err := c.Reset(ctx, name); err != nil {
			return fmt.Errorf("failed to reset %s: %w", name, err)
		}
	}
	ui.NewPrinter(out).PrintSuccess("Parameters Reset", map[string]string{
		"Server": url,
		"Reset":  strconv.Itoa(len(modified)),
	})
	return nil
}

var describeCmd = &cobra.Command{
	Use:     "describe NAME",
	Short:   "Show a parameter's declaration",
	Example: `  mcparam-cfg describe OMNI_ATT_MODE`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, _, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		p, err := fetchOne(ctx, c, args[0])
		if err != nil {
			return err
		}

		details := map[string]string{
			"Type":    p.def.Type.String(),
			"Value":   ui.FormatValue(p.def, p.value.Value),
			"Default": ui.FormatValue(p.def, p.def.Default),
			"Range":   ui.RangeText(p.def),
			"State":   p.value.State.String(),
			"Changes": strconv.FormatUint(uint64(p.value.Changes), 10),
		}
		if p.def.Unit != "" {
			details["Unit"] = p.def.Unit
		}
		if p.def.Group != "" {
			details["Group"] = p.def.Group
		}
		if p.def.Short != "" {
			details["Summary"] = p.def.Short
		}

		out := cmd.OutOrStdout()
		ui.NewPrinter(out).PrintSuccess(p.def.Name, details)
		if p.def.IsSelector() {
			rows := make([][]string, len(p.def.Options))
			for i, opt := range p.def.Options {
				rows[i] = []string{strconv.Itoa(int(opt.Value)), opt.Label}
			}
			fmt.Fprintln(out, ui.SimpleTable([]string{"VALUE", "OPTION"}, rows))
		}
		if p.def.Long != "" {
			fmt.Fprintln(out, p.def.Long)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listModified, "modified", "m", false, "Only list parameters that differ from their default")
	listCmd.Flags().StringVarP(&listGroup, "group", "g", "", "Only list parameters in this group")
	listCmd.Flags().StringVarP(&listFormat, "format", "o", "table", "Output format (table, json, yaml)")

	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Reset every modified parameter")
	resetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(describeCmd)
}

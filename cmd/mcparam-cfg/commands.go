package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/mcparam/internal/client"
	"github.com/muurk/mcparam/internal/discovery"
	"github.com/muurk/mcparam/internal/tui"
	"github.com/muurk/mcparam/internal/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover tuning servers on the local network",
	Long: `Browse multicast DNS for mcparam-server instances and print their
tuning link URLs.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	if settings != nil {
		scanner.Timeout = settings.Discovery.ScanTimeout
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning for %s (%s)...\n\n", discovery.ServiceType, scanner.Timeout)

	endpoints, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	if len(endpoints) == 0 {
		ui.NewPrinter(out).PrintWarning("No Servers Found", nil,
			"Check that mcparam-server is running without --no-mdns",
			"Multicast DNS does not cross routers; use --server for remote hosts",
		)
		return nil
	}

	rows := make([][]string, len(endpoints))
	for i, ep := range endpoints {
		rows[i] = []string{
			ep.Instance,
			ep.URL(),
			ep.GetMetadata(discovery.TXTParams),
			ep.GetMetadata(discovery.TXTVersion),
		}
	}
	fmt.Fprintln(out, ui.SimpleTable([]string{"INSTANCE", "URL", "PARAMS", "VERSION"}, rows))
	fmt.Fprintf(out, "\n%s server(s) found\n", strconv.Itoa(len(endpoints)))
	return nil
}

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Launch the interactive tuning console",
	Long: `Launch the full-screen tuning console. Values update live as any client
changes them.

With --server (or a configured client.server) the console opens directly on
that server; otherwise it starts on the discovery screen.`,
	Args: cobra.NoArgs,
	RunE: runTune,
}

func runTune(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("the tuning console needs an interactive terminal; use the list and set commands instead")
	}

	scanner := discovery.NewScanner()
	if settings != nil {
		scanner.Timeout = settings.Discovery.ScanTimeout
	}
	cfg := tui.Config{
		Scanner: scanner,
		Dial: func(ctx context.Context, url string) (tui.Tuner, error) {
			c, err := client.DialConfig(ctx, url, dialConfig())
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}

	url := serverURL
	if url == "" && settings != nil {
		url = settings.Client.Server
	}
	if url != "" {
		c, err := client.DialConfig(cmd.Context(), url, dialConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", url, err)
		}
		cfg.Tuner = c
		cfg.URL = url
	}

	return tui.Run(cfg)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(tuneCmd)
}

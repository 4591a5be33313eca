// Mcparam-server hosts the attitude-control parameter registry.
//
// It registers the built-in parameter table plus any HCL declaration files,
// restores persisted values, and serves the registry over the WebSocket
// tuning link and a read-only JSON API. The server advertises itself with
// multicast DNS so mcparam-cfg can find it without an address.
//
// Usage:
//
//	mcparam-server serve [flags]
//	mcparam-server catalog [flags]
//
// See 'mcparam-server --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mcparam-server",
	Short: "Multicopter parameter server",
	Long: `Hosts the typed parameter registry of a multicopter attitude controller.

Parameters are declared by the built-in attitude-control table and optional
HCL declaration files. Values persist to a YAML file or SQLite database and are
tuned live over a WebSocket link.

For tuning from a workstation, use the separate 'mcparam-cfg' utility.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: user config directory)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		for _, line := range version.Details("mcparam-server") {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
	},
}

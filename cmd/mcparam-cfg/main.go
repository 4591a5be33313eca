// Mcparam-cfg is the workstation tuning utility for mcparam-server.
//
// It discovers servers with multicast DNS, reads and writes parameters over
// the tuning link, moves parameter sets between servers and files, and hosts
// the full-screen tuning console.
//
// Usage:
//
//	mcparam-cfg [command] [flags]
//
// Running without arguments launches the tuning console.
// See 'mcparam-cfg --help' for available commands.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/mcparam/internal/client"
	"github.com/muurk/mcparam/internal/config"
	"github.com/muurk/mcparam/internal/discovery"
	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mcparam-cfg",
	Short: "Multicopter parameter tuning utility",
	Long: `A workstation utility for tuning a running mcparam-server.

Reads and writes attitude-control parameters over the tuning link, exports
and imports parameter sets, and hosts an interactive tuning console.

The server is taken from --server, then the client.server setting, and is
otherwise discovered with multicast DNS.

If no command is specified, the tuning console will launch automatically.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the console when no subcommand provided
		return runTune(cmd, args)
	},
}

// Global flags
var (
	serverURL  string
	instance   string
	configPath string
	timeout    time.Duration
	insecure   bool
	logLevel   string
)

// settings is loaded once per invocation by setup
var settings *config.Settings

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&serverURL, "server", "s", "", "Tuning link URL (e.g., ws://192.168.1.20:14560/ws)")
	pf.StringVar(&instance, "instance", "", "Discover the server advertised under this instance name")
	pf.StringVar(&configPath, "config", "", "Settings file (default: user config directory)")
	pf.DurationVar(&timeout, "timeout", client.DefaultTimeout, "Per-request timeout")
	pf.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification for wss:// servers")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")

	rootCmd.AddCommand(versionCmd)
}

// setup loads settings and logging before any command runs
func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}
	s, err := config.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		s.LogLevel = logLevel
	}
	settings = s
	return logging.Initialize(s.LogLevel)
}

// resolveServer picks the tuning link URL: flag, then settings, then mDNS
func resolveServer(ctx context.Context) (string, error) {
	if serverURL != "" {
		return serverURL, nil
	}
	if settings != nil && settings.Client.Server != "" {
		return settings.Client.Server, nil
	}

	scanner := discovery.NewScanner()
	if settings != nil {
		scanner.Timeout = settings.Discovery.ScanTimeout
	}

	if instance != "" {
		ep, err := scanner.Find(ctx, instance)
		if err != nil {
			return "", fmt.Errorf("failed to find server %q: %w", instance, err)
		}
		return ep.URL(), nil
	}

	endpoints, err := scanner.Scan(ctx)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	switch len(endpoints) {
	case 0:
		return "", fmt.Errorf("no servers found on the local network; use --server")
	case 1:
		logging.Debug("Discovered server", zap.String("endpoint", endpoints[0].String()))
		return endpoints[0].URL(), nil
	default:
		return "", fmt.Errorf("%d servers found; pick one with --instance or --server", len(endpoints))
	}
}

// dialConfig builds client options from the global flags
func dialConfig() client.Config {
	cfg := client.Config{Timeout: timeout}
	if insecure {
		cfg.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return cfg
}

// connect resolves the server and opens a tuning link to it
func connect(ctx context.Context) (*client.Client, string, error) {
	url, err := resolveServer(ctx)
	if err != nil {
		return nil, "", err
	}
	c, err := client.DialConfig(ctx, url, dialConfig())
	if err != nil {
		return nil, url, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return c, url, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		for _, line := range version.Details("mcparam-cfg") {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
	},
}

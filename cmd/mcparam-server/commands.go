package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/mcparam/internal/catalog"
	"github.com/muurk/mcparam/internal/config"
	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
	"github.com/muurk/mcparam/internal/protocol"
	"github.com/muurk/mcparam/internal/server"
	"github.com/muurk/mcparam/internal/store"
	"github.com/muurk/mcparam/internal/ui"
)

// Serve command flags
var (
	defFiles   []string
	storePath  string
	host       string
	port       int
	certPath   string
	keyPath    string
	noMDNS     bool
	instance   string
	logLevel   string
	noStore    bool
	selfSigned bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tuning server",
	Long: `Start the parameter server.

Startup registers the built-in attitude-control parameters and every --defs
file; a duplicate name or an invalid default aborts startup. Values are then
restored from the store with import semantics: out-of-range values are clamped,
unknown names and mismatched types are skipped and logged.

Settings come from the config file, then .env and MCPARAM_* environment
variables, then flags.`,
	Example: `  # Serve the built-in table with the default store
  mcparam-server serve

  # Add rate-controller parameters and keep values in SQLite
  mcparam-server serve --defs rate.hcl --store /var/lib/mcparam/params.db

  # Serve over TLS without multicast DNS
  mcparam-server serve --cert cert.pem --key key.pem --no-mdns

  # Bench setup with a throwaway certificate (clients need --insecure)
  mcparam-server serve --self-signed`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringSliceVar(&defFiles, "defs", nil, "HCL declaration files to register after the built-in table")
	f.StringVar(&storePath, "store", "", "Parameter store (.yaml, .db, or sqlite:<path>)")
	f.BoolVar(&noStore, "no-store", false, "Run without persistence")
	f.StringVar(&host, "host", config.DefaultHost, "Listen address")
	f.IntVar(&port, "port", config.DefaultPort, "Listen port")
	f.StringVar(&certPath, "cert", "", "TLS certificate file")
	f.StringVar(&keyPath, "key", "", "TLS private key file")
	f.BoolVar(&selfSigned, "self-signed", false, "Serve TLS with a generated certificate when --cert/--key are not set")
	f.BoolVar(&noMDNS, "no-mdns", false, "Do not advertise with multicast DNS")
	f.StringVar(&instance, "instance", config.DefaultInstance, "Multicast DNS instance name")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// loadSettings reads the settings file and environment
func loadSettings() (*config.Settings, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// applyServeFlags lets explicit flags win over file and environment
func applyServeFlags(cmd *cobra.Command, s *config.Settings) {
	f := cmd.Flags()
	if f.Changed("defs") {
		s.Definitions = defFiles
	}
	if f.Changed("store") {
		s.Store.Path = storePath
	}
	if f.Changed("host") {
		s.Server.Host = host
	}
	if f.Changed("port") {
		s.Server.Port = port
	}
	if f.Changed("cert") {
		s.Server.CertFile = certPath
	}
	if f.Changed("key") {
		s.Server.KeyFile = keyPath
	}
	if noMDNS {
		s.Discovery.Advertise = false
	}
	if f.Changed("instance") {
		s.Discovery.Instance = instance
	}
	if f.Changed("log-level") || s.LogLevel == "" {
		s.LogLevel = logLevel
	}
}

// buildRegistry registers the built-in table and the declaration files
func buildRegistry(files []string) (*param.Registry, error) {
	reg := param.NewRegistry()
	if err := catalog.Register(reg); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return reg, nil
	}
	defs, err := catalog.LoadHCL(files...)
	if err != nil {
		return nil, err
	}
	if err := reg.RegisterAll(defs); err != nil {
		return nil, err
	}
	return reg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, settings)
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := logging.Initialize(settings.LogLevel); err != nil {
		return err
	}

	reg, err := buildRegistry(settings.Definitions)
	if err != nil {
		return fmt.Errorf("failed to register parameters: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []server.Option
	storeDesc := "disabled"
	if !noStore {
		path, err := settings.StorePath()
		if err != nil {
			return err
		}
		st, err := store.Open(path)
		if err != nil {
			return err
		}
		defer st.Close()

		rep, err := store.LoadInto(ctx, st, reg, path)
		if err != nil {
			return err
		}
		storeDesc = fmt.Sprintf("%s (%d restored, %d warning(s))", path, len(rep.Applied), len(rep.Warnings))

		if settings.Store.Autosave {
			opts = append(opts, server.WithAutosaver(store.NewAutosaver(st, reg, settings.Store.AutosaveDelay)))
		} else {
			// Without autosave, values are written once on shutdown
			defer func() {
				if err := store.SaveFrom(context.Background(), st, reg); err != nil {
					logging.Error("Failed to save parameters", zap.Error(err))
				}
			}()
		}
	}

	tlsEnabled := settings.Server.TLSEnabled()
	if selfSigned && !tlsEnabled {
		hostname, _ := os.Hostname()
		tlsConfig, err := server.SelfSignedTLSConfig(settings.Server.Host, hostname, hostname+".local")
		if err != nil {
			return err
		}
		opts = append(opts, server.WithTLSConfig(tlsConfig))
		tlsEnabled = true
	}

	srv, err := server.New(server.Config{
		Host:      settings.Server.Host,
		Port:      settings.Server.Port,
		CertPath:  settings.Server.CertFile,
		KeyPath:   settings.Server.KeyFile,
		Advertise: settings.Discovery.Advertise,
		Instance:  settings.Discovery.Instance,
	}, reg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	scheme := "ws"
	if tlsEnabled {
		scheme = "wss"
	}
	mdns := "off"
	if settings.Discovery.Advertise {
		mdns = settings.Discovery.Instance
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintHeader("Parameter Server", "mcparam-server serve", map[string]string{
		"Listen":     fmt.Sprintf("%s://%s:%d/ws", scheme, settings.Server.Host, settings.Server.Port),
		"Parameters": strconv.Itoa(reg.Len()),
		"Store":      storeDesc,
		"mDNS":       mdns,
	})

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Catalog command flags
var catalogFormat string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the declared parameters",
	Long: `Print every parameter the server would register: the built-in attitude
table followed by the --defs files, with defaults, bounds and options.

Declaration defects are reported exactly as serve would report them.`,
	Example: `  mcparam-server catalog
  mcparam-server catalog --defs rate.hcl --format yaml`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().StringSliceVar(&defFiles, "defs", nil, "HCL declaration files to register after the built-in table")
	catalogCmd.Flags().StringVar(&catalogFormat, "format", "table", "Output format (table, json, yaml)")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	files := defFiles
	if !cmd.Flags().Changed("defs") {
		if settings, err := loadSettings(); err == nil {
			files = settings.Definitions
		}
	}

	reg, err := buildRegistry(files)
	if err != nil {
		return err
	}
	defs := reg.Definitions()
	out := cmd.OutOrStdout()

	switch catalogFormat {
	case "table":
		ui.NewPrinter(out).PrintCatalog(defs)
		return nil
	case "json", "yaml":
		descs := make([]protocol.Descriptor, len(defs))
		for i, def := range defs {
			descs[i] = protocol.DescribeDefinition(def)
		}
		if catalogFormat == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(descs)
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(descs); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", catalogFormat)
	}
}

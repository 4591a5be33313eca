package config

import "time"

// Default values for a fresh Settings
const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 14560
	DefaultAutosaveDelay = 300 * time.Millisecond
	DefaultInstance      = "mcparam"
	DefaultScanTimeout   = 5 * time.Second
)

// Settings represents the entire user configuration file.
type Settings struct {
	Version     int                `yaml:"version"`
	Server      *ServerSettings    `yaml:"server,omitempty"`
	Store       *StoreSettings     `yaml:"store,omitempty"`
	Discovery   *DiscoverySettings `yaml:"discovery,omitempty"`
	Client      *ClientSettings    `yaml:"client,omitempty"`
	Definitions []string           `yaml:"definitions,omitempty"` // Extra HCL declaration files
	LogLevel    string             `yaml:"log_level,omitempty"`
}

// ServerSettings configures the tuning server listener.
type ServerSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	CertFile string `yaml:"cert_file,omitempty"` // TLS is enabled when both are set
	KeyFile  string `yaml:"key_file,omitempty"`
}

// StoreSettings configures the non-volatile parameter store.
type StoreSettings struct {
	Path          string        `yaml:"path,omitempty"` // .yaml/.yml or .db/.sqlite; empty means the default path
	Autosave      bool          `yaml:"autosave"`
	AutosaveDelay time.Duration `yaml:"autosave_delay"`
}

// DiscoverySettings configures mDNS advertisement and scanning.
type DiscoverySettings struct {
	Advertise   bool          `yaml:"advertise"`
	Instance    string        `yaml:"instance"`
	ScanTimeout time.Duration `yaml:"scan_timeout"`
}

// ClientSettings holds tuning client preferences.
type ClientSettings struct {
	Server string `yaml:"server,omitempty"` // ws:// URL; empty means discover
}

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	s := &Settings{Version: 1}
	s.fillDefaults()
	return s
}

// fillDefaults initializes missing sections after a partial file is loaded.
func (s *Settings) fillDefaults() {
	if s.Server == nil {
		s.Server = &ServerSettings{Host: DefaultHost, Port: DefaultPort}
	}
	if s.Store == nil {
		s.Store = &StoreSettings{Autosave: true, AutosaveDelay: DefaultAutosaveDelay}
	}
	if s.Discovery == nil {
		s.Discovery = &DiscoverySettings{Advertise: true, Instance: DefaultInstance, ScanTimeout: DefaultScanTimeout}
	}
	if s.Client == nil {
		s.Client = &ClientSettings{}
	}
}

// TLSEnabled reports whether both certificate and key are configured.
func (s *ServerSettings) TLSEnabled() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "mcparam"
	configFile = "config.yaml"
	storeFile  = "params.yaml"
)

var (
	// Global settings instance (loaded lazily)
	globalSettings     *Settings
	globalSettingsOnce sync.Once
	globalSettingsErr  error

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/mcparam or $HOME/.config/mcparam
//   - macOS: $HOME/.config/mcparam (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\mcparam
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			// Fallback to USERPROFILE\AppData\Local if LOCALAPPDATA not set
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// DefaultStorePath returns the parameter store used when none is configured.
func DefaultStorePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, storeFile), nil
}

// EnsureDir creates dir with user-only permissions if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// LoadSettings loads the settings file from the default location, then applies
// .env and MCPARAM_* environment overrides.
// Thread-safe - multiple calls will return the same instance.
func LoadSettings() (*Settings, error) {
	globalSettingsOnce.Do(func() {
		var path string
		path, globalSettingsErr = GetConfigPath()
		if globalSettingsErr != nil {
			globalSettingsErr = fmt.Errorf("failed to get config path: %w", globalSettingsErr)
			return
		}
		globalSettings, globalSettingsErr = Load(path)
	})
	return globalSettings, globalSettingsErr
}

// ReloadSettings reloads the settings from disk, discarding in-memory changes.
func ReloadSettings() (*Settings, error) {
	fileMutex.Lock()
	globalSettingsOnce = sync.Once{}
	fileMutex.Unlock()
	return LoadSettings()
}

// Load reads settings from path and applies environment overrides.
// A missing file yields default settings.
func Load(path string) (*Settings, error) {
	s, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := s.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads settings from path without environment overrides.
// If the file doesn't exist, returns default settings.
func LoadFile(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if s.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", s.Version)
	}

	s.fillDefaults()
	return &s, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", s.Server.Port)
	}
	if (s.Server.CertFile == "") != (s.Server.KeyFile == "") {
		return fmt.Errorf("config: cert_file and key_file must be set together")
	}
	if s.Store.AutosaveDelay < 0 {
		return fmt.Errorf("config: autosave_delay must not be negative")
	}
	if s.Discovery.ScanTimeout <= 0 {
		return fmt.Errorf("config: scan_timeout must be positive")
	}
	return nil
}

// StorePath returns the configured store path or the default one.
func (s *Settings) StorePath() (string, error) {
	if s.Store.Path != "" {
		return s.Store.Path, nil
	}
	return DefaultStorePath()
}

// Save writes the settings to path.
// Performs an atomic write to prevent corruption on crash.
func (s *Settings) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# mcparam Configuration File
# Tuning server, parameter store and discovery settings.
# MCPARAM_* environment variables override values in this file.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	// Atomic rename (this is atomic on all platforms)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// SaveDefault writes the settings to the default config path.
func (s *Settings) SaveDefault() error {
	path, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return s.Save(path)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override the settings file
const (
	EnvHost          = "MCPARAM_HOST"
	EnvPort          = "MCPARAM_PORT"
	EnvCertFile      = "MCPARAM_TLS_CERT"
	EnvKeyFile       = "MCPARAM_TLS_KEY"
	EnvStore         = "MCPARAM_STORE"
	EnvAutosave      = "MCPARAM_AUTOSAVE"
	EnvAutosaveDelay = "MCPARAM_AUTOSAVE_DELAY"
	EnvDefinitions   = "MCPARAM_DEFS" // comma separated
	EnvAdvertise     = "MCPARAM_MDNS"
	EnvInstance      = "MCPARAM_INSTANCE"
	EnvScanTimeout   = "MCPARAM_SCAN_TIMEOUT"
	EnvServer        = "MCPARAM_SERVER"
	EnvLogLevel      = "MCPARAM_LOG_LEVEL"
)

// LoadDotEnv loads .env files into the process environment without
// overwriting variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings with MCPARAM_* environment variables.
// Malformed numeric, boolean or duration values are reported.
func (s *Settings) ApplyEnv() error {
	s.fillDefaults()

	s.Server.Host = envStr(EnvHost, s.Server.Host)
	s.Server.CertFile = envStr(EnvCertFile, s.Server.CertFile)
	s.Server.KeyFile = envStr(EnvKeyFile, s.Server.KeyFile)
	s.Store.Path = envStr(EnvStore, s.Store.Path)
	s.Discovery.Instance = envStr(EnvInstance, s.Discovery.Instance)
	s.Client.Server = envStr(EnvServer, s.Client.Server)
	s.LogLevel = envStr(EnvLogLevel, s.LogLevel)

	if v := os.Getenv(EnvDefinitions); v != "" {
		s.Definitions = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				s.Definitions = append(s.Definitions, p)
			}
		}
	}

	var err error
	if s.Server.Port, err = envInt(EnvPort, s.Server.Port); err != nil {
		return err
	}
	if s.Store.Autosave, err = envBool(EnvAutosave, s.Store.Autosave); err != nil {
		return err
	}
	if s.Store.AutosaveDelay, err = envDuration(EnvAutosaveDelay, s.Store.AutosaveDelay); err != nil {
		return err
	}
	if s.Discovery.Advertise, err = envBool(EnvAdvertise, s.Discovery.Advertise); err != nil {
		return err
	}
	if s.Discovery.ScanTimeout, err = envDuration(EnvScanTimeout, s.Discovery.ScanTimeout); err != nil {
		return err
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	require.NoError(t, err)
	assert.NotEmpty(t, configDir)
	assert.Contains(t, configDir, "mcparam")

	switch runtime.GOOS {
	case "windows":
		assert.True(t, strings.Contains(configDir, "AppData") || strings.Contains(configDir, "Local"))
	case "darwin", "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" {
			assert.Contains(t, configDir, ".config")
		}
	}
}

func TestGetConfigDirHonorsXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mcparam"), got)

	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", filepath.Base(path))

	store, err := DefaultStorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mcparam", "params.yaml"), store)
}

func TestNewSettings(t *testing.T) {
	s := NewSettings()
	assert.Equal(t, 1, s.Version)
	assert.Equal(t, DefaultHost, s.Server.Host)
	assert.Equal(t, DefaultPort, s.Server.Port)
	assert.True(t, s.Store.Autosave)
	assert.Equal(t, DefaultAutosaveDelay, s.Store.AutosaveDelay)
	assert.True(t, s.Discovery.Advertise)
	assert.False(t, s.Server.TLSEnabled())
	assert.NoError(t, s.Validate())
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := NewSettings()
	s.Server.Port = 15000
	s.Store.Path = "/var/lib/mcparam/params.db"
	s.Store.AutosaveDelay = time.Second
	s.Definitions = []string{"rate.hcl"}
	require.NoError(t, s.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# mcparam Configuration File"))
	assert.NoFileExists(t, path+".tmp")

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 15000, loaded.Server.Port)
	assert.Equal(t, "/var/lib/mcparam/params.db", loaded.Store.Path)
	assert.Equal(t, time.Second, loaded.Store.AutosaveDelay)
	assert.Equal(t, []string{"rate.hcl"}, loaded.Definitions)
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, s.Server.Port)
}

func TestLoadFilePartialFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nlog_level: debug\n"), 0600))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	require.NotNil(t, s.Server)
	assert.Equal(t, DefaultPort, s.Server.Port)
}

func TestLoadFileRejectsBadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 2\n"), 0600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPort, "15001")
	t.Setenv(EnvStore, "sqlite:/tmp/p.db")
	t.Setenv(EnvAutosave, "false")
	t.Setenv(EnvAutosaveDelay, "2s")
	t.Setenv(EnvDefinitions, "a.hcl, b.hcl,")
	t.Setenv(EnvAdvertise, "0")
	t.Setenv(EnvServer, "ws://10.0.0.2:14560/ws")

	s := NewSettings()
	require.NoError(t, s.ApplyEnv())

	assert.Equal(t, 15001, s.Server.Port)
	assert.Equal(t, "sqlite:/tmp/p.db", s.Store.Path)
	assert.False(t, s.Store.Autosave)
	assert.Equal(t, 2*time.Second, s.Store.AutosaveDelay)
	assert.Equal(t, []string{"a.hcl", "b.hcl"}, s.Definitions)
	assert.False(t, s.Discovery.Advertise)
	assert.Equal(t, "ws://10.0.0.2:14560/ws", s.Client.Server)
}

func TestApplyEnvRejectsMalformed(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvPort, "many"},
		{EnvAutosave, "perhaps"},
		{EnvAutosaveDelay, "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := NewSettings().ApplyEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("MCPARAM_INSTANCE=bench-quad\n"), 0600))

	// godotenv sets the variable for the whole process; register cleanup first.
	t.Setenv(EnvInstance, "")
	require.NoError(t, os.Unsetenv(EnvInstance))

	require.NoError(t, LoadDotEnv(envPath, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "bench-quad", os.Getenv(EnvInstance))

	s := NewSettings()
	require.NoError(t, s.ApplyEnv())
	assert.Equal(t, "bench-quad", s.Discovery.Instance)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"port zero", func(s *Settings) { s.Server.Port = 0 }, "port"},
		{"port too large", func(s *Settings) { s.Server.Port = 70000 }, "port"},
		{"cert without key", func(s *Settings) { s.Server.CertFile = "c.pem" }, "together"},
		{"negative delay", func(s *Settings) { s.Store.AutosaveDelay = -time.Second }, "autosave_delay"},
		{"zero scan timeout", func(s *Settings) { s.Discovery.ScanTimeout = 0 }, "scan_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStorePath(t *testing.T) {
	s := NewSettings()
	s.Store.Path = "custom.yaml"
	p, err := s.StorePath()
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", p)
}

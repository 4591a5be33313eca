package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/mcparam/internal/catalog"
	"github.com/muurk/mcparam/internal/client"
	"github.com/muurk/mcparam/internal/param"
	"github.com/muurk/mcparam/internal/server"
)

func startServer(t *testing.T) (string, *param.Registry) {
	t.Helper()
	t.Setenv("MCPARAM_SERVER", "")

	reg := param.NewRegistry()
	require.NoError(t, catalog.Register(reg))
	srv, err := server.New(server.Config{}, reg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws", reg
}

// execute runs the root command with fresh flag values
func execute(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()

	serverURL, instance, logLevel = "", "", ""
	timeout, insecure = client.DefaultTimeout, false
	listModified, listGroup, listFormat = false, "", "table"
	resetAll, assumeYes, exportModified = false, false, false
	settings = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	full := append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml"), "--server", url}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListJSON(t *testing.T) {
	url, reg := startServer(t)
	require.NoError(t, reg.Set(catalog.RollP, param.Float(7.5)))

	out, err := execute(t, url, "list", "--format", "json")
	require.NoError(t, err)

	var entries []paramEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, reg.Len())
	assert.Equal(t, reg.Names()[0], entries[0].Name)

	for _, e := range entries {
		if e.Name == catalog.RollP {
			assert.Equal(t, "7.5", e.Value)
			assert.Equal(t, "modified", e.State)
			assert.Equal(t, uint32(1), e.Changes)
		}
		if e.Name == catalog.AttMode {
			assert.Equal(t, "tilted attitude", e.Option)
		}
	}
}

func TestListModifiedOnly(t *testing.T) {
	url, reg := startServer(t)
	require.NoError(t, reg.Set(catalog.YawP, param.Float(3)))

	out, err := execute(t, url, "list", "--modified", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: "+catalog.YawP)
	assert.NotContains(t, out, catalog.RollP)
}

func TestSetAndGet(t *testing.T) {
	url, reg := startServer(t)

	out, err := execute(t, url, "set", catalog.RollP, "7.25")
	require.NoError(t, err)
	assert.Contains(t, out, "->")

	roll, err := reg.Float(catalog.RollP)
	require.NoError(t, err)
	assert.Equal(t, float32(7.25), roll)

	out, err = execute(t, url, "get", catalog.RollP)
	require.NoError(t, err)
	assert.Contains(t, out, "7.25")
}

func TestSetSelectorByLabel(t *testing.T) {
	url, reg := startServer(t)

	_, err := execute(t, url, "set", catalog.AttMode, "constant tilt")
	require.NoError(t, err)

	mode, err := catalog.CurrentMode(reg)
	require.NoError(t, err)
	assert.Equal(t, catalog.ModeConstantTilt, mode)
}

func TestSetRejected(t *testing.T) {
	url, reg := startServer(t)

	_, err := execute(t, url, "set", catalog.RollP, "50")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "above max")

	_, err = execute(t, url, "set", catalog.RollP, "fast")
	require.Error(t, err)

	state, err := reg.State(catalog.RollP)
	require.NoError(t, err)
	assert.Equal(t, param.StateDefault, state)
}

func TestResetAll(t *testing.T) {
	url, reg := startServer(t)
	require.NoError(t, reg.Set(catalog.RollP, param.Float(7)))
	require.NoError(t, reg.Set(catalog.PitchP, param.Float(7)))

	_, err := execute(t, url, "reset", "--all", "--yes")
	require.NoError(t, err)

	for _, name := range []string{catalog.RollP, catalog.PitchP} {
		state, err := reg.State(name)
		require.NoError(t, err)
		assert.Equal(t, param.StateDefault, state, name)
	}
}

func TestResetAllDeclined(t *testing.T) {
	url, reg := startServer(t)
	require.NoError(t, reg.Set(catalog.RollP, param.Float(7)))

	// Empty stdin never types the phrase
	out, err := execute(t, url, "reset", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")

	state, _ := reg.State(catalog.RollP)
	assert.Equal(t, param.StateModified, state)
}

func TestExportThenImport(t *testing.T) {
	url, reg := startServer(t)
	require.NoError(t, reg.Set(catalog.RollP, param.Float(8)))
	require.NoError(t, catalog.SetMode(reg, catalog.ModeEstimateTilt))

	file := filepath.Join(t.TempDir(), "tuned.yaml")
	_, err := execute(t, url, "export", "--modified", file)
	require.NoError(t, err)

	reg.ResetAll()

	out, err := execute(t, url, "import", "--yes", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Parameter Import complete")

	roll, _ := reg.Float(catalog.RollP)
	assert.Equal(t, float32(8), roll)
	mode, _ := catalog.CurrentMode(reg)
	assert.Equal(t, catalog.ModeEstimateTilt, mode)
}

func TestImportDeclined(t *testing.T) {
	url, reg := startServer(t)
	require.NoError(t, reg.Set(catalog.RollP, param.Float(8)))

	file := filepath.Join(t.TempDir(), "tuned.yaml")
	_, err := execute(t, url, "export", "--modified", file)
	require.NoError(t, err)
	reg.ResetAll()

	out, err := execute(t, url, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Operation cancelled.")
	assert.NotContains(t, out, "Parameter Import complete")

	roll, _ := reg.Float(catalog.RollP)
	assert.Equal(t, float32(6.5), roll)
}

func TestDescribeSelector(t *testing.T) {
	url, _ := startServer(t)

	out, err := execute(t, url, "describe", catalog.AttMode)
	require.NoError(t, err)
	assert.Contains(t, out, "constant roll/pitch")
	assert.Contains(t, out, "int32")
}

func TestUnknownParameter(t *testing.T) {
	url, _ := startServer(t)

	_, err := execute(t, url, "get", "MC_GHOST")
	require.Error(t, err)
	assert.True(t, param.IsUnknown(err))
}

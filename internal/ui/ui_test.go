package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/mcparam/internal/param"
)

func modeDef() param.Definition {
	return param.Definition{
		Name:    "OMNI_ATT_MODE",
		Type:    param.TypeInt32,
		Default: param.Int32(0),
		Bounds:  param.Int32Range(0, 1),
		Options: []param.Option{{Value: 0, Label: "tilted"}, {Value: 1, Label: "constant tilt"}},
	}
}

func TestFormatValue(t *testing.T) {
	roll := param.Definition{Name: "MC_ROLL_P", Type: param.TypeFloat, Default: param.Float(6.5), Decimal: 2}

	tests := []struct {
		name string
		def  param.Definition
		v    param.Value
		want string
	}{
		{"decimals", roll, param.Float(7.125), "7.12"},
		{"selector label", modeDef(), param.Int32(1), "1 (constant tilt)"},
		{"undeclared option", modeDef(), param.Int32(5), "5"},
		{"bool", param.Definition{Type: param.TypeBool}, param.Bool(true), "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.def, tt.v))
		})
	}
}

func TestRangeText(t *testing.T) {
	assert.Equal(t, "0 .. 1", RangeText(modeDef()))
	assert.Equal(t, "true/false", RangeText(param.Definition{Type: param.TypeBool}))
	assert.Equal(t, "-", RangeText(param.Definition{Type: param.TypeFloat}))
}

func TestParamTableMarksModified(t *testing.T) {
	out := ParamTable([]Row{
		NewRow(modeDef(), param.Int32(1), param.StateModified, 3),
		{Name: "MC_ROLL_P", Value: "6.5", Default: "6.5"},
	})
	assert.Contains(t, out, "OMNI_ATT_MODE "+ModifiedMarker)
	assert.Contains(t, out, "constant tilt")
	assert.Contains(t, out, "MC_ROLL_P")
	assert.NotContains(t, out, "MC_ROLL_P "+ModifiedMarker)
}

func TestCatalogTable(t *testing.T) {
	def := modeDef()
	def.Short = "Attitude mode"
	out := CatalogTable([]param.Definition{def})
	assert.Contains(t, out, "OMNI_ATT_MODE")
	assert.Contains(t, out, "int32")
	assert.Contains(t, out, "Attitude mode")
}

func TestResultDetailsAreSorted(t *testing.T) {
	out := NewSuccessResult("Import complete", map[string]string{
		"Skipped": "1",
		"Applied": "14",
	}).SetWidth(80).Render()
	assert.Less(t, strings.Index(out, "Applied"), strings.Index(out, "Skipped"))
}

func TestHeaderParamsAreSorted(t *testing.T) {
	out := NewHeader("Export", "mcparam-cfg export", map[string]string{
		"Server": "ws://a",
		"File":   "out.yaml",
	}).SetWidth(80).Render()
	assert.Less(t, strings.Index(out, "File"), strings.Index(out, "Server"))
	assert.Contains(t, out, "File:   out.yaml")
}

func TestHeaderNarrow(t *testing.T) {
	out := NewHeader("Export", "mcparam-cfg export", map[string]string{"Server": "ws://a"}).
		SetWidth(40).Render()
	assert.NotContains(t, out, "╭")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "EXPORT", strings.TrimSpace(lines[0]))
	assert.Equal(t, "Server: ws://a", strings.TrimSpace(lines[2]))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"reset\n", true},
		{"  reset  \n", true},
		{"reset", true},
		{"yes\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, ResetAllConfirmation("ws://a", 2))
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "RESET ALL PARAMETERS")
		if !tt.want {
			assert.Contains(t, out.String(), "Operation cancelled.", "input %q", tt.input)
		}
	}
}

func TestRunner(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(RunnerConfig{
		Title:      "Parameter Import",
		Command:    "mcparam-cfg import p.yaml",
		TotalSteps: 2,
		Output:     &out,
		Width:      100,
	})

	err := r.Run(t.Context(), func(_ context.Context, onStep StepCallback) (map[string]string, []string, error) {
		onStep(1, "MC_ROLL_P", StepComplete, "")
		onStep(2, "MC_GHOST", StepSkipped, "unknown parameter")
		return map[string]string{"Applied": "1"}, []string{"MC_GHOST: unknown parameter"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Progress().Percent)
	assert.Equal(t, "1 done, 1 skipped", r.Progress().Summary())
	assert.Equal(t, 100, r.width)
	text := out.String()
	assert.Contains(t, text, "PARAMETER IMPORT")
	assert.Contains(t, text, "completed with warnings")
	assert.Contains(t, text, "MC_GHOST: unknown parameter")

	out.Reset()
	boom := errors.New("connection lost")
	err = NewRunner(RunnerConfig{Title: "Export", Output: &out}).Run(t.Context(),
		func(context.Context, StepCallback) (map[string]string, []string, error) {
			return nil, nil, boom
		})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, out.String(), "connection lost")
}

func TestProgressStepLines(t *testing.T) {
	p := NewProgress("", 12).SetStepNames([]string{"MC_ROLL_P", "OMNI_ATT_MODE"})
	p.UpdateStep(1, StepRunning, "")
	assert.Equal(t, 1, p.Current)
	assert.Zero(t, p.Percent)

	p.UpdateStep(1, StepComplete, "7.25")
	p.UpdateStep(2, StepFailed, "connection lost")
	assert.InDelta(t, 2.0/12.0, p.Percent, 1e-9)
	assert.Equal(t, "1 done, 1 failed, 10 not run", p.Summary())

	// Out-of-range step numbers are ignored
	p.UpdateStep(13, StepComplete, "")
	assert.Equal(t, 1, p.Count(StepComplete))

	first := p.renderStepLine(p.Steps[0])
	second := p.renderStepLine(p.Steps[1])
	assert.Contains(t, first, "[ 1/12] ")
	assert.Contains(t, first, "(7.25)")
	assert.Contains(t, second, "(connection lost)")
	// Markers share one column
	assert.Equal(t, strings.Index(first, StepMarkerComplete), strings.Index(second, FailureMarker))
}

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/effect/state"
)

func TestParamSetsFlag(t *testing.T) {
	var sets paramSets
	require.NoError(t, sets.Set("threshold=-18"))
	require.NoError(t, sets.Set(" mixer = 40 "))
	assert.Equal(t, "threshold=-18,mixer=40", sets.String())

	assert.Error(t, sets.Set("threshold"))
	assert.ErrorIs(t, sets.Set("drive=3"), params.ErrUnknownParameter)
	assert.Error(t, sets.Set("ratio=lots"))
	assert.Len(t, sets, 2)
}

func TestCommonFlagsOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")

	saved := params.NewStore()
	require.NoError(t, saved.Set(params.Release, 9))
	require.NoError(t, saved.Set(params.Ratio, 5))
	require.NoError(t, state.SaveFile(path, "test", saved))

	c := &commonFlags{logLevel: "error", preset: "drums", statePath: path}
	require.NoError(t, c.sets.Set("ratio=2"))

	store, err := c.store(false)
	require.NoError(t, err)

	// The state file overrides the preset; -set overrides both.
	assert.Equal(t, 9.0, store.Get(params.Release))
	assert.Equal(t, 2.0, store.Get(params.Ratio))
}

func TestCommonFlagsMissingState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	c := &commonFlags{logLevel: "error", statePath: path}
	_, err := c.store(false)
	assert.Error(t, err)

	store, err := c.store(true)
	require.NoError(t, err)
	assert.Equal(t, 3.0, store.Get(params.Ratio))
}

func TestCommonFlagsErrors(t *testing.T) {
	_, err := (&commonFlags{logLevel: "loud"}).store(false)
	assert.Error(t, err)

	_, err = (&commonFlags{logLevel: "error", preset: "opera"}).store(false)
	assert.ErrorIs(t, err, state.ErrUnknownPreset)
}

func TestRunDispatch(t *testing.T) {
	var out bytes.Buffer

	assert.ErrorIs(t, run(nil, &out), errUsage)
	assert.ErrorIs(t, run([]string{"explode"}, &out), errUsage)

	require.NoError(t, run([]string{"help"}, &out))
	assert.Contains(t, out.String(), "render")
}

func TestParamsCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"params", "-log-level", "error", "-set", "threshold=-12"}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, int(params.Count)+1)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[2], "threshold")
	assert.Contains(t, lines[2], "-12.0 dB")
}

func TestPresetsCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"presets"}, &out))
	assert.Equal(t, strings.Join(state.PresetNames(), "\n")+"\n", out.String())

	out.Reset()
	require.NoError(t, run([]string{"presets", "vocals"}, &out))

	doc, err := state.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, "vocals", doc.Name)
	assert.Equal(t, 4.0, doc.Parameters["ratio"])

	assert.ErrorIs(t, run([]string{"presets", "opera"}, &out), state.ErrUnknownPreset)
}

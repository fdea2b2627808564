package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalblueberry/fretscribe/pkg/fretboard"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, logLevel, tuningName, mode = "", "", "", ""
	jsonOutput, resolveAll = false, false
	gridFrets = 12

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestResolveSingle(t *testing.T) {
	out, err := execute(t, "resolve", "82.41")
	require.NoError(t, err)
	assert.Contains(t, out, "string 6 fret  0")
	assert.Contains(t, out, "E2")
}

func TestResolveChordJSON(t *testing.T) {
	out, err := execute(t, "--json", "resolve", "110", "146.83")
	require.NoError(t, err)

	var positions []fretboard.Position
	require.NoError(t, json.Unmarshal([]byte(out), &positions))
	require.Len(t, positions, 2)
	assert.Equal(t, 5, positions[0].String)
	assert.Equal(t, 4, positions[1].String)
}

func TestResolveAll(t *testing.T) {
	out, err := execute(t, "--json", "resolve", "--all", "110")
	require.NoError(t, err)

	var positions []fretboard.Position
	require.NoError(t, json.Unmarshal([]byte(out), &positions))
	assert.GreaterOrEqual(t, len(positions), 2)
}

func TestResolveUnplayable(t *testing.T) {
	out, err := execute(t, "resolve", "5000")
	require.NoError(t, err)
	assert.Contains(t, out, "no playable position")
}

func TestResolveRejectsGarbage(t *testing.T) {
	_, err := execute(t, "resolve", "abc")
	assert.Error(t, err)
}

func TestGridUsesTuningOverride(t *testing.T) {
	out, err := execute(t, "--tuning", "drop-d", "grid", "--frets", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "drop-d")
	assert.Contains(t, out, "73.42")
}

func TestUnknownTuning(t *testing.T) {
	_, err := execute(t, "--tuning", "banjo", "grid")
	assert.Error(t, err)
}

func TestToneJSON(t *testing.T) {
	out, err := execute(t, "--json", "--log-level", "error", "tone", "110:1s")
	require.NoError(t, err)

	dec := json.NewDecoder(bytes.NewBufferString(out))
	events := 0
	for dec.More() {
		var ev struct {
			Note string `json:"note"`
		}
		require.NoError(t, dec.Decode(&ev))
		assert.Equal(t, "A2", ev.Note)
		events++
	}
	assert.Equal(t, 5, events)
}

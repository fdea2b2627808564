package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalblueberry/fretscribe/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, config.Validate(config.Default()))
}

func TestLoadFromReader_EmptyDocumentUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFromReader_Overrides(t *testing.T) {
	t.Parallel()
	yaml := `
log_level: debug
tuning:
  name: drop-d
gate:
  min_confidence: 0.5
  debounce: 350ms
fretboard:
  max_fret: 5
  tiers:
    - {max_fret: 0, factor: 0.1}
    - {max_fret: 5, factor: 1}
session:
  mode: chord
  hop_size: 512
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, config.LogDebug, cfg.LogLevel)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 350*time.Millisecond, cfg.Gate.Debounce)
	assert.Equal(t, 0.5, cfg.GatePolicy().MinConfidence)
	assert.Equal(t, config.ModeChord, cfg.Session.Mode)
	assert.Equal(t, 512, cfg.Session.HopSize)
	assert.Len(t, cfg.Fretboard.Tiers, 2)

	/*
	 * Untouched sections keep their defaults.
	 */
	assert.Equal(t, 4096, cfg.Pitch.FrameSize)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)

	tn, err := cfg.BuildTuning()
	require.NoError(t, err)
	assert.Equal(t, "drop-d", tn.Name())

	r, err := cfg.BuildResolver()
	require.NoError(t, err)
	assert.Equal(t, 5, r.MaxFret())
}

func TestLoadFromReader_CustomStrings(t *testing.T) {
	t.Parallel()
	yaml := `
tuning:
  strings: [392, 329.63, 196, 146.83, 110, 82.41]
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	tn, err := cfg.BuildTuning()
	require.NoError(t, err)
	assert.Equal(t, 392.0, tn.Strings()[0].Frequency)
	assert.Equal(t, tn, cfg.EstimatorConfig(tn).Tuning)
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("bogus: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode yaml")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
log_level: loud
tuning:
  name: banjo
pitch:
  frame_size: 1000
gate:
  min_confidence: 2
fretboard:
  max_fret: 30
  tiers:
    - {max_fret: 5, factor: 1}
    - {max_fret: 5, factor: 0}
session:
  mode: poly
  max_peaks: 9
server:
  listen_addr: ""
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	require.Error(t, err)

	for _, want := range []string{
		"log_level",
		"tuning.name",
		"pitch.frame_size",
		"gate.min_confidence",
		"fretboard.max_fret",
		"fretboard.tiers[1].max_fret",
		"fretboard.tiers[1].factor",
		"session.mode",
		"session.max_peaks",
		"server.listen_addr",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_HopSizeBoundedByFrame(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Session.HopSize = cfg.Pitch.FrameSize + 1
	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.hop_size")
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "fretscribe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

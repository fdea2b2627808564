/*
 * Package config provides the configuration schema and loader for fretscribe.
 */
package config

import (
	"time"

	"github.com/metalblueberry/fretscribe/pkg/fretboard"
	"github.com/metalblueberry/fretscribe/pkg/gate"
	"github.com/metalblueberry/fretscribe/pkg/pitch"
	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

/*
 * LogLevel controls log verbosity.
 */
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

/*
 * IsValid reports whether l is a recognised log level.
 */
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

/*
 * Mode selects how a session turns frames into positions.
 */
type Mode string

const (
	/*
	 * ModeSingle resolves the estimator's fundamental to one position.
	 */
	ModeSingle Mode = "single"

	/*
	 * ModeChord resolves the spectral peaks of a frame to a chord.
	 */
	ModeChord Mode = "chord"
)

/*
 * IsValid reports whether m is a recognised session mode.
 */
func (m Mode) IsValid() bool {
	return m == ModeSingle || m == ModeChord
}

/*
 * Config is the root configuration structure.
 * It is typically loaded from a YAML file using [Load] or [LoadFromReader].
 */
type Config struct {
	LogLevel  LogLevel        `yaml:"log_level"`
	Tuning    TuningConfig    `yaml:"tuning"`
	Pitch     PitchConfig     `yaml:"pitch"`
	Gate      GateConfig      `yaml:"gate"`
	Fretboard FretboardConfig `yaml:"fretboard"`
	Session   SessionConfig   `yaml:"session"`
	Server    ServerConfig    `yaml:"server"`
}

/*
 * TuningConfig selects the instrument tuning.
 */
type TuningConfig struct {
	/*
	 * Name is one of the named tunings, or a label for Strings.
	 */
	Name string `yaml:"name"`

	/*
	 * Strings optionally overrides the open frequencies, string 1 first.
	 */
	Strings []float64 `yaml:"strings"`
}

/*
 * PitchConfig holds the frame format and estimator thresholds.
 */
type PitchConfig struct {
	FrameSize            int     `yaml:"frame_size"`
	SampleRate           float64 `yaml:"sample_rate"`
	SilenceRMS           float64 `yaml:"silence_rms"`
	CorrelationThreshold float64 `yaml:"correlation_threshold"`
	HarmonicThreshold    float64 `yaml:"harmonic_threshold"`
	FundamentalMin       float64 `yaml:"fundamental_min"`
	FundamentalMax       float64 `yaml:"fundamental_max"`
	MinFrequency         float64 `yaml:"min_frequency"`
	MaxFrequency         float64 `yaml:"max_frequency"`
	OpenStringWindow     float64 `yaml:"open_string_window"`
	OpenStringBoost      float64 `yaml:"open_string_boost"`
}

/*
 * GateConfig holds the detection gate policy.
 */
type GateConfig struct {
	MinConfidence float64       `yaml:"min_confidence"`
	Debounce      time.Duration `yaml:"debounce"`
}

/*
 * FretboardConfig holds the resolver settings.
 */
type FretboardConfig struct {
	MaxFret        int              `yaml:"max_fret"`
	Tolerance      float64          `yaml:"tolerance"`
	ChordTolerance float64          `yaml:"chord_tolerance"`
	MaxSpan        int              `yaml:"max_span"`
	Tiers          []fretboard.Tier `yaml:"tiers"`
}

/*
 * SessionConfig controls the capture loop.
 */
type SessionConfig struct {
	Mode Mode `yaml:"mode"`

	/*
	 * HopSize is the number of new samples between two analyses.
	 */
	HopSize int `yaml:"hop_size"`

	/*
	 * MaxAnalysesPerSecond caps realtime analysis. Zero disables the cap.
	 */
	MaxAnalysesPerSecond float64 `yaml:"max_analyses_per_second"`

	/*
	 * MaxPeaks bounds the number of simultaneous notes in chord mode.
	 */
	MaxPeaks int `yaml:"max_peaks"`
}

/*
 * ServerConfig holds the HTTP API settings.
 */
type ServerConfig struct {
	/*
	 * ListenAddr is the TCP address the server listens on (e.g., ":8080").
	 */
	ListenAddr string `yaml:"listen_addr"`

	/*
	 * AllowedOrigins lists the CORS origins accepted by the API.
	 */
	AllowedOrigins []string `yaml:"allowed_origins"`
}

/*
 * Default returns the configuration used when no file is given.
 */
func Default() *Config {
	p := pitch.DefaultConfig()
	peaks := pitch.DefaultPeakConfig()
	gp := gate.DefaultPolicy()

	return &Config{
		LogLevel: LogInfo,
		Tuning: TuningConfig{
			Name: "standard",
		},
		Pitch: PitchConfig{
			FrameSize:            pitch.DefaultFrameSize,
			SampleRate:           pitch.DefaultSampleRate,
			SilenceRMS:           p.SilenceRMS,
			CorrelationThreshold: p.CorrelationThreshold,
			HarmonicThreshold:    p.HarmonicThreshold,
			FundamentalMin:       p.FundamentalMin,
			FundamentalMax:       p.FundamentalMax,
			MinFrequency:         p.MinFrequency,
			MaxFrequency:         p.MaxFrequency,
			OpenStringWindow:     p.OpenStringWindow,
			OpenStringBoost:      p.OpenStringBoost,
		},
		Gate: GateConfig{
			MinConfidence: gp.MinConfidence,
			Debounce:      gp.Interval,
		},
		Fretboard: FretboardConfig{
			MaxFret:        tuning.MaxFret,
			Tolerance:      fretboard.DefaultTolerance,
			ChordTolerance: fretboard.DefaultChordTolerance,
			MaxSpan:        fretboard.DefaultMaxSpan,
			Tiers:          fretboard.DefaultTiers(),
		},
		Session: SessionConfig{
			Mode:                 ModeSingle,
			HopSize:              1024,
			MaxAnalysesPerSecond: 30,
			MaxPeaks:             peaks.MaxPeaks,
		},
		Server: ServerConfig{
			ListenAddr:     ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}

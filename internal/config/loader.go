package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

/*
 * Load reads the YAML configuration file at path and returns a validated [Config].
 * It is a convenience wrapper around [LoadFromReader].
 */
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

/*
 * LoadFromReader decodes a YAML config from r on top of [Default] and
 * validates the result. An empty document yields the defaults.
 */
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

/*
 * Validate checks that cfg contains a coherent set of values.
 * It returns a joined error listing all validation failures found.
 */
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	/*
	 * Tuning
	 */
	if len(cfg.Tuning.Strings) > 0 {
		if _, err := tuning.New(cfg.Tuning.Name, cfg.Tuning.Strings); err != nil {
			errs = append(errs, fmt.Errorf("tuning.strings: %w", err))
		}
	} else if _, err := tuning.Named(cfg.Tuning.Name); err != nil {
		errs = append(errs, fmt.Errorf("tuning.name: %w", err))
	}

	/*
	 * Pitch
	 */
	p := cfg.Pitch
	if p.FrameSize < 2 || p.FrameSize&(p.FrameSize-1) != 0 {
		errs = append(errs, fmt.Errorf("pitch.frame_size %d must be a power of two", p.FrameSize))
	}
	if !(p.SampleRate > 0) {
		errs = append(errs, fmt.Errorf("pitch.sample_rate %v must be positive", p.SampleRate))
	}
	if p.SilenceRMS < 0 {
		errs = append(errs, fmt.Errorf("pitch.silence_rms %v must not be negative", p.SilenceRMS))
	}
	if !(p.MinFrequency > 0) || p.MinFrequency >= p.MaxFrequency {
		errs = append(errs, fmt.Errorf("pitch frequency range [%v, %v] is invalid", p.MinFrequency, p.MaxFrequency))
	}
	if !(p.FundamentalMin > 0) || p.FundamentalMin >= p.FundamentalMax {
		errs = append(errs, fmt.Errorf("pitch fundamental band [%v, %v] is invalid", p.FundamentalMin, p.FundamentalMax))
	}
	if p.OpenStringWindow < 0 || p.OpenStringBoost < 0 {
		errs = append(errs, errors.New("pitch.open_string_window and pitch.open_string_boost must not be negative"))
	}

	/*
	 * Gate
	 */
	if cfg.Gate.MinConfidence < 0 || cfg.Gate.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("gate.min_confidence %v is out of range [0, 1]", cfg.Gate.MinConfidence))
	}
	if cfg.Gate.Debounce < 0 {
		errs = append(errs, fmt.Errorf("gate.debounce %v must not be negative", cfg.Gate.Debounce))
	}

	/*
	 * Fretboard
	 */
	fb := cfg.Fretboard
	if fb.MaxFret < 0 || fb.MaxFret > tuning.MaxFret {
		errs = append(errs, fmt.Errorf("fretboard.max_fret %d is out of range [0, %d]", fb.MaxFret, tuning.MaxFret))
	}
	if !(fb.Tolerance > 0) || !(fb.ChordTolerance > 0) {
		errs = append(errs, errors.New("fretboard.tolerance and fretboard.chord_tolerance must be positive"))
	}
	if fb.MaxSpan < 0 {
		errs = append(errs, fmt.Errorf("fretboard.max_span %d must not be negative", fb.MaxSpan))
	}
	for i, tier := range fb.Tiers {
		if i > 0 && tier.MaxFret <= fb.Tiers[i-1].MaxFret {
			errs = append(errs, fmt.Errorf("fretboard.tiers[%d].max_fret %d must be greater than the previous tier", i, tier.MaxFret))
		}
		if !(tier.Factor > 0) {
			errs = append(errs, fmt.Errorf("fretboard.tiers[%d].factor %v must be positive", i, tier.Factor))
		}
	}

	/*
	 * Session
	 */
	s := cfg.Session
	if !s.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("session.mode %q is invalid; valid values: single, chord", s.Mode))
	}
	if s.HopSize <= 0 || s.HopSize > p.FrameSize {
		errs = append(errs, fmt.Errorf("session.hop_size %d is out of range [1, %d]", s.HopSize, p.FrameSize))
	}
	if s.MaxAnalysesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("session.max_analyses_per_second %v must not be negative", s.MaxAnalysesPerSecond))
	}
	if s.MaxPeaks < 1 || s.MaxPeaks > tuning.NumStrings {
		errs = append(errs, fmt.Errorf("session.max_peaks %d is out of range [1, %d]", s.MaxPeaks, tuning.NumStrings))
	}

	/*
	 * Server
	 */
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}

	return errors.Join(errs...)
}

package config

import (
	"log/slog"

	"github.com/metalblueberry/fretscribe/pkg/fretboard"
	"github.com/metalblueberry/fretscribe/pkg/gate"
	"github.com/metalblueberry/fretscribe/pkg/pitch"
	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

/*
 * SlogLevel maps the configured level onto a [slog.Level].
 */
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

/*
 * BuildTuning returns the configured tuning.
 */
func (c *Config) BuildTuning() (tuning.Tuning, error) {
	if len(c.Tuning.Strings) > 0 {
		name := c.Tuning.Name
		if name == "" {
			name = "custom"
		}
		return tuning.New(name, c.Tuning.Strings)
	}
	return tuning.Named(c.Tuning.Name)
}

/*
 * EstimatorConfig returns the estimator settings for t.
 */
func (c *Config) EstimatorConfig(t tuning.Tuning) pitch.Config {
	p := c.Pitch
	return pitch.Config{
		SilenceRMS:           p.SilenceRMS,
		CorrelationThreshold: p.CorrelationThreshold,
		HarmonicThreshold:    p.HarmonicThreshold,
		FundamentalMin:       p.FundamentalMin,
		FundamentalMax:       p.FundamentalMax,
		MinFrequency:         p.MinFrequency,
		MaxFrequency:         p.MaxFrequency,
		OpenStringWindow:     p.OpenStringWindow,
		OpenStringBoost:      p.OpenStringBoost,
		Tuning:               t,
	}
}

/*
 * PeakConfig returns the spectral peak picker settings.
 */
func (c *Config) PeakConfig() pitch.PeakConfig {
	pc := pitch.DefaultPeakConfig()
	pc.MinFrequency = c.Pitch.MinFrequency
	pc.MaxFrequency = c.Pitch.MaxFrequency
	pc.MaxPeaks = c.Session.MaxPeaks
	return pc
}

/*
 * GatePolicy returns the detection gate policy.
 */
func (c *Config) GatePolicy() gate.Policy {
	return gate.Policy{
		MinConfidence: c.Gate.MinConfidence,
		Interval:      c.Gate.Debounce,
	}
}

/*
 * ResolverOptions returns the options for [fretboard.Create].
 */
func (c *Config) ResolverOptions() []fretboard.Option {
	fb := c.Fretboard
	return []fretboard.Option{
		fretboard.WithMaxFret(fb.MaxFret),
		fretboard.WithTolerance(fb.Tolerance),
		fretboard.WithChordTolerance(fb.ChordTolerance),
		fretboard.WithMaxSpan(fb.MaxSpan),
		fretboard.WithTiers(fb.Tiers),
		fretboard.WithRange(c.Pitch.MinFrequency, c.Pitch.MaxFrequency),
	}
}

/*
 * BuildResolver returns a resolver for the configured tuning.
 */
func (c *Config) BuildResolver() (*fretboard.Resolver, error) {
	t, err := c.BuildTuning()
	if err != nil {
		return nil, err
	}
	return fretboard.Create(t, c.ResolverOptions()...), nil
}

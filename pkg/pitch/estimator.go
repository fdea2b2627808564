package pitch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

/*
 * Global constants.
 */
const (
	DefaultFrameSize  = 4096
	DefaultSampleRate = 44100
)

/*
 * Returned when a frame violates the calling contract.
 */
var ErrInvalidFrame = errors.New("pitch: invalid frame")

/*
 * Data structure representing one block of mono samples in [-1, 1].
 *
 * A zero TimestampMs makes the estimator stamp the result with the wall
 * clock.
 */
type Frame struct {
	Samples     []float64
	SampleRate  float64
	TimestampMs int64
}

/*
 * Data structure representing the tunable parameters of the estimator.
 */
type Config struct {
	SilenceRMS           float64
	CorrelationThreshold float64
	HarmonicThreshold    float64
	FundamentalMin       float64
	FundamentalMax       float64
	MinFrequency         float64
	MaxFrequency         float64
	OpenStringWindow     float64
	OpenStringBoost      float64
	Tuning               tuning.Tuning
}

/*
 * Data structure representing the result of a pitch analysis.
 */
type Estimate struct {
	frequency   float64
	confidence  float64
	timestampMs int64
}

/*
 * Data structure representing a pitch estimator.
 */
type Estimator struct {
	config         Config
	clock          func() time.Time
	mutexAnalyze   sync.Mutex
	bufCorrelation []float64
}

/*
 * Returns the default estimator configuration for standard tuning.
 */
func DefaultConfig() Config {

	/*
	 * Create default configuration.
	 */
	c := Config{
		SilenceRMS:           0.005,
		CorrelationThreshold: 0.05,
		HarmonicThreshold:    0.3,
		FundamentalMin:       80,
		FundamentalMax:       400,
		MinFrequency:         80,
		MaxFrequency:         1200,
		OpenStringWindow:     0.05,
		OpenStringBoost:      1.5,
		Tuning:               tuning.Standard(),
	}

	return c
}

/*
 * Creates an estimate. Used by callers that synthesise estimates, such as
 * replay and tests.
 */
func NewEstimate(frequency float64, confidence float64, timestampMs int64) Estimate {
	e := Estimate{
		frequency:   frequency,
		confidence:  confidence,
		timestampMs: timestampMs,
	}

	return e
}

/*
 * Returns the estimated fundamental frequency in Hz.
 */
func (est Estimate) Frequency() float64 {
	return est.frequency
}

/*
 * Returns the confidence of the estimate in [0, 1].
 */
func (est Estimate) Confidence() float64 {
	return est.confidence
}

/*
 * Returns the time of the analysed frame in milliseconds.
 */
func (est Estimate) TimestampMs() int64 {
	return est.timestampMs
}

/*
 * Serialises the estimate.
 */
func (est Estimate) MarshalJSON() ([]byte, error) {

	/*
	 * Wire representation of an estimate.
	 */
	wire := struct {
		Frequency   float64 `json:"frequency"`
		Confidence  float64 `json:"confidence"`
		TimestampMs int64   `json:"timestamp_ms"`
	}{
		Frequency:   est.frequency,
		Confidence:  est.confidence,
		TimestampMs: est.timestampMs,
	}

	return json.Marshal(wire)
}

/*
 * Returns the configuration of the estimator.
 */
func (e *Estimator) Config() Config {
	return e.config
}

/*
 * Compute the root mean square of a buffer.
 */
func rootMeanSquare(buf []float64) float64 {
	sum := 0.0

	for _, value := range buf {
		sum += value * value
	}

	n := float64(len(buf))
	return math.Sqrt(sum / n)
}

/*
 * Verifies that a frame satisfies the calling contract.
 */
func validateFrame(frame Frame) error {
	rate := frame.SampleRate

	/*
	 * Check sample rate and frame length.
	 */
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidFrame, rate)
	} else if len(frame.Samples) < 2 {
		return fmt.Errorf("%w: %d samples, need at least 2", ErrInvalidFrame, len(frame.Samples))
	}

	/*
	 * Check that every sample is a finite number.
	 */
	for i, value := range frame.Samples {

		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: sample %d is not finite", ErrInvalidFrame, i)
		}

	}

	return nil
}

/*
 * Check whether the estimated frequency is a harmonic and, if so, return
 * the fundamental.
 *
 * Only lags recorded while scanning are consulted; an unscanned lag
 * holds NaN and never confirms a sub-harmonic. Analyze stops scanning
 * just past the first peak, so within Analyze no sub-harmonic lag is ever
 * recorded and the candidate is returned unchanged.
 */
func (e *Estimator) fundamental(freq float64, correlations []float64, sampleRate float64) float64 {
	cfg := e.config

	/*
	 * Try half, third and quarter of the detected frequency.
	 */
	for divisor := 2; divisor <= 4; divisor++ {
		sub := freq / float64(divisor)

		/*
		 * Only consider plausible fundamentals.
		 */
		if sub >= cfg.FundamentalMin && sub <= cfg.FundamentalMax {
			lag := int(math.Round(sampleRate / sub))

			if lag < len(correlations) {
				value := correlations[lag]

				if !math.IsNaN(value) && value > cfg.HarmonicThreshold {
					return sub
				}

			}

		}

	}

	return freq
}

/*
 * Compute confidence from signal strength, boosted for frequencies close
 * to an open string.
 */
func (e *Estimator) confidence(rms float64, freq float64) float64 {
	cfg := e.config
	confidence := math.Min(rms*10.0, 1.0)

	/*
	 * Open strings correlate more cleanly than fretted notes.
	 */
	if cfg.Tuning.NearOpenString(freq, cfg.OpenStringWindow) {
		confidence *= cfg.OpenStringBoost
	}

	/*
	 * Clamp to the unit interval.
	 */
	if confidence > 1.0 {
		confidence = 1.0
	} else if confidence < 0.0 {
		confidence = 0.0
	}

	return confidence
}

/*
 * Analyze a frame for its fundamental frequency.
 *
 * Returns nil without an error when the frame holds no usable pitch
 * (silence, noise, transients or out-of-range results). An error is only
 * returned for frames violating the calling contract.
 */
func (e *Estimator) Analyze(frame Frame) (*Estimate, error) {
	err := validateFrame(frame)

	/*
	 * Reject invalid frames before doing any work.
	 */
	if err != nil {
		return nil, err
	}

	cfg := e.config
	samples := frame.Samples
	sampleRate := frame.SampleRate
	rms := rootMeanSquare(samples)

	/*
	 * Signal is too quiet to be reliable.
	 */
	if rms < cfg.SilenceRMS {
		return nil, nil
	}

	n := len(samples)
	m := n / 2
	m64 := float64(m)
	e.mutexAnalyze.Lock()
	defer e.mutexAnalyze.Unlock()
	bufCorrelation := e.bufCorrelation

	/*
	 * Ensure that correlation buffer is of correct length.
	 */
	if len(bufCorrelation) != m+1 {
		bufCorrelation = make([]float64, m+1)
		e.bufCorrelation = bufCorrelation
	}

	/*
	 * Mark every lag as unscanned.
	 */
	for i := range bufCorrelation {
		bufCorrelation[i] = math.NaN()
	}

	minOffset := int(sampleRate / cfg.MaxFrequency)

	/*
	 * Lag zero correlates perfectly with everything.
	 */
	if minOffset < 1 {
		minOffset = 1
	}

	bestOffset := -1
	bestCorrelation := 0.0
	lastCorrelation := 1.0
	foundGoodCorrelation := false

	/*
	 * Scan lags until the first strong peak has been passed.
	 */
	for offset := minOffset; offset <= m; offset++ {
		sum := 0.0

		for i := 0; i < m; i++ {
			sum += math.Abs(samples[i] - samples[i+offset])
		}

		correlation := 1.0 - (sum / m64)
		bufCorrelation[offset] = correlation

		/*
		 * While correlation is rising above the threshold we are
		 * climbing towards a peak, once it falls we are past it.
		 */
		if correlation > cfg.CorrelationThreshold && correlation > lastCorrelation {
			foundGoodCorrelation = true

			if correlation > bestCorrelation {
				bestCorrelation = correlation
				bestOffset = offset
			}

		} else if foundGoodCorrelation {
			break
		}

		lastCorrelation = correlation
	}

	/*
	 * No periodicity found.
	 */
	if bestOffset == -1 || bestCorrelation <= cfg.CorrelationThreshold {
		return nil, nil
	}

	candidate := sampleRate / float64(bestOffset)
	freq := e.fundamental(candidate, bufCorrelation, sampleRate)

	/*
	 * Only accept results in the range of the instrument.
	 */
	if freq < cfg.MinFrequency || freq > cfg.MaxFrequency {
		return nil, nil
	}

	timestamp := frame.TimestampMs

	/*
	 * Stamp with the wall clock if the caller did not provide a time.
	 */
	if timestamp == 0 {
		timestamp = e.clock().UnixMilli()
	}

	/*
	 * Create result of signal analysis.
	 */
	result := Estimate{
		frequency:   freq,
		confidence:  e.confidence(rms, freq),
		timestampMs: timestamp,
	}

	return &result, nil
}

/*
 * Create an estimate for a frequency found by other means, such as the
 * strongest spectral peak, scored like the result of Analyze.
 *
 * Returns nil for silent frames and frequencies outside the instrument
 * range.
 */
func (e *Estimator) EstimateAt(frame Frame, freq float64) (*Estimate, error) {
	err := validateFrame(frame)

	if err != nil {
		return nil, err
	}

	cfg := e.config
	rms := rootMeanSquare(frame.Samples)

	if rms < cfg.SilenceRMS || !(freq >= cfg.MinFrequency && freq <= cfg.MaxFrequency) {
		return nil, nil
	}

	timestamp := frame.TimestampMs

	if timestamp == 0 {
		timestamp = e.clock().UnixMilli()
	}

	result := Estimate{
		frequency:   freq,
		confidence:  e.confidence(rms, freq),
		timestampMs: timestamp,
	}

	return &result, nil
}

/*
 * Option configuring an estimator.
 */
type Option func(*Estimator)

/*
 * Replaces the wall clock used to stamp estimates.
 */
func WithClock(clock func() time.Time) Option {
	return func(e *Estimator) {

		if clock != nil {
			e.clock = clock
		}

	}
}

/*
 * Creates a pitch estimator.
 */
func Create(config Config, opts ...Option) *Estimator {

	/*
	 * Create data structure for a pitch estimator.
	 */
	e := Estimator{
		config: config,
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(&e)
	}

	return &e
}

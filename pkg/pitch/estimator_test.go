package pitch

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, amplitude float64, n int) []float64 {
	samples := make([]float64, n)

	for i := range samples {
		t := float64(i) / DefaultSampleRate
		samples[i] = amplitude * math.Sin(2.0*math.Pi*freq*t)
	}

	return samples
}

func mix(parts ...[]float64) []float64 {
	out := make([]float64, len(parts[0]))

	for _, part := range parts {

		for i, value := range part {
			out[i] += value
		}

	}

	return out
}

func TestAnalyzeFindsFundamental(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"low e", 82.41},
		{"a string", 110},
		{"g string", 196},
		{"a3", 220},
		{"high e", 329.63},
	}

	est := Create(DefaultConfig())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Frame{
				Samples:     sine(tt.freq, 0.5, DefaultFrameSize),
				SampleRate:  DefaultSampleRate,
				TimestampMs: 1000,
			}

			result, err := est.Analyze(frame)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.InEpsilon(t, tt.freq, result.Frequency(), 0.02)
			assert.Equal(t, int64(1000), result.TimestampMs())
			assert.GreaterOrEqual(t, result.Confidence(), 0.0)
			assert.LessOrEqual(t, result.Confidence(), 1.0)
		})
	}
}

func TestAnalyzeSilence(t *testing.T) {
	est := Create(DefaultConfig())

	frame := Frame{
		Samples:    make([]float64, DefaultFrameSize),
		SampleRate: DefaultSampleRate,
	}

	result, err := est.Analyze(frame)
	require.NoError(t, err)
	assert.Nil(t, result)

	frame.Samples = sine(110, 0.001, DefaultFrameSize)
	result, err = est.Analyze(frame)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAnalyzeRejectsInvalidFrames(t *testing.T) {
	est := Create(DefaultConfig())

	tests := []struct {
		name  string
		frame Frame
	}{
		{"zero sample rate", Frame{Samples: sine(110, 0.5, 128), SampleRate: 0}},
		{"negative sample rate", Frame{Samples: sine(110, 0.5, 128), SampleRate: -1}},
		{"nan sample rate", Frame{Samples: sine(110, 0.5, 128), SampleRate: math.NaN()}},
		{"too short", Frame{Samples: []float64{0.1}, SampleRate: DefaultSampleRate}},
		{"nan sample", Frame{Samples: []float64{0.1, math.NaN(), 0.2}, SampleRate: DefaultSampleRate}},
		{"infinite sample", Frame{Samples: []float64{0.1, math.Inf(1), 0.2}, SampleRate: DefaultSampleRate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := est.Analyze(tt.frame)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, ErrInvalidFrame))
		})
	}
}

func TestAnalyzeShortFrameHasNoPitch(t *testing.T) {
	est := Create(DefaultConfig())

	/*
	 * Half the frame is shorter than the smallest lag.
	 */
	frame := Frame{
		Samples:    sine(440, 0.5, 64),
		SampleRate: DefaultSampleRate,
	}

	result, err := est.Analyze(frame)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestConfidenceBoostNearOpenString(t *testing.T) {
	est := Create(DefaultConfig())

	open := Frame{Samples: sine(110, 0.02, DefaultFrameSize), SampleRate: DefaultSampleRate, TimestampMs: 1}
	fretted := Frame{Samples: sine(130.81, 0.02, DefaultFrameSize), SampleRate: DefaultSampleRate, TimestampMs: 1}

	a, err := est.Analyze(open)
	require.NoError(t, err)
	require.NotNil(t, a)

	c, err := est.Analyze(fretted)
	require.NoError(t, err)
	require.NotNil(t, c)

	rms := 0.02 / math.Sqrt2
	assert.InDelta(t, rms*10*1.5, a.Confidence(), 0.01)
	assert.InDelta(t, rms*10, c.Confidence(), 0.01)
}

func TestConfidenceIsClamped(t *testing.T) {
	est := Create(DefaultConfig())

	frame := Frame{Samples: sine(110, 0.9, DefaultFrameSize), SampleRate: DefaultSampleRate, TimestampMs: 1}
	result, err := est.Analyze(frame)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1.0, result.Confidence())
}

func TestAnalyzeUsesClockWithoutTimestamp(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	est := Create(DefaultConfig(), WithClock(func() time.Time { return fixed }))

	frame := Frame{Samples: sine(110, 0.5, DefaultFrameSize), SampleRate: DefaultSampleRate}
	result, err := est.Analyze(frame)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(1700000000123), result.TimestampMs())
}

func TestEstimateJSON(t *testing.T) {
	data, err := json.Marshal(NewEstimate(110, 0.75, 42))
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":110,"confidence":0.75,"timestamp_ms":42}`, string(data))
}

func TestFundamentalIgnoresUnscannedLags(t *testing.T) {
	est := Create(DefaultConfig())
	correlations := make([]float64, 2049)

	for i := range correlations {
		correlations[i] = math.NaN()
	}

	assert.Equal(t, 220.0, est.fundamental(220, correlations, DefaultSampleRate))

	/*
	 * A strong recorded sub-harmonic is taken as the fundamental.
	 */
	correlations[401] = 0.9
	assert.InDelta(t, 110.0, est.fundamental(220, correlations, DefaultSampleRate), 1e-9)
}

func TestEstimateAt(t *testing.T) {
	est := Create(DefaultConfig())
	frame := Frame{Samples: sine(110, 0.5, DefaultFrameSize), SampleRate: DefaultSampleRate, TimestampMs: 7}

	result, err := est.EstimateAt(frame, 146.83)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 146.83, result.Frequency())
	assert.Equal(t, 1.0, result.Confidence())
	assert.Equal(t, int64(7), result.TimestampMs())

	result, err = est.EstimateAt(frame, 40)
	require.NoError(t, err)
	assert.Nil(t, result)

	frame.Samples = make([]float64, DefaultFrameSize)
	result, err = est.EstimateAt(frame, 110)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAnalyzeDoesNotHalvePeriodicSignal(t *testing.T) {
	est := Create(DefaultConfig())

	/*
	 * 110 Hz lies in the fundamental band, but its lag is never scanned.
	 */
	frame := Frame{Samples: sine(220, 0.5, DefaultFrameSize), SampleRate: DefaultSampleRate, TimestampMs: 1}
	result, err := est.Analyze(frame)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.InEpsilon(t, 220, result.Frequency(), 0.02)
}

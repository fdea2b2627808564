package source

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneLengthAndEOF(t *testing.T) {
	tone := NewTone(1000,
		Note{Frequency: 100, Duration: 50 * time.Millisecond, Amplitude: 0.5},
		Note{Frequency: 0, Duration: 20 * time.Millisecond},
	)
	ctx := context.Background()
	buf := make([]float64, 16)
	total := 0

	for {
		n, err := tone.Read(ctx, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		total += n
	}

	assert.Equal(t, 70, total)
	assert.False(t, tone.Realtime())
	assert.Equal(t, 1000.0, tone.SampleRate())
}

func TestToneWaveform(t *testing.T) {
	tone := NewTone(8000, Note{Frequency: 1000, Duration: time.Second, Amplitude: 0.25})
	buf := make([]float64, 8)

	n, err := tone.Read(context.Background(), buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)

	for i, v := range buf {
		want := 0.25 * math.Sin(2*math.Pi*1000*float64(i)/8000)
		assert.InDelta(t, want, v, 1e-9, "sample %d", i)
	}
}

func TestToneSilenceIsZero(t *testing.T) {
	tone := NewTone(8000, Note{Frequency: 0, Duration: time.Millisecond, Amplitude: 1})
	buf := make([]float64, 8)

	n, err := tone.Read(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, make([]float64, n), buf[:n])
}

func TestToneHonoursContext(t *testing.T) {
	tone := NewTone(8000, Note{Frequency: 440, Duration: time.Second, Amplitude: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tone.Read(ctx, make([]float64, 8))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		name    string
		seq     string
		want    []Note
		wantErr bool
	}{
		{
			name: "with durations",
			seq:  "110:500ms, 0:100ms",
			want: []Note{
				{Frequency: 110, Duration: 500 * time.Millisecond, Amplitude: 0.5},
				{Frequency: 0, Duration: 100 * time.Millisecond, Amplitude: 0.5},
			},
		},
		{
			name: "default duration",
			seq:  "146.83",
			want: []Note{{Frequency: 146.83, Duration: time.Second, Amplitude: 0.5}},
		},
		{name: "bad frequency", seq: "abc", wantErr: true},
		{name: "negative frequency", seq: "-3", wantErr: true},
		{name: "bad duration", seq: "110:soon", wantErr: true},
		{name: "empty", seq: " , ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSequence(tt.seq, time.Second, 0.5)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDownmix(t *testing.T) {
	dst := make([]float64, 4)
	n := downmix(dst, []int32{16384, 16384, -32768, 0, 32767, 32767}, 2, 32768)
	require.Equal(t, 3, n)
	assert.InDelta(t, 0.5, dst[0], 1e-9)
	assert.InDelta(t, -0.5, dst[1], 1e-9)
	assert.InDelta(t, 32767.0/32768.0, dst[2], 1e-9)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("song.wav")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Open("missing.mp3")
	assert.Error(t, err)
}

/*
 * Package source supplies mono sample streams to the capture loop: synthetic
 * tones, decoded audio files and the system microphone.
 */
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

/*
 * Dropper is implemented by realtime sources that lose sample blocks when
 * the reader falls behind. Dropped returns the running total.
 */
type Dropper interface {
	Dropped() uint64
}

/*
 * ErrUnsupportedFormat is returned by [Open] for unknown file extensions.
 */
var ErrUnsupportedFormat = errors.New("source: unsupported audio format")

/*
 * ErrMicrophoneUnavailable is returned when the binary was built without
 * PortAudio support.
 */
var ErrMicrophoneUnavailable = errors.New("source: microphone support not enabled (build with -tags portaudio)")

/*
 * Source produces mono samples in [-1, 1] at a constant sample rate.
 */
type Source interface {
	/*
	 * Read fills buf with the next samples and returns how many were
	 * written. It returns io.EOF once the stream is exhausted.
	 */
	Read(ctx context.Context, buf []float64) (int, error)

	/*
	 * SampleRate returns the sample rate in Hz.
	 */
	SampleRate() float64

	/*
	 * Realtime reports whether samples arrive at wall-clock pace, in which
	 * case the consumer must keep up or drop frames.
	 */
	Realtime() bool

	/*
	 * Close releases the underlying resources.
	 */
	Close() error
}

/*
 * Open returns a file source for path, chosen by extension.
 */
func Open(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return OpenMP3(path)
	case ".flac":
		return OpenFLAC(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

/*
 * downmix averages interleaved integer samples into mono floats. scale is
 * the magnitude of full scale for the sample bit depth.
 */
func downmix(dst []float64, interleaved []int32, channels int, scale float64) int {
	frames := len(interleaved) / channels
	if frames > len(dst) {
		frames = len(dst)
	}
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(interleaved[i*channels+ch])
		}
		dst[i] = clamp(sum / float64(channels) / scale)
	}
	return frames
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	} else if v < -1 {
		return -1
	}
	return v
}

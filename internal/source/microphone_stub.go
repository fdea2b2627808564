//go:build !portaudio

package source

import (
	"context"
)

/*
 * Microphone is a placeholder when PortAudio is not available.
 */
type Microphone struct{}

/*
 * OpenMicrophone always fails without PortAudio support.
 */
func OpenMicrophone(sampleRate float64, framesPerBuffer int) (*Microphone, error) {
	return nil, ErrMicrophoneUnavailable
}

/*
 * Read always fails without PortAudio support.
 */
func (m *Microphone) Read(ctx context.Context, buf []float64) (int, error) {
	return 0, ErrMicrophoneUnavailable
}

/*
 * Dropped is always zero.
 */
func (m *Microphone) Dropped() uint64 { return 0 }

/*
 * SampleRate is always zero.
 */
func (m *Microphone) SampleRate() float64 { return 0 }

/*
 * Realtime is true.
 */
func (m *Microphone) Realtime() bool { return true }

/*
 * Close is a no-op.
 */
func (m *Microphone) Close() error { return nil }

//go:build portaudio

package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

/*
 * Microphone captures mono input from the default PortAudio device.
 */
type Microphone struct {
	stream     *portaudio.Stream
	sampleRate float64
	chunks     chan []float64
	pending    []float64
	dropped    atomic.Uint64
}

/*
 * OpenMicrophone opens and starts the default input device. framesPerBuffer
 * is the callback block size.
 */
func OpenMicrophone(sampleRate float64, framesPerBuffer int) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("source: initialize portaudio: %w", err)
	}

	m := &Microphone{
		sampleRate: sampleRate,
		chunks:     make(chan []float64, 16),
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, framesPerBuffer, m.processAudio)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("source: open input stream: %w", err)
	}
	m.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("source: start input stream: %w", err)
	}

	slog.Debug("microphone opened", "sample_rate", sampleRate, "frames_per_buffer", framesPerBuffer)
	return m, nil
}

/*
 * processAudio runs on the PortAudio thread and must not block.
 */
func (m *Microphone) processAudio(in []float32) {
	chunk := make([]float64, len(in))
	for i, v := range in {
		chunk[i] = float64(v)
	}

	select {
	case m.chunks <- chunk:
	default:
		m.dropped.Add(1)
	}
}

/*
 * Read blocks until captured samples are available or ctx is done.
 */
func (m *Microphone) Read(ctx context.Context, buf []float64) (int, error) {
	if len(m.pending) == 0 {
		select {
		case chunk := <-m.chunks:
			m.pending = chunk
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	n := copy(buf, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

/*
 * Dropped returns the number of callback blocks lost to a slow reader.
 */
func (m *Microphone) Dropped() uint64 { return m.dropped.Load() }

/*
 * SampleRate returns the capture rate.
 */
func (m *Microphone) SampleRate() float64 { return m.sampleRate }

/*
 * Realtime is true, the device does not wait for the reader.
 */
func (m *Microphone) Realtime() bool { return true }

/*
 * Close stops capture and releases PortAudio.
 */
func (m *Microphone) Close() error {
	if err := m.stream.Stop(); err != nil {
		return err
	}
	if err := m.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}

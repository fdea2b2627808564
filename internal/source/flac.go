package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mewkiz/flac"
)

/*
 * FLAC reads a FLAC file.
 */
type FLAC struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate float64
	channels   int
	scale      float64
	pending    []float64
	ints       []int32
}

/*
 * OpenFLAC opens a FLAC file for analysis.
 */
func OpenFLAC(path string) (*FLAC, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open flac: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: decode flac: %w", err)
	}

	info := stream.Info
	bitDepth := int(info.BitsPerSample)

	slog.Debug("loaded flac",
		"path", path,
		"sample_rate", info.SampleRate,
		"channels", info.NChannels,
		"bit_depth", bitDepth,
	)

	return &FLAC{
		file:       f,
		stream:     stream,
		sampleRate: float64(info.SampleRate),
		channels:   int(info.NChannels),
		scale:      float64(int64(1) << (bitDepth - 1)),
	}, nil
}

/*
 * Read decodes the next len(buf) mono samples.
 */
func (s *FLAC) Read(ctx context.Context, buf []float64) (int, error) {
	written := 0

	for written < len(buf) {
		if len(s.pending) > 0 {
			n := copy(buf[written:], s.pending)
			s.pending = s.pending[n:]
			written += n
			continue
		}

		if err := ctx.Err(); err != nil {
			return written, err
		}

		frame, err := s.stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("source: read flac: %w", err)
		}

		blockSize := int(frame.BlockSize)
		if cap(s.ints) < blockSize*s.channels {
			s.ints = make([]int32, blockSize*s.channels)
		}
		ints := s.ints[:blockSize*s.channels]
		for i := 0; i < blockSize; i++ {
			for ch := 0; ch < s.channels; ch++ {
				ints[i*s.channels+ch] = frame.Subframes[ch].Samples[i]
			}
		}

		mono := make([]float64, blockSize)
		downmix(mono, ints, s.channels, s.scale)
		s.pending = mono
	}

	if written == 0 {
		return 0, io.EOF
	}
	return written, nil
}

/*
 * SampleRate returns the sample rate of the file.
 */
func (s *FLAC) SampleRate() float64 { return s.sampleRate }

/*
 * Realtime is false, files are analysed as fast as they decode.
 */
func (s *FLAC) Realtime() bool { return false }

/*
 * Close closes the file.
 */
func (s *FLAC) Close() error {
	return s.file.Close()
}

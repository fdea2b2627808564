package source

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

/*
 * mp3Channels is fixed, the decoder always outputs 16-bit stereo.
 */
const mp3Channels = 2

/*
 * MP3 reads an MP3 file.
 */
type MP3 struct {
	file       *os.File
	decoder    *mp3.Decoder
	sampleRate float64
	raw        []byte
	ints       []int32
}

/*
 * OpenMP3 opens an MP3 file for analysis.
 */
func OpenMP3(path string) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open mp3: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: decode mp3: %w", err)
	}

	slog.Debug("loaded mp3", "path", path, "sample_rate", decoder.SampleRate())

	return &MP3{
		file:       f,
		decoder:    decoder,
		sampleRate: float64(decoder.SampleRate()),
	}, nil
}

/*
 * Read decodes the next len(buf) mono samples.
 */
func (s *MP3) Read(ctx context.Context, buf []float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	numBytes := len(buf) * mp3Channels * 2
	if cap(s.raw) < numBytes {
		s.raw = make([]byte, numBytes)
		s.ints = make([]int32, len(buf)*mp3Channels)
	}
	raw := s.raw[:numBytes]

	n, err := io.ReadFull(s.decoder, raw)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("source: read mp3: %w", err)
	}

	numSamples := n / 2
	ints := s.ints[:numSamples]
	for i := range ints {
		ints[i] = int32(int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2])))
	}

	frames := downmix(buf, ints, mp3Channels, 32768)
	if frames == 0 && err != nil {
		return 0, io.EOF
	}
	return frames, nil
}

/*
 * SampleRate returns the sample rate of the file.
 */
func (s *MP3) SampleRate() float64 { return s.sampleRate }

/*
 * Realtime is false, files are analysed as fast as they decode.
 */
func (s *MP3) Realtime() bool { return false }

/*
 * Close closes the file.
 */
func (s *MP3) Close() error {
	return s.file.Close()
}

package source

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

/*
 * Note is one step of a synthetic tone sequence. A zero frequency is
 * silence.
 */
type Note struct {
	Frequency float64
	Duration  time.Duration
	Amplitude float64
}

/*
 * Tone synthesises a sequence of sine notes.
 */
type Tone struct {
	sampleRate float64
	notes      []Note
	index      int
	remaining  int
	phase      float64
}

/*
 * NewTone returns a source playing notes in order at sampleRate.
 */
func NewTone(sampleRate float64, notes ...Note) *Tone {
	t := &Tone{
		sampleRate: sampleRate,
		notes:      notes,
	}
	if len(notes) > 0 {
		t.remaining = t.samplesOf(notes[0])
	}
	return t
}

func (t *Tone) samplesOf(n Note) int {
	return int(n.Duration.Seconds() * t.sampleRate)
}

/*
 * Read synthesises the next len(buf) samples.
 */
func (t *Tone) Read(ctx context.Context, buf []float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	written := 0
	for written < len(buf) && t.index < len(t.notes) {
		if t.remaining == 0 {
			t.index++
			t.phase = 0
			if t.index < len(t.notes) {
				t.remaining = t.samplesOf(t.notes[t.index])
			}
			continue
		}

		n := t.notes[t.index]
		step := 2 * math.Pi * n.Frequency / t.sampleRate
		for t.remaining > 0 && written < len(buf) {
			buf[written] = n.Amplitude * math.Sin(t.phase)
			t.phase = math.Mod(t.phase+step, 2*math.Pi)
			t.remaining--
			written++
		}
	}

	if written == 0 {
		return 0, io.EOF
	}
	return written, nil
}

/*
 * SampleRate returns the synthesis rate.
 */
func (t *Tone) SampleRate() float64 { return t.sampleRate }

/*
 * Realtime is false, tones are synthesised on demand.
 */
func (t *Tone) Realtime() bool { return false }

/*
 * Close is a no-op.
 */
func (t *Tone) Close() error { return nil }

/*
 * ParseSequence parses a comma separated list of notes in the form
 * "freq[:duration]", e.g. "110:500ms,0:100ms,146.83". Notes without a
 * duration last def.
 */
func ParseSequence(seq string, def time.Duration, amplitude float64) ([]Note, error) {
	var notes []Note
	for _, part := range strings.Split(seq, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		freqStr, durStr, hasDur := strings.Cut(part, ":")
		freq, err := strconv.ParseFloat(freqStr, 64)
		if err != nil || freq < 0 || math.IsInf(freq, 0) {
			return nil, fmt.Errorf("source: invalid frequency %q", freqStr)
		}

		dur := def
		if hasDur {
			dur, err = time.ParseDuration(durStr)
			if err != nil || dur <= 0 {
				return nil, fmt.Errorf("source: invalid duration %q", durStr)
			}
		}

		notes = append(notes, Note{Frequency: freq, Duration: dur, Amplitude: amplitude})
	}

	if len(notes) == 0 {
		return nil, fmt.Errorf("source: empty note sequence")
	}
	return notes, nil
}

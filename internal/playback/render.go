/*
 * Package playback plays reference tones for fretboard positions.
 */
package playback

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

/*
 * ErrInvalidTone is returned for tones that cannot be rendered.
 */
var ErrInvalidTone = errors.New("playback: invalid tone")

/*
 * fade is the length of the linear ramp at both ends of a tone. It keeps
 * the speaker from clicking.
 */
const fade = 10 * time.Millisecond

/*
 * Tone describes a sine tone.
 */
type Tone struct {
	Frequency float64
	Duration  time.Duration
	Amplitude float64
}

/*
 * Render returns tone as mono signed 16-bit little endian PCM at
 * sampleRate.
 */
func Render(tone Tone, sampleRate int) ([]byte, error) {
	if !(tone.Frequency > 0) || math.IsInf(tone.Frequency, 0) {
		return nil, ErrInvalidTone
	}
	if tone.Duration <= 0 || sampleRate <= 0 {
		return nil, ErrInvalidTone
	}
	if tone.Amplitude < 0 || tone.Amplitude > 1 {
		return nil, ErrInvalidTone
	}

	n := int(tone.Duration.Seconds() * float64(sampleRate))
	ramp := int(fade.Seconds() * float64(sampleRate))
	if ramp > n/2 {
		ramp = n / 2
	}

	out := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		gain := tone.Amplitude
		if i < ramp {
			gain *= float64(i) / float64(ramp)
		} else if n-1-i < ramp {
			gain *= float64(n-1-i) / float64(ramp)
		}
		v := gain * math.Sin(2*math.Pi*tone.Frequency*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return out, nil
}

package playback

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

/*
 * DefaultSampleRate is the output rate used when none is given.
 */
const DefaultSampleRate = 44100

/*
 * pollInterval is how often Play checks whether the device drained.
 */
const pollInterval = 10 * time.Millisecond

/*
 * Player writes tones to the default audio output. oto allows one context
 * per process, so a program should create a single Player.
 */
type Player struct {
	ctx        *oto.Context
	sampleRate int
}

/*
 * NewPlayer opens the default output device at sampleRate. It blocks until
 * the device is ready.
 */
func NewPlayer(sampleRate int) (*Player, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("playback: open output: %w", err)
	}
	<-ready

	return &Player{ctx: ctx, sampleRate: sampleRate}, nil
}

/*
 * Play renders tone and blocks until it finished playing or ctx is done.
 */
func (p *Player) Play(ctx context.Context, tone Tone) error {
	pcm, err := Render(tone, p.sampleRate)
	if err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}

/*
 * PlayPosition plays the pitch of a string and fret in t.
 */
func (p *Player) PlayPosition(ctx context.Context, t tuning.Tuning, stringNumber, fret int, d time.Duration, amplitude float64) error {
	freq, err := t.FretFrequency(stringNumber, fret)
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}

	slog.Debug("playing reference tone", "string", stringNumber, "fret", fret, "frequency", freq)
	return p.Play(ctx, Tone{Frequency: freq, Duration: d, Amplitude: amplitude})
}

/*
 * Close suspends the output device.
 */
func (p *Player) Close() error {
	return p.ctx.Suspend()
}

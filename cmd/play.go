package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/metalblueberry/fretscribe/internal/playback"
)

var (
	playDuration  time.Duration
	playAmplitude float64
)

func init() {
	playCmd.Flags().DurationVar(&playDuration, "duration", 2*time.Second, "length of the tone")
	playCmd.Flags().Float64Var(&playAmplitude, "amplitude", 0.3, "amplitude of the tone")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <string> <fret>",
	Short: "Play the reference tone of a string and fret",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stringNumber, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid string %q: %w", args[0], err)
		}
		fret, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid fret %q: %w", args[1], err)
		}

		t, err := cfg.BuildTuning()
		if err != nil {
			return err
		}

		player, err := playback.NewPlayer(playback.DefaultSampleRate)
		if err != nil {
			return err
		}
		defer player.Close()

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		err = player.PlayPosition(ctx, t, stringNumber, fret, playDuration, playAmplitude)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/metalblueberry/fretscribe/internal/source"
)

var (
	toneDuration  time.Duration
	toneAmplitude float64
)

func init() {
	toneCmd.Flags().DurationVar(&toneDuration, "duration", 500*time.Millisecond, "duration of notes without one")
	toneCmd.Flags().Float64Var(&toneAmplitude, "amplitude", 0.5, "amplitude of the generated notes")
	rootCmd.AddCommand(toneCmd)
}

var toneCmd = &cobra.Command{
	Use:   "tone <sequence>",
	Short: "Transcribe a synthetic tone sequence",
	Long: `Generates a sequence of sine tones and runs it through a session.
The sequence is a comma separated list of freq[:duration], a frequency of
zero is a rest. Example: fretscribe tone 110:1s,0:200ms,146.83`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, err := source.ParseSequence(args[0], toneDuration, toneAmplitude)
		if err != nil {
			return err
		}
		return runSession(cmd, source.NewTone(cfg.Pitch.SampleRate, notes...))
	},
}

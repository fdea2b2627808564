package cmd

import (
	"github.com/spf13/cobra"

	"github.com/metalblueberry/fretscribe/internal/source"
)

func init() {
	rootCmd.AddCommand(listenCmd)
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Transcribe the default microphone",
	Long: `Captures the default input device and reports every accepted note
until interrupted. Requires a build with -tags portaudio.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mic, err := source.OpenMicrophone(cfg.Pitch.SampleRate, cfg.Session.HopSize)
		if err != nil {
			return err
		}
		return runSession(cmd, mic)
	},
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/metalblueberry/fretscribe/internal/source"
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Transcribe an MP3 or FLAC file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := source.Open(args[0])
		if err != nil {
			return err
		}
		return runSession(cmd, src)
	},
}

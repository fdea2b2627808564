package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

var gridFrets int

func init() {
	gridCmd.Flags().IntVar(&gridFrets, "frets", 12, "highest fret to print")
	rootCmd.AddCommand(gridCmd)
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print the fretboard frequency grid of the tuning",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := cfg.BuildTuning()
		if err != nil {
			return err
		}
		grid := t.BuildGrid()
		out := cmd.OutOrStdout()

		if jsonOutput {
			return json.NewEncoder(out).Encode(grid.Cells())
		}

		frets := gridFrets
		if frets < 0 || frets > tuning.MaxFret {
			frets = tuning.MaxFret
		}

		fmt.Fprintf(out, "%s\n", t.Name())
		fmt.Fprintf(out, "%6s", "")
		for fret := 0; fret <= frets; fret++ {
			fmt.Fprintf(out, " %8d", fret)
		}
		fmt.Fprintln(out)

		for s := 1; s <= tuning.NumStrings; s++ {
			fmt.Fprintf(out, "%6d", s)
			for fret := 0; fret <= frets; fret++ {
				fmt.Fprintf(out, " %8.2f", grid.At(s, fret))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

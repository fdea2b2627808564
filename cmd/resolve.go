package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/metalblueberry/fretscribe/pkg/fretboard"
	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

var resolveAll bool

func init() {
	resolveCmd.Flags().BoolVarP(&resolveAll, "all", "a", false, "list every position of a single frequency")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <frequency>...",
	Short: "Find where frequencies are played on the fretboard",
	Long: `Resolves one frequency to its preferred string and fret, or several
frequencies to a chord fingering on distinct strings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		freqs := make([]float64, len(args))
		for i, arg := range args {
			f, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("invalid frequency %q: %w", arg, err)
			}
			freqs[i] = f
		}

		r, err := cfg.BuildResolver()
		if err != nil {
			return err
		}

		var positions []fretboard.Position
		switch {
		case resolveAll && len(freqs) == 1:
			positions = r.AllPositionsWithin(freqs[0], cfg.Fretboard.Tolerance)
		default:
			positions, err = r.ResolveChord(freqs)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if positions == nil {
				positions = []fretboard.Position{}
			}
			return json.NewEncoder(out).Encode(positions)
		}
		return printPositions(out, positions)
	},
}

func printPositions(w io.Writer, positions []fretboard.Position) error {
	if len(positions) == 0 {
		_, err := fmt.Fprintln(w, "no playable position")
		return err
	}

	for _, p := range positions {
		note := "?"
		if n, ok := tuning.NoteOf(p.Frequency); ok {
			note = n.String()
		}
		if _, err := fmt.Fprintf(w, "string %d fret %2d  %-4s %8.2f Hz  error %.2f%%\n",
			p.String, p.Fret, note, p.Frequency, p.PercentError); err != nil {
			return err
		}
	}
	return nil
}

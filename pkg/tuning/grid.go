package tuning

import (
	"fmt"
)

/*
 * Data structure holding the frequency of every string and fret
 * combination of a tuning.
 *
 * A grid is read-only after construction and may be shared between
 * goroutines.
 */
type Grid struct {
	tuning Tuning
	freqs  [NumStrings][MaxFret + 1]float64
}

/*
 * Data structure representing a single cell of the grid.
 */
type Cell struct {
	String    int     `json:"string"`
	Fret      int     `json:"fret"`
	Frequency float64 `json:"frequency"`
}

/*
 * Derives the frequency grid for frets 0 to MaxFret on every string.
 */
func (t Tuning) BuildGrid() *Grid {
	g := Grid{
		tuning: t,
	}

	for s, open := range t.strings {

		for fret := 0; fret <= MaxFret; fret++ {
			g.freqs[s][fret] = scale(open.Frequency, fret)
		}

	}

	return &g
}

/*
 * Returns the tuning the grid was derived from.
 */
func (g *Grid) Tuning() Tuning {
	return g.tuning
}

/*
 * Returns the frequency of a grid cell.
 */
func (g *Grid) Frequency(stringNumber int, fret int) (float64, error) {

	/*
	 * Verify that the cell exists.
	 */
	if stringNumber < 1 || stringNumber > NumStrings {
		return 0, fmt.Errorf("%w: %d (valid: 1..%d)", ErrStringOutOfRange, stringNumber, NumStrings)
	} else if fret < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeFret, fret)
	} else if fret > MaxFret {
		return 0, fmt.Errorf("tuning: fret %d beyond grid (max %d)", fret, MaxFret)
	}

	return g.freqs[stringNumber-1][fret], nil
}

/*
 * Returns the frequency of a grid cell without bounds reporting.
 *
 * Callers must guarantee 1 <= stringNumber <= NumStrings and
 * 0 <= fret <= MaxFret.
 */
func (g *Grid) At(stringNumber int, fret int) float64 {
	return g.freqs[stringNumber-1][fret]
}

/*
 * Returns every cell, ordered by string then fret.
 */
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, NumStrings*(MaxFret+1))

	for s := 0; s < NumStrings; s++ {

		for fret := 0; fret <= MaxFret; fret++ {
			cell := Cell{
				String:    s + 1,
				Fret:      fret,
				Frequency: g.freqs[s][fret],
			}

			cells = append(cells, cell)
		}

	}

	return cells
}

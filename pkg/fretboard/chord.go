package fretboard

import (
	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

/*
 * Data structure representing one position per chord frequency, in the
 * order of the frequencies. All strings are distinct.
 */
type Assignment []Position

/*
 * Returns the distance between the highest and the lowest fret.
 */
func (a Assignment) Span() int {

	/*
	 * An empty assignment covers no frets.
	 */
	if len(a) == 0 {
		return 0
	}

	low := a[0].Fret
	high := a[0].Fret

	for _, p := range a[1:] {

		if p.Fret < low {
			low = p.Fret
		} else if p.Fret > high {
			high = p.Fret
		}

	}

	return high - low
}

/*
 * Resolve simultaneous frequencies using the configured chord tolerance
 * and span.
 */
func (r *Resolver) ResolveChord(freqs []float64) (Assignment, error) {
	return r.ResolveChordWithin(freqs, r.chordTolerance, r.maxSpan)
}

/*
 * Resolve simultaneous frequencies to positions on distinct strings
 * covering the smallest fret span.
 *
 * A single frequency is resolved like a note. An empty assignment means
 * the chord cannot be played within tolerance and span.
 */
func (r *Resolver) ResolveChordWithin(freqs []float64, tolerance float64, maxSpan int) (Assignment, error) {
	n := len(freqs)

	/*
	 * A chord needs at least one note.
	 */
	if n == 0 {
		return nil, ErrNoFrequencies
	} else if n == 1 {
		p, ok := r.Resolve(freqs[0])

		if !ok {
			return Assignment{}, nil
		}

		return Assignment{p}, nil
	} else if n > tuning.NumStrings {
		return Assignment{}, nil
	}

	candidates := make([][]Position, n)

	/*
	 * Gather candidates per note, best ranked first.
	 */
	for i, freq := range freqs {
		candidates[i] = r.AllPositionsWithin(freq, tolerance)

		/*
		 * One note without a position makes the chord unplayable.
		 */
		if len(candidates[i]) == 0 {
			return Assignment{}, nil
		}

	}

	cursor := make([]int, n)
	chosen := make(Assignment, n)
	used := [tuning.NumStrings + 1]bool{}
	var best Assignment
	bestSpan := maxSpan + 1
	depth := 0

	/*
	 * Depth first search over one candidate per note, taking candidates
	 * in rank order.
	 */
	for depth >= 0 {

		/*
		 * A complete assignment replaces the best one only if it is
		 * strictly narrower.
		 */
		if depth == n {
			span := chosen.Span()

			if span < bestSpan {
				bestSpan = span
				best = make(Assignment, n)
				copy(best, chosen)
			}

			depth--
			used[chosen[depth].String] = false
			continue
		}

		level := candidates[depth]
		advanced := false

		for cursor[depth] < len(level) {
			p := level[cursor[depth]]
			cursor[depth]++

			/*
			 * A string sounds one fret at a time.
			 */
			if used[p.String] {
				continue
			}

			used[p.String] = true
			chosen[depth] = p
			depth++

			if depth < n {
				cursor[depth] = 0
			}

			advanced = true
			break
		}

		/*
		 * Level exhausted, backtrack.
		 */
		if !advanced {
			depth--

			if depth >= 0 {
				used[chosen[depth].String] = false
			}

		}

	}

	if best == nil {
		return Assignment{}, nil
	}

	return best, nil
}

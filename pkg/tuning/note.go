package tuning

import (
	"fmt"
	"math"
)

/*
 * Reference pitch, A4.
 */
const ReferenceFrequency = 440.0

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

/*
 * Data structure representing the closest note on the chromatic scale.
 */
type Note struct {
	Name      string  `json:"name"`
	Octave    int     `json:"octave"`
	Frequency float64 `json:"frequency"`
	Cents     float64 `json:"cents"`
}

/*
 * Returns the scientific pitch notation of the note, e. g. "A2".
 */
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

/*
 * Finds the closest note on the chromatic scale.
 *
 * f(n) = 2^(n / 12) * 440
 *
 * Where n is the number of half-tone steps relative to A4. Frequency is
 * the exact frequency of the note, Cents the deviation of freq from it.
 */
func NoteOf(freq float64) (Note, bool) {

	/*
	 * Non-positive frequencies have no pitch.
	 */
	if !(freq > 0) || math.IsInf(freq, 0) {
		return Note{}, false
	}

	steps := 12.0 * math.Log2(freq/ReferenceFrequency)
	nearest := math.Round(steps)
	cents := 100.0 * (steps - nearest)

	/*
	 * A4 is 9 half-tone steps above C4.
	 */
	fromC := int(nearest) + 9
	idx := ((fromC % 12) + 12) % 12
	octave := 4 + int(math.Floor(float64(fromC)/12.0))

	n := Note{
		Name:      noteNames[idx],
		Octave:    octave,
		Frequency: ReferenceFrequency * math.Pow(2.0, nearest/12.0),
		Cents:     cents,
	}

	return n, true
}

package tuning

import (
	"errors"
	"fmt"
	"math"
)

/*
 * Instrument geometry.
 */
const (
	NumStrings = 6
	MaxFret    = 24
)

/*
 * Errors returned for out-of-range string or fret arguments.
 */
var (
	ErrStringOutOfRange = errors.New("tuning: string number out of range")
	ErrNegativeFret     = errors.New("tuning: negative fret")
	ErrInvalidTuning    = errors.New("tuning: invalid tuning")
)

/*
 * Data structure representing one open string.
 *
 * String 1 is the highest pitched string, string 6 the lowest.
 */
type OpenString struct {
	Number    int     `json:"string" yaml:"string"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
}

/*
 * Data structure representing an instrument tuning.
 */
type Tuning struct {
	name    string
	strings [NumStrings]OpenString
}

/*
 * Creates a tuning from open string frequencies, given from string 1
 * (highest) to string 6 (lowest).
 *
 * Frequencies must be finite, positive and strictly decreasing.
 */
func New(name string, frequencies []float64) (Tuning, error) {
	t := Tuning{
		name: name,
	}

	/*
	 * A tuning always describes the full set of strings.
	 */
	if len(frequencies) != NumStrings {
		return t, fmt.Errorf("%w: need %d open frequencies, got %d", ErrInvalidTuning, NumStrings, len(frequencies))
	}

	for i, freq := range frequencies {

		/*
		 * Reject frequencies which cannot be scaled.
		 */
		if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 {
			return t, fmt.Errorf("%w: string %d has frequency %v", ErrInvalidTuning, i+1, freq)
		}

		/*
		 * Each string must sound lower than the one before it.
		 */
		if i > 0 && freq >= frequencies[i-1] {
			return t, fmt.Errorf("%w: string %d (%.2f Hz) is not lower than string %d (%.2f Hz)", ErrInvalidTuning, i+1, freq, i, frequencies[i-1])
		}

		t.strings[i] = OpenString{
			Number:    i + 1,
			Frequency: freq,
		}
	}

	return t, nil
}

/*
 * Returns the name of the tuning.
 */
func (t Tuning) Name() string {
	return t.name
}

/*
 * Returns the open strings, string 1 first.
 */
func (t Tuning) Strings() []OpenString {
	out := make([]OpenString, NumStrings)
	copy(out, t.strings[:])
	return out
}

/*
 * Returns the frequency of an open string.
 */
func (t Tuning) OpenFrequency(stringNumber int) (float64, error) {

	/*
	 * Verify that the string exists.
	 */
	if stringNumber < 1 || stringNumber > NumStrings {
		return 0, fmt.Errorf("%w: %d (valid: 1..%d)", ErrStringOutOfRange, stringNumber, NumStrings)
	}

	return t.strings[stringNumber-1].Frequency, nil
}

/*
 * Returns the frequency of a fretted note.
 *
 * f(s, n) = f(s, 0) * 2^(n / 12)
 */
func (t Tuning) FretFrequency(stringNumber int, fret int) (float64, error) {
	open, err := t.OpenFrequency(stringNumber)

	if err != nil {
		return 0, err
	}

	if fret < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeFret, fret)
	}

	return scale(open, fret), nil
}

/*
 * Reports whether freq lies within ratio (e. g. 0.05 for 5%) of any
 * open string.
 */
func (t Tuning) NearOpenString(freq float64, ratio float64) bool {

	for _, s := range t.strings {
		diff := math.Abs(freq-s.Frequency) / s.Frequency

		if diff < ratio {
			return true
		}

	}

	return false
}

/*
 * Equal-temperament scaling of a frequency by a number of semitones.
 */
func scale(freq float64, semitones int) float64 {
	exponent := float64(semitones) / 12.0
	return freq * math.Pow(2.0, exponent)
}

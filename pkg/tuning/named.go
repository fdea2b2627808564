package tuning

import (
	"fmt"
	"sort"
)

/*
 * Open string frequencies of the named tunings, string 1 first.
 *
 * Tunings with strings below 80 Hz need a lowered detection floor.
 */
var namedTunings = map[string][]float64{
	"standard":       {329.63, 246.94, 196.00, 146.83, 110.00, 82.41},
	"drop-d":         {329.63, 246.94, 196.00, 146.83, 110.00, 73.42},
	"half-step-down": {311.13, 233.08, 185.00, 138.59, 103.83, 77.78},
	"dadgad":         {293.66, 220.00, 196.00, 146.83, 110.00, 73.42},
	"open-g":         {293.66, 246.94, 196.00, 146.83, 98.00, 73.42},
	"open-d":         {293.66, 220.00, 185.00, 146.83, 110.00, 73.42},
}

/*
 * Returns standard tuning (E2 A2 D3 G3 B3 E4).
 */
func Standard() Tuning {
	t, err := Named("standard")

	/*
	 * The built-in table is known to be valid.
	 */
	if err != nil {
		panic(err)
	}

	return t
}

/*
 * Looks up a tuning by name.
 */
func Named(name string) (Tuning, error) {
	freqs, ok := namedTunings[name]

	if !ok {
		return Tuning{}, fmt.Errorf("%w: unknown tuning %q", ErrInvalidTuning, name)
	}

	return New(name, freqs)
}

/*
 * Returns the names of all built-in tunings in lexical order.
 */
func Names() []string {
	names := make([]string, 0, len(namedTunings))

	for name := range namedTunings {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

package fretboard

/*
 * Data structure representing one step of the fret preference function.
 *
 * Frets up to and including MaxFret have their percent error multiplied
 * by Factor.
 */
type Tier struct {
	MaxFret int     `json:"max_fret" yaml:"max_fret"`
	Factor  float64 `json:"factor" yaml:"factor"`
}

/*
 * Returns the default preference tiers. Open strings are strongly
 * preferred, then the first position, the middle of the neck and finally
 * everything above the twelfth fret.
 */
func DefaultTiers() []Tier {
	tiers := []Tier{
		{MaxFret: 0, Factor: 0.01},
		{MaxFret: 5, Factor: 0.1},
		{MaxFret: 12, Factor: 1},
		{MaxFret: 24, Factor: 10},
	}

	return tiers
}

/*
 * Returns the preference multiplier of a fret.
 *
 * Tiers must be ordered by MaxFret. Frets above the last tier use its
 * factor.
 */
func tierFactor(tiers []Tier, fret int) float64 {
	n := len(tiers)

	/*
	 * Without tiers every fret is equally preferred.
	 */
	if n == 0 {
		return 1.0
	}

	for _, tier := range tiers {

		if fret <= tier.MaxFret {
			return tier.Factor
		}

	}

	return tiers[n-1].Factor
}

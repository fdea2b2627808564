package fretboard

import (
	"errors"
	"math"
	"sort"

	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

/*
 * Global constants.
 */
const (
	DefaultTolerance      = 10.0
	DefaultChordTolerance = 8.0
	DefaultMaxSpan        = 5
	DefaultMinFrequency   = 80.0
	DefaultMaxFrequency   = 1200.0
)

/*
 * Returned when a chord is resolved without any frequencies.
 */
var ErrNoFrequencies = errors.New("fretboard: no frequencies to resolve")

/*
 * Data structure representing a playable position for a frequency.
 */
type Position struct {
	String          int     `json:"string"`
	Fret            int     `json:"fret"`
	Frequency       float64 `json:"frequency"`
	PercentError    float64 `json:"percent_error"`
	PreferenceScore float64 `json:"preference_score"`
}

/*
 * Data structure mapping frequencies to positions on a fretboard.
 *
 * A resolver is read-only after creation and may be shared between
 * goroutines.
 */
type Resolver struct {
	grid           *tuning.Grid
	maxFret        int
	tiers          []Tier
	tolerance      float64
	chordTolerance float64
	maxSpan        int
	minFrequency   float64
	maxFrequency   float64
}

/*
 * Option configuring a resolver.
 */
type Option func(*Resolver)

/*
 * Limits the resolver to frets 0 to maxFret. Values outside the grid are
 * clamped.
 */
func WithMaxFret(maxFret int) Option {
	return func(r *Resolver) {

		if maxFret < 0 {
			maxFret = 0
		} else if maxFret > tuning.MaxFret {
			maxFret = tuning.MaxFret
		}

		r.maxFret = maxFret
	}
}

/*
 * Replaces the preference tiers. Tiers are sorted by MaxFret.
 */
func WithTiers(tiers []Tier) Option {
	return func(r *Resolver) {
		sorted := make([]Tier, len(tiers))
		copy(sorted, tiers)

		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].MaxFret < sorted[j].MaxFret
		})

		r.tiers = sorted
	}
}

/*
 * Sets the single note match tolerance in percent.
 */
func WithTolerance(percent float64) Option {
	return func(r *Resolver) {
		r.tolerance = percent
	}
}

/*
 * Sets the chord match tolerance in percent.
 */
func WithChordTolerance(percent float64) Option {
	return func(r *Resolver) {
		r.chordTolerance = percent
	}
}

/*
 * Sets the largest fret span a chord may cover.
 */
func WithMaxSpan(span int) Option {
	return func(r *Resolver) {
		r.maxSpan = span
	}
}

/*
 * Sets the frequency range accepted by Resolve.
 */
func WithRange(minFrequency float64, maxFrequency float64) Option {
	return func(r *Resolver) {
		r.minFrequency = minFrequency
		r.maxFrequency = maxFrequency
	}
}

/*
 * Returns the tuning the resolver maps onto.
 */
func (r *Resolver) Tuning() tuning.Tuning {
	return r.grid.Tuning()
}

/*
 * Returns the highest fret the resolver considers.
 */
func (r *Resolver) MaxFret() int {
	return r.maxFret
}

/*
 * Reports whether position a ranks before position b.
 */
func better(a Position, b Position) bool {

	if a.PreferenceScore != b.PreferenceScore {
		return a.PreferenceScore < b.PreferenceScore
	} else if a.Fret != b.Fret {
		return a.Fret < b.Fret
	}

	return a.String < b.String
}

/*
 * Find every position within tolerance percent of a frequency, best
 * ranked first.
 *
 * No range check is applied, callers resolving chords rely on this.
 */
func (r *Resolver) AllPositionsWithin(freq float64, tolerance float64) []Position {
	positions := []Position{}

	/*
	 * Non-finite input matches nothing.
	 */
	if math.IsNaN(freq) || math.IsInf(freq, 0) {
		return positions
	}

	for s := 1; s <= tuning.NumStrings; s++ {

		for fret := 0; fret <= r.maxFret; fret++ {
			gridFreq := r.grid.At(s, fret)
			percentError := math.Abs(freq-gridFreq) / gridFreq * 100.0

			/*
			 * Only keep positions close enough to the frequency.
			 */
			if percentError <= tolerance {
				p := Position{
					String:          s,
					Fret:            fret,
					Frequency:       gridFreq,
					PercentError:    percentError,
					PreferenceScore: percentError * tierFactor(r.tiers, fret),
				}

				positions = append(positions, p)
			}

		}

	}

	sort.Slice(positions, func(i, j int) bool {
		return better(positions[i], positions[j])
	})

	return positions
}

/*
 * Find the preferred position for a frequency using the configured
 * tolerance.
 */
func (r *Resolver) Resolve(freq float64) (Position, bool) {
	return r.ResolveWithin(freq, r.tolerance)
}

/*
 * Find the preferred position for a frequency.
 *
 * Returns false if the frequency is outside the instrument range or no
 * position lies within tolerance.
 */
func (r *Resolver) ResolveWithin(freq float64, tolerance float64) (Position, bool) {

	/*
	 * Reject frequencies the instrument cannot produce.
	 */
	if !(freq >= r.minFrequency && freq <= r.maxFrequency) {
		return Position{}, false
	}

	best := Position{}
	found := false

	for s := 1; s <= tuning.NumStrings; s++ {

		for fret := 0; fret <= r.maxFret; fret++ {
			gridFreq := r.grid.At(s, fret)
			percentError := math.Abs(freq-gridFreq) / gridFreq * 100.0

			if percentError > tolerance {
				continue
			}

			p := Position{
				String:          s,
				Fret:            fret,
				Frequency:       gridFreq,
				PercentError:    percentError,
				PreferenceScore: percentError * tierFactor(r.tiers, fret),
			}

			if !found || better(p, best) {
				best = p
				found = true
			}

		}

	}

	return best, found
}

/*
 * Creates a resolver for a tuning.
 */
func Create(t tuning.Tuning, opts ...Option) *Resolver {

	/*
	 * Create data structure for a resolver with default settings.
	 */
	r := Resolver{
		grid:           t.BuildGrid(),
		maxFret:        tuning.MaxFret,
		tiers:          DefaultTiers(),
		tolerance:      DefaultTolerance,
		chordTolerance: DefaultChordTolerance,
		maxSpan:        DefaultMaxSpan,
		minFrequency:   DefaultMinFrequency,
		maxFrequency:   DefaultMaxFrequency,
	}

	for _, opt := range opts {
		opt(&r)
	}

	return &r
}

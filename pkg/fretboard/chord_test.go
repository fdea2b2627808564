package fretboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

func distinctStrings(t *testing.T, a Assignment) {
	t.Helper()
	seen := map[int]bool{}

	for _, p := range a {
		assert.False(t, seen[p.String], "string %d used twice", p.String)
		seen[p.String] = true
	}
}

func TestResolveChordOpenStrings(t *testing.T) {
	r := Create(tuning.Standard())

	a, err := r.ResolveChord([]float64{110.00, 146.83})
	require.NoError(t, err)
	require.Len(t, a, 2)
	distinctStrings(t, a)
	assert.LessOrEqual(t, a.Span(), DefaultMaxSpan)
	assert.Equal(t, Position{String: 5, Fret: 0}, Position{String: a[0].String, Fret: a[0].Fret})
	assert.Equal(t, Position{String: 4, Fret: 0}, Position{String: a[1].String, Fret: a[1].Fret})
}

func TestResolveChordSameFrequencyTwice(t *testing.T) {
	r := Create(tuning.Standard())

	a, err := r.ResolveChord([]float64{110, 110})
	require.NoError(t, err)

	if len(a) > 0 {
		require.Len(t, a, 2)
		distinctStrings(t, a)
		assert.LessOrEqual(t, a.Span(), DefaultMaxSpan)
	}
}

func TestResolveChordMajorTriad(t *testing.T) {
	r := Create(tuning.Standard())

	/*
	 * Open E major: E2 B2 E3 G#3.
	 */
	a, err := r.ResolveChord([]float64{82.41, 123.47, 164.81, 207.65})
	require.NoError(t, err)
	require.Len(t, a, 4)
	distinctStrings(t, a)
	assert.LessOrEqual(t, a.Span(), DefaultMaxSpan)

	for i, p := range a {
		assert.LessOrEqual(t, p.PercentError, DefaultChordTolerance, "note %d", i)
	}
}

func TestResolveChordUnplayable(t *testing.T) {
	r := Create(tuning.Standard())

	tests := []struct {
		name  string
		freqs []float64
	}{
		{"only one string fits", []float64{82.41, 87.31, 92.50}},
		{"span too wide", []float64{82.41, 1318.51}},
		{"more notes than strings", []float64{82.41, 110, 146.83, 196, 246.94, 329.63, 392}},
		{"note without position", []float64{110, 5000}},
		{"single note out of range", []float64{50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := r.ResolveChord(tt.freqs)
			require.NoError(t, err)
			assert.Empty(t, a)
		})
	}
}

func TestResolveChordSingleNoteDelegates(t *testing.T) {
	r := Create(tuning.Standard())

	a, err := r.ResolveChord([]float64{82.41})
	require.NoError(t, err)
	require.Len(t, a, 1)

	p, ok := r.Resolve(82.41)
	require.True(t, ok)
	assert.Equal(t, p, a[0])
}

func TestResolveChordEmpty(t *testing.T) {
	r := Create(tuning.Standard())

	_, err := r.ResolveChord(nil)
	assert.True(t, errors.Is(err, ErrNoFrequencies))
}

func TestResolveChordPrefersNarrowSpan(t *testing.T) {
	r := Create(tuning.Standard())

	a, err := r.ResolveChordWithin([]float64{110, 110}, 8, 5)
	require.NoError(t, err)
	require.Len(t, a, 2)

	/*
	 * Any other distinct-string pairing within tolerance is at least as wide.
	 */
	for _, x := range r.AllPositionsWithin(110, 8) {

		for _, y := range r.AllPositionsWithin(110, 8) {

			if x.String != y.String {
				assert.GreaterOrEqual(t, Assignment{x, y}.Span(), a.Span())
			}

		}

	}
}

func TestAssignmentSpan(t *testing.T) {
	assert.Equal(t, 0, Assignment{}.Span())
	assert.Equal(t, 3, Assignment{{Fret: 2}, {Fret: 5}, {Fret: 4}}.Span())
	assert.Equal(t, 5, Assignment{{Fret: 7}, {Fret: 2}}.Span())
}

func TestResolveChordTieBreak(t *testing.T) {
	r := Create(tuning.Standard())

	tests := []struct {
		name  string
		freqs []float64
		want  []Position
	}{
		{
			/*
			 * s5f1 with s6f4 and s6f4 with s5f1 both span three frets.
			 * The first note's better ranked candidate is found first.
			 */
			name:  "equal spans keep the first found",
			freqs: []float64{110, 110},
			want:  []Position{{String: 5, Fret: 1}, {String: 6, Fret: 4}},
		},
		{
			name:  "open strings",
			freqs: []float64{146.83, 110},
			want:  []Position{{String: 4, Fret: 0}, {String: 5, Fret: 0}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := r.ResolveChord(tc.freqs)
			require.NoError(t, err)
			require.Len(t, a, len(tc.want))

			got := make([]Position, len(a))

			for i, p := range a {
				got[i] = Position{String: p.String, Fret: p.Fret}
			}

			assert.Equal(t, tc.want, got)
		})
	}
}

package tuning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardOpenFrequencies(t *testing.T) {
	std := Standard()
	expected := []float64{329.63, 246.94, 196.00, 146.83, 110.00, 82.41}

	for i, want := range expected {
		got, err := std.OpenFrequency(i + 1)
		require.NoError(t, err)
		assert.Equal(t, want, got, "string %d", i+1)
	}
}

func TestFretFrequency(t *testing.T) {
	std := Standard()

	tests := []struct {
		name   string
		str    int
		fret   int
		expect float64
	}{
		{"open low e", 6, 0, 82.41},
		{"octave low e", 6, 12, 164.82},
		{"a string fifth fret", 5, 5, 146.832},
		{"two octaves", 1, 24, 1318.52},
		{"beyond grid", 6, 30, 82.41 * 5.6569},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := std.FretFrequency(tt.str, tt.fret)
			require.NoError(t, err)
			assert.InDelta(t, tt.expect, got, 0.01)
		})
	}
}

func TestFretFrequencyRejectsInvalidArguments(t *testing.T) {
	std := Standard()

	_, err := std.FretFrequency(0, 1)
	assert.True(t, errors.Is(err, ErrStringOutOfRange))

	_, err = std.FretFrequency(7, 1)
	assert.True(t, errors.Is(err, ErrStringOutOfRange))

	_, err = std.FretFrequency(3, -1)
	assert.True(t, errors.Is(err, ErrNegativeFret))

	_, err = std.OpenFrequency(-2)
	assert.True(t, errors.Is(err, ErrStringOutOfRange))
}

func TestNewValidatesOrdering(t *testing.T) {
	_, err := New("short", []float64{329.63, 246.94})
	assert.True(t, errors.Is(err, ErrInvalidTuning))

	_, err = New("ascending", []float64{82.41, 110, 146.83, 196, 246.94, 329.63})
	assert.True(t, errors.Is(err, ErrInvalidTuning))

	_, err = New("zero", []float64{329.63, 246.94, 196.00, 146.83, 110.00, 0})
	assert.True(t, errors.Is(err, ErrInvalidTuning))

	tn, err := New("custom", []float64{392, 329.63, 196, 146.83, 110, 82.41})
	require.NoError(t, err)
	assert.Equal(t, "custom", tn.Name())
	assert.Equal(t, 6, tn.Strings()[5].Number)
}

func TestNamedTunings(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			tn, err := Named(name)
			require.NoError(t, err)
			assert.Equal(t, name, tn.Name())
		})
	}

	_, err := Named("banjo")
	assert.Error(t, err)
}

func TestGridIsMonotonicPerString(t *testing.T) {
	grid := Standard().BuildGrid()

	for s := 1; s <= NumStrings; s++ {

		for fret := 1; fret <= MaxFret; fret++ {
			lower, err := grid.Frequency(s, fret-1)
			require.NoError(t, err)
			higher, err := grid.Frequency(s, fret)
			require.NoError(t, err)
			assert.Less(t, lower, higher, "string %d fret %d", s, fret)
		}

	}
}

func TestGridMatchesFretFrequency(t *testing.T) {
	std := Standard()
	grid := std.BuildGrid()
	cells := grid.Cells()
	require.Len(t, cells, NumStrings*(MaxFret+1))

	for _, c := range cells {
		want, err := std.FretFrequency(c.String, c.Fret)
		require.NoError(t, err)
		assert.Equal(t, want, c.Frequency)
		assert.Equal(t, want, grid.At(c.String, c.Fret))
	}

	_, err := grid.Frequency(1, MaxFret+1)
	assert.Error(t, err)
}

func TestNearOpenString(t *testing.T) {
	std := Standard()
	assert.True(t, std.NearOpenString(111, 0.05))
	assert.True(t, std.NearOpenString(82.41, 0.05))
	assert.False(t, std.NearOpenString(130.81, 0.05))
}

func TestNoteOf(t *testing.T) {
	tests := []struct {
		freq   float64
		name   string
		octave int
	}{
		{440, "A", 4},
		{110, "A", 2},
		{82.41, "E", 2},
		{261.63, "C", 4},
		{246.94, "B", 3},
		{1174.66, "D", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := NoteOf(tt.freq)
			require.True(t, ok)
			assert.Equal(t, tt.name, n.Name)
			assert.Equal(t, tt.octave, n.Octave)
			assert.InDelta(t, 0, n.Cents, 5)
		})
	}

	n, ok := NoteOf(452.0)
	require.True(t, ok)
	assert.Equal(t, "A4", n.String())
	assert.InDelta(t, 46.6, n.Cents, 0.5)

	_, ok = NoteOf(0)
	assert.False(t, ok)
}

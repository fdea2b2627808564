package pitch

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"sync"

	"github.com/andrepxx/go-dsp-guitar/fft"
)

/*
 * Data structure representing a spectral peak.
 */
type Peak struct {
	Frequency float64 `json:"frequency"`
	Magnitude float64 `json:"magnitude"`
}

/*
 * Data structure representing the tunable parameters of the peak picker.
 */
type PeakConfig struct {
	MinFrequency      float64
	MaxFrequency      float64
	MaxPeaks          int
	RelativeFloor     float64
	HarmonicTolerance float64
	MaxHarmonic       int
}

/*
 * Data structure representing a spectral peak picker, used to find
 * simultaneous notes in one frame.
 */
type PeakPicker struct {
	config           PeakConfig
	mutexAnalyze     sync.Mutex
	fourierTransform fft.FourierTransform
	bufSignal        []float64
	bufFFT           []complex128
	bufMagnitude     []float64
}

/*
 * Returns the default peak picker configuration.
 */
func DefaultPeakConfig() PeakConfig {

	/*
	 * Create default configuration.
	 */
	c := PeakConfig{
		MinFrequency:      80,
		MaxFrequency:      1200,
		MaxPeaks:          5,
		RelativeFloor:     0.1,
		HarmonicTolerance: 0.03,
		MaxHarmonic:       6,
	}

	return c
}

/*
 * Find the maximum value in a buffer.
 */
func findMaximum(buf []float64) (float64, int) {
	maxVal := math.Inf(-1)
	maxIdx := int(-1)

	/*
	 * Iterate over the buffer and find the maximum value.
	 */
	for idx, value := range buf {

		/*
		 * If we found a value which is greater than any value we
		 * encountered so far, make it the new candidate.
		 */
		if value > maxVal {
			maxVal = value
			maxIdx = idx
		}

	}

	return maxVal, maxIdx
}

/*
 * Estimates the sub-bin position of a peak from its neighbours by fitting
 * a parabola through three points.
 */
func shiftEstimation(valueLeft float64, maxVal float64, valueRight float64) float64 {
	valueDiff := valueRight - valueLeft
	valueSum := valueRight + valueLeft
	halfDiff := 0.5 * valueDiff
	doubleMaxVal := 2.0 * maxVal
	denominatorDiff := doubleMaxVal - valueSum

	/*
	 * A flat top has no defined vertex.
	 */
	if denominatorDiff == 0 {
		return 0
	}

	shift := halfDiff / denominatorDiff

	/*
	 * Limit shift estimation to plus/minus half a bin.
	 */
	if shift < -0.5 {
		shift = -0.5
	} else if shift > 0.5 {
		shift = 0.5
	}

	return shift
}

/*
 * Reports whether two frequencies are within tolerance of an integer
 * ratio between 1 and maxHarmonic.
 */
func related(a float64, b float64, tolerance float64, maxHarmonic int) bool {
	low := math.Min(a, b)
	high := math.Max(a, b)

	for h := 1; h <= maxHarmonic; h++ {
		expected := low * float64(h)

		if math.Abs(high-expected)/expected <= tolerance {
			return true
		}

	}

	return false
}

/*
 * Ensures that all buffers are of correct length.
 */
func (p *PeakPicker) ensureBuffers(size uint64) {

	if uint64(len(p.bufSignal)) != size {
		p.bufSignal = make([]float64, size)
	}

	if uint64(len(p.bufFFT)) != size {
		p.bufFFT = make([]complex128, size)
	}

	half := size/2 + 1

	if uint64(len(p.bufMagnitude)) != half {
		p.bufMagnitude = make([]float64, half)
	}

}

/*
 * Find the strongest, harmonically unrelated spectral peaks of a frame
 * within the configured frequency range.
 *
 * Peaks are returned in ascending order of frequency. A silent frame
 * yields no peaks.
 */
func (p *PeakPicker) Peaks(frame Frame) ([]Peak, error) {
	err := validateFrame(frame)

	if err != nil {
		return nil, err
	}

	cfg := p.config
	samples := frame.Samples
	n := len(samples)
	twoN := uint64(2 * n)
	fftSize, _ := fft.NextPowerOfTwo(twoN)
	p.mutexAnalyze.Lock()
	defer p.mutexAnalyze.Unlock()
	p.ensureBuffers(fftSize)
	bufSignal := p.bufSignal
	bufFFT := p.bufFFT
	nFloat := float64(n - 1)

	/*
	 * Apply a Hann window to reduce spectral leakage.
	 */
	for i, value := range samples {
		w := 0.5 - 0.5*math.Cos(2.0*math.Pi*float64(i)/nFloat)
		bufSignal[i] = w * value
	}

	tailBuffer := bufSignal[n:fftSize]
	fft.ZeroFloat(tailBuffer)
	err = p.fourierTransform.RealFourier(bufSignal, bufFFT, fft.SCALING_DEFAULT)

	/*
	 * Verify that the forward FFT was calculated successfully.
	 */
	if err != nil {
		return nil, fmt.Errorf("pitch: failed to calculate forward FFT: %w", err)
	}

	magnitude := p.bufMagnitude

	for i := range magnitude {
		magnitude[i] = cmplx.Abs(bufFFT[i])
	}

	binWidth := frame.SampleRate / float64(fftSize)
	lastBin := len(magnitude) - 2
	lowIdx := int(math.Ceil(cfg.MinFrequency / binWidth))
	highIdx := int(math.Floor(cfg.MaxFrequency / binWidth))

	/*
	 * Keep one neighbour on each side for interpolation.
	 */
	if lowIdx < 1 {
		lowIdx = 1
	}

	if highIdx > lastBin {
		highIdx = lastBin
	}

	if lowIdx > highIdx {
		return nil, nil
	}

	maxVal, _ := findMaximum(magnitude[lowIdx : highIdx+1])

	/*
	 * Nothing but silence in range.
	 */
	if !(maxVal > 0) {
		return nil, nil
	}

	floor := cfg.RelativeFloor * maxVal
	candidates := []Peak{}

	/*
	 * Collect local maxima above the floor.
	 */
	for idx := lowIdx; idx <= highIdx; idx++ {
		value := magnitude[idx]
		valueLeft := magnitude[idx-1]
		valueRight := magnitude[idx+1]

		if value >= floor && value > valueLeft && value >= valueRight {
			shift := shiftEstimation(valueLeft, value, valueRight)
			peak := Peak{
				Frequency: (float64(idx) + shift) * binWidth,
				Magnitude: value / maxVal,
			}

			candidates = append(candidates, peak)
		}

	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Magnitude > candidates[j].Magnitude
	})

	peaks := []Peak{}

	/*
	 * Strongest peaks win, harmonics of an accepted peak are dropped.
	 */
	for _, candidate := range candidates {

		if len(peaks) >= cfg.MaxPeaks {
			break
		}

		accept := true

		for _, accepted := range peaks {

			if related(candidate.Frequency, accepted.Frequency, cfg.HarmonicTolerance, cfg.MaxHarmonic) {
				accept = false
				break
			}

		}

		if accept {
			peaks = append(peaks, candidate)
		}

	}

	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].Frequency < peaks[j].Frequency
	})

	return peaks, nil
}

/*
 * Creates a spectral peak picker.
 */
func CreatePeakPicker(config PeakConfig) *PeakPicker {
	ft := fft.CreateFourierTransform()

	/*
	 * Create data structure for a peak picker.
	 */
	p := PeakPicker{
		config:           config,
		fourierTransform: ft,
	}

	return &p
}

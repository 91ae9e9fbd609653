package spectral

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// HzToMel converts frequency in Hz to mel scale
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// Linspace returns n equally spaced points from a to b inclusive
func Linspace(a, b float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{a}
	}

	points := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range points {
		points[i] = a + float64(i)*step
	}
	points[n-1] = b
	return points
}

// MelBins maps filts+2 equally spaced mel points over [0, samplingRate/2]
// to FFT bin indices floor((1+fftSize)*hz/samplingRate).
func MelBins(filts, fftSize int, samplingRate float64) []int {
	melPoints := Linspace(HzToMel(0), HzToMel(samplingRate/2.0), filts+2)

	bins := make([]int, len(melPoints))
	for k, mel := range melPoints {
		bins[k] = int(math.Floor(float64(1+fftSize) * MelToHz(mel) / samplingRate))
	}
	return bins
}

// MelFilterbank builds the triangular filterbank as a filts x (1+fftSize/2)
// matrix. Row j ramps 0->1 over [bins[j], bins[j+1]) and 1->0 over
// [bins[j+1], bins[j+2]); everything else is zero.
func MelFilterbank(filts, fftSize int, samplingRate float64) *mat.Dense {
	numFreqs := 1 + fftSize/2
	bins := MelBins(filts, fftSize, samplingRate)

	fbank := mat.NewDense(filts, numFreqs, nil)
	for j := 0; j < filts; j++ {
		left, center, right := bins[j], bins[j+1], bins[j+2]

		// Rising edge
		for i := left; i < center && i < numFreqs; i++ {
			fbank.Set(j, i, float64(i-left)/float64(center-left))
		}

		// Falling edge
		for i := center; i < right && i < numFreqs; i++ {
			fbank.Set(j, i, float64(right-i)/float64(right-center))
		}
	}

	return fbank
}

// ApplyFilterBank projects each row of a power spectrogram
// (frames x freqs) through the filterbank, giving frames x filts.
func ApplyFilterBank(power *mat.Dense, filterBank *mat.Dense) *mat.Dense {
	frames, _ := power.Dims()
	filts, _ := filterBank.Dims()

	mel := mat.NewDense(frames, filts, nil)
	mel.Mul(power, filterBank.T())
	return mel
}

package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides real-input Fourier analysis
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Magnitude writes |X[k]| for the first len(dst) bins of the DFT of x.
// len(dst) must not exceed len(x). Any length is accepted, not only powers
// of two.
func (f *FFT) Magnitude(x []float64, dst []float64) {
	if len(x) == 0 {
		return
	}

	spectrum := fft.FFTReal(x)
	for k := range dst {
		dst[k] = cmplx.Abs(spectrum[k])
	}
}

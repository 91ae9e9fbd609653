package windowing

import "math"

// hann computes 0.5 - 0.5*cos(2*pi*i/steps)
func hann(steps int) []float64 {
	coeffs := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		coeffs[i] = 0.5 - 0.5*math.Cos(2.0*math.Pi*float64(i)/float64(steps))
	}
	return coeffs
}

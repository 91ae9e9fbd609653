package windowing

import "math"

// hamming computes 0.54 - 0.46*cos(2*pi*i/steps)
func hamming(steps int) []float64 {
	coeffs := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		coeffs[i] = 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(i)/float64(steps))
	}
	return coeffs
}

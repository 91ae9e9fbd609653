package windowing

import "math"

// bartlett is the triangular window 1 - 2*|i - steps/2| / steps
func bartlett(steps int) []float64 {
	half := float64(steps) / 2.0

	coeffs := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		coeffs[i] = 1.0 - 2.0*math.Abs(float64(i)-half)/float64(steps)
	}
	return coeffs
}

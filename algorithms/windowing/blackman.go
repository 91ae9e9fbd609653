package windowing

import "math"

// blackman is the classic three-term window with a0=0.42, a1=0.5, a2=0.08
func blackman(steps int) []float64 {
	a0, a1, a2 := 0.42, 0.5, 0.08

	coeffs := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		arg := 2.0 * math.Pi * float64(i) / float64(steps)
		coeffs[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg)
	}
	return coeffs
}

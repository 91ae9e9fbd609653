package windowing

// rectangular leaves frames untouched
func rectangular(steps int) []float64 {
	coeffs := make([]float64, steps+1)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	return coeffs
}

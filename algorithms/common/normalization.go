package common

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Clamp clamps value to [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SaturateUint8 rounds half to even and clamps to [0, 255]
func SaturateUint8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(Clamp(math.RoundToEven(v), 0, 255))
}

// MinMaxToUint8 linearly maps m onto [0, 255] and writes it row major into
// dst, using stride bytes per destination row. A constant matrix maps to 0.
func MinMaxToUint8(m *mat.Dense, dst []byte, stride int) error {
	rows, cols := m.Dims()
	if cols > stride {
		return fmt.Errorf("matrix width (%d) exceeds destination stride (%d)", cols, stride)
	}
	if rows > 0 && (rows-1)*stride+cols > len(dst) {
		return fmt.Errorf("destination too small: need %d bytes, have %d", (rows-1)*stride+cols, len(dst))
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	row := make([]float64, cols)
	for r := 0; r < rows; r++ {
		mat.Row(row, r, m)
		lo = math.Min(lo, floats.Min(row))
		hi = math.Max(hi, floats.Max(row))
	}

	scale := 0.0
	if hi-lo > math.SmallestNonzeroFloat64 {
		scale = 255.0 / (hi - lo)
	}

	for r := 0; r < rows; r++ {
		mat.Row(row, r, m)
		out := dst[r*stride : r*stride+cols]
		for c, v := range row {
			out[c] = SaturateUint8((v - lo) * scale)
		}
	}

	return nil
}

// Uint8ToDense copies a rows x cols byte image into a new matrix
func Uint8ToDense(src []byte, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(src[i])
	}
	return mat.NewDense(rows, cols, data)
}

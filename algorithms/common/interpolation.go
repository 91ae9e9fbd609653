package common

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// InterpolationType defines interpolation method
type InterpolationType int

const (
	Cubic InterpolationType = iota
	Area
)

// CubicInterpolate evaluates a Catmull-Rom spline through y0..y3 at
// fractional position t between y1 and y2.
func CubicInterpolate(y0, y1, y2, y3, t float64) float64 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*t*t*t + a1*t*t + a2*t + a3
}

// ScaledLength returns round(n*fx), never less than one
func ScaledLength(n int, fx float64) int {
	return max(1, int(math.Round(float64(n)*fx)))
}

// ResizeColumns rescales the column axis of src by fx, leaving rows as they
// are. Enlarging uses cubic interpolation, shrinking uses area averaging.
func ResizeColumns(src *mat.Dense, fx float64) *mat.Dense {
	method := Area
	if fx > 1.0 {
		method = Cubic
	}
	return ResizeColumnsWith(src, fx, method)
}

// ResizeColumnsWith rescales the column axis of src by fx using method
func ResizeColumnsWith(src *mat.Dense, fx float64, method InterpolationType) *mat.Dense {
	rows, cols := src.Dims()
	dstCols := ScaledLength(cols, fx)
	dst := mat.NewDense(rows, dstCols, nil)

	row := make([]float64, cols)
	out := make([]float64, dstCols)
	for r := 0; r < rows; r++ {
		mat.Row(row, r, src)
		switch method {
		case Cubic:
			cubicRow(row, out, fx)
		default:
			areaRow(row, out, fx)
		}
		dst.SetRow(r, out)
	}

	return dst
}

// cubicRow maps each output sample back to (dx+0.5)/fx-0.5 in the source,
// replicating the border samples.
func cubicRow(src, dst []float64, fx float64) {
	last := len(src) - 1
	at := func(i int) float64 {
		return src[min(max(i, 0), last)]
	}

	for dx := range dst {
		sx := (float64(dx)+0.5)/fx - 0.5
		i := int(math.Floor(sx))
		t := sx - float64(i)
		dst[dx] = CubicInterpolate(at(i-1), at(i), at(i+1), at(i+2), t)
	}
}

// areaRow averages the source samples covered by each output sample,
// weighting partially covered samples by their overlap.
func areaRow(src, dst []float64, fx float64) {
	scale := 1.0 / fx
	n := float64(len(src))

	for dx := range dst {
		start := float64(dx) * scale
		end := math.Min(start+scale, n)
		if start >= n {
			dst[dx] = src[len(src)-1]
			continue
		}

		sum, weight := 0.0, 0.0
		for sx := int(math.Floor(start)); float64(sx) < end; sx++ {
			overlap := math.Min(end, float64(sx+1)) - math.Max(start, float64(sx))
			if overlap <= 0 {
				continue
			}
			sum += src[sx] * overlap
			weight += overlap
		}

		if weight > 0 {
			dst[dx] = sum / weight
		}
	}
}

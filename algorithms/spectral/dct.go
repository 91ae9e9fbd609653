package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DCT computes the orthonormal DCT-II of fixed-length rows
type DCT struct {
	size   int
	matrix *mat.Dense // size x size, row k holds basis function k
}

// NewDCT precomputes the cosine basis for rows of length size
func NewDCT(size int) (*DCT, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid DCT size: %d", size)
	}

	basis := mat.NewDense(size, size, nil)
	n := float64(size)
	for k := 0; k < size; k++ {
		scale := math.Sqrt(2.0 / n)
		if k == 0 {
			scale = math.Sqrt(1.0 / n)
		}
		for i := 0; i < size; i++ {
			basis.Set(k, i, scale*math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/n))
		}
	}

	return &DCT{size: size, matrix: basis}, nil
}

// Size returns the row length the transform was built for
func (d *DCT) Size() int {
	return d.size
}

// Transform returns the DCT of a single row
func (d *DCT) Transform(x []float64) ([]float64, error) {
	if len(x) != d.size {
		return nil, fmt.Errorf("row length (%d) doesn't match DCT size (%d)", len(x), d.size)
	}

	out := mat.NewVecDense(d.size, nil)
	out.MulVec(d.matrix, mat.NewVecDense(d.size, x))
	return out.RawVector().Data, nil
}

// TransformRows applies the DCT to every row of m and returns a new matrix
func (d *DCT) TransformRows(m *mat.Dense) (*mat.Dense, error) {
	rows, cols := m.Dims()
	if cols != d.size {
		return nil, fmt.Errorf("matrix width (%d) doesn't match DCT size (%d)", cols, d.size)
	}

	out := mat.NewDense(rows, cols, nil)
	out.Mul(m, d.matrix.T())
	return out, nil
}

package transform

import (
	"gonum.org/v1/gonum/mat"

	"github.com/orena1/bigstream/pkg/ndarray"
)

// denseFromArray converts a rank-2 ndarray into an affine transform.
func denseFromArray(a *ndarray.Array) (*Affine, error) {
	shape := a.Shape()
	m := mat.NewDense(shape[0], shape[1], append([]float64(nil), a.Data()...))
	return NewAffine(m)
}

// AffineFromValues builds an affine from row-major homogeneous matrix values.
func AffineFromValues(d int, values []float64) (*Affine, error) {
	return NewAffine(mat.NewDense(d+1, d+1, append([]float64(nil), values...)))
}

// Translation returns the affine that shifts points by the given offset.
func Translation(offset []float64) *Affine {
	d := len(offset)
	a := Identity(d)
	for i := 0; i < d; i++ {
		a.m.Set(i, d, offset[i])
	}
	return a
}

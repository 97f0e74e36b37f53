// Package transform models the spatial transforms the engine resamples
// through: affine matrices and dense displacement fields, composed into
// chains.
//
// All transforms act on absolute physical coordinates. An affine transform is
// location-independent and costs nothing to restrict to a block. A
// displacement field is sampled on its own voxel grid with its own spacing
// and origin, generally at a different resolution than the image it deforms;
// restricting it to a block means cropping that grid to the voxel range
// covering the block's physical footprint.
package transform

import (
	"gonum.org/v1/gonum/mat"

	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/ndarray"
)

// Transform is one element of a transform chain.
type Transform interface {
	// NDim returns the spatial rank the transform acts on.
	NDim() int

	// Localize restricts the transform to the physical bounds [lo, hi).
	// Affine transforms return themselves; fields return a cropped view
	// carrying its own origin.
	Localize(lo, hi []float64) (Transform, error)

	// Apply maps a single physical point. The returned slice is freshly
	// allocated and has length NDim.
	Apply(pt []float64) []float64
}

// Affine is a linear-plus-translation map stored as a (d+1)x(d+1) matrix in
// homogeneous form. The same matrix applies everywhere, so localization is a
// no-op.
type Affine struct {
	m *mat.Dense
	d int
}

// NewAffine wraps a homogeneous matrix as an affine transform. The matrix
// must be square with at least two rows.
func NewAffine(m *mat.Dense) (*Affine, error) {
	r, c := m.Dims()
	if r != c || r < 2 {
		return nil, errors.New(errors.ErrCodeInvalidTransform,
			"affine matrix must be square (d+1)x(d+1), got %dx%d", r, c)
	}
	return &Affine{m: m, d: r - 1}, nil
}

// Identity returns the d-dimensional identity transform.
func Identity(d int) *Affine {
	m := mat.NewDense(d+1, d+1, nil)
	for i := 0; i <= d; i++ {
		m.Set(i, i, 1)
	}
	a, _ := NewAffine(m)
	return a
}

// NDim returns the spatial rank.
func (a *Affine) NDim() int { return a.d }

// Matrix returns the underlying homogeneous matrix.
func (a *Affine) Matrix() *mat.Dense { return a.m }

// Localize returns the affine unchanged; the matrix is valid everywhere.
func (a *Affine) Localize(lo, hi []float64) (Transform, error) { return a, nil }

// Apply maps pt through the linear part and translation.
func (a *Affine) Apply(pt []float64) []float64 {
	out := make([]float64, a.d)
	for i := 0; i < a.d; i++ {
		v := a.m.At(i, a.d)
		for j := 0; j < a.d; j++ {
			v += a.m.At(i, j) * pt[j]
		}
		out[i] = v
	}
	return out
}

// Invert returns the inverse affine transform.
func (a *Affine) Invert() (*Affine, error) {
	var inv mat.Dense
	if err := inv.Inverse(a.m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTransform, err, "affine matrix is singular")
	}
	return NewAffine(&inv)
}

// Field is a dense displacement vector field on its own sampling grid. The
// data has rank d+1 with a trailing component axis of length d; Spacing and
// Origin place the grid in physical space. Applying the field to a physical
// point adds the interpolated displacement at that point.
type Field struct {
	Data    *ndarray.Array
	Spacing []float64
	Origin  []float64
}

// NewField validates and wraps a displacement field. The origin may be nil
// for a grid anchored at zero.
func NewField(data *ndarray.Array, spacing, origin []float64) (*Field, error) {
	d := data.Rank() - 1
	if d < 1 || data.Shape()[d] != d {
		return nil, errors.New(errors.ErrCodeInvalidTransform,
			"displacement field must have rank d+1 with trailing axis d, got shape %v", data.Shape())
	}
	if len(spacing) != d {
		return nil, errors.New(errors.ErrCodeSpacingMismatch,
			"field spacing has %d entries for %d spatial dims", len(spacing), d)
	}
	if origin == nil {
		origin = make([]float64, d)
	} else if len(origin) != d {
		return nil, errors.New(errors.ErrCodeSpacingMismatch,
			"field origin has %d entries for %d spatial dims", len(origin), d)
	}
	return &Field{Data: data, Spacing: spacing, Origin: origin}, nil
}

// NDim returns the spatial rank.
func (f *Field) NDim() int { return f.Data.Rank() - 1 }

// Apply adds the displacement interpolated at pt. Positions outside the
// field's support clamp to the edge.
func (f *Field) Apply(pt []float64) []float64 {
	d := f.NDim()
	vox := make([]float64, d)
	for i := 0; i < d; i++ {
		vox[i] = (pt[i] - f.Origin[i]) / f.Spacing[i]
	}
	disp := f.Data.SampleVector(vox, ndarray.Clamp)
	out := make([]float64, d)
	for i := 0; i < d; i++ {
		out[i] = pt[i] + disp[i]
	}
	return out
}

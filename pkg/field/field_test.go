package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
)

// constantField builds a d=2 field of the given shape with a constant
// displacement.
func constantField(shape []int, disp []float64) *ndarray.Array {
	f := ndarray.New(append(append([]int(nil), shape...), len(disp)))
	for vox := range grid.MultiIndex(shape) {
		for c, v := range disp {
			f.Set(v, append(append([]int(nil), vox...), c)...)
		}
	}
	return f
}

// smoothField builds a small sinusoidal 2d field, the kind of displacement
// the inversion iteration is designed for.
func smoothField(n int, amplitude float64) *ndarray.Array {
	f := ndarray.New([]int{n, n, 2})
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			f.Set(amplitude*math.Sin(2*math.Pi*float64(i)/float64(n)), i, j, 0)
			f.Set(amplitude*math.Cos(2*math.Pi*float64(j)/float64(n)), i, j, 1)
		}
	}
	return f
}

func TestComposeConstant(t *testing.T) {
	spacing := []float64{1, 1}
	a := constantField([]int{6, 6}, []float64{1, 0})
	b := constantField([]int{6, 6}, []float64{0.5, 0.25})

	c := Compose(a, b, spacing)
	// Constant fields compose by addition.
	assert.InDelta(t, 1.5, c.At(2, 2, 0), 1e-12)
	assert.InDelta(t, 0.25, c.At(2, 2, 1), 1e-12)
}

func TestComposeZeroIsIdentity(t *testing.T) {
	spacing := []float64{1, 1}
	f := smoothField(8, 0.5)
	zero := ndarray.New([]int{8, 8, 2})

	got := Compose(f, zero, spacing)
	require.Equal(t, f.Shape(), got.Shape())
	for i, v := range f.Data() {
		assert.InDelta(t, v, got.Data()[i], 1e-12)
	}
}

func TestSquareRoot(t *testing.T) {
	spacing := []float64{1, 1}
	f := smoothField(12, 0.4)

	root := SquareRoot(f, spacing, 10, 0.5)
	back := Compose(root, root, spacing)

	// root∘root must be close to f away from the grid edge, where the
	// composition lookups clamp.
	for i := 3; i < 9; i++ {
		for j := 3; j < 9; j++ {
			for c := 0; c < 2; c++ {
				assert.InDelta(t, f.At(i, j, c), back.At(i, j, c), 0.05,
					"voxel (%d,%d) component %d", i, j, c)
			}
		}
	}
}

func TestInvertResidual(t *testing.T) {
	spacing := []float64{1, 1}
	f := smoothField(16, 0.5)

	inv := Invert(f, spacing, DefaultOptions())
	residual := Compose(f, inv, spacing)

	// f∘inv should vanish on interior voxels.
	for i := 4; i < 12; i++ {
		for j := 4; j < 12; j++ {
			for c := 0; c < 2; c++ {
				assert.InDelta(t, 0, residual.At(i, j, c), 0.05,
					"voxel (%d,%d) component %d", i, j, c)
			}
		}
	}
}

func TestInvertMoreIterationsHelp(t *testing.T) {
	spacing := []float64{1, 1}
	f := smoothField(16, 0.5)

	maxInteriorResidual := func(opts Options) float64 {
		inv := Invert(f, spacing, opts)
		residual := Compose(f, inv, spacing)
		worst := 0.0
		for i := 4; i < 12; i++ {
			for j := 4; j < 12; j++ {
				for c := 0; c < 2; c++ {
					worst = math.Max(worst, math.Abs(residual.At(i, j, c)))
				}
			}
		}
		return worst
	}

	rough := maxInteriorResidual(Options{Step: 0.5, Iterations: 1, SqrtOrder: 2, SqrtStep: 0.5, SqrtIterations: 5})
	fine := maxInteriorResidual(DefaultOptions())
	assert.Less(t, fine, rough, "more iterations should shrink the residual")
}

func TestInvertConstant(t *testing.T) {
	spacing := []float64{1, 1}
	f := constantField([]int{10, 10}, []float64{0.3, -0.2})

	inv := Invert(f, spacing, DefaultOptions())
	// The inverse of a constant displacement is its negation.
	assert.InDelta(t, -0.3, inv.At(5, 5, 0), 1e-3)
	assert.InDelta(t, 0.2, inv.At(5, 5, 1), 1e-3)
}

// Package field implements the numeric algebra of dense displacement vector
// fields: composition, composition square roots, and numerical inversion.
//
// A field is an ndarray of rank d+1 whose trailing axis holds the d
// displacement components, in physical units, sampled on a grid with the
// given per-axis spacing. All operations return newly allocated fields.
package field

import (
	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
)

// Options are the caller-supplied accuracy/cost knobs for Invert.
//
// There is no automatic convergence check: the algorithm runs exactly the
// requested iterations and returns whatever it computed. Callers needing a
// certified inverse must validate the residual themselves.
type Options struct {
	// Step is the step size of each stationary-point iteration.
	Step float64

	// Iterations is the number of stationary-point iterations.
	Iterations int

	// SqrtOrder is the number of composition square roots taken before the
	// stationary-point stage, and the number of squarings after it.
	SqrtOrder int

	// SqrtStep is the step size of each square-root refinement round.
	SqrtStep float64

	// SqrtIterations is the number of refinement rounds per square root.
	SqrtIterations int
}

// DefaultOptions returns the knob values the original algorithm ships with.
func DefaultOptions() Options {
	return Options{
		Step:           0.5,
		Iterations:     10,
		SqrtOrder:      2,
		SqrtStep:       0.5,
		SqrtIterations: 5,
	}
}

// Compose returns the composition a∘b of two displacement fields on the same
// grid: (a∘b)(x) = a(x + b(x)) + b(x).
//
// The displacement of b moves the lookup position into a's grid; positions
// pushed outside the grid clamp to its edge, which the overlap border of a
// block makes harmless for interior voxels.
func Compose(a, b *ndarray.Array, spacing []float64) *ndarray.Array {
	d := a.Rank() - 1
	shape := a.Shape()
	out := ndarray.New(shape)

	pos := make([]float64, d)
	idx := make([]int, d+1)
	for vox := range grid.MultiIndex(shape[:d]) {
		copy(idx[:d], vox)
		for ax := 0; ax < d; ax++ {
			idx[d] = ax
			pos[ax] = float64(vox[ax]) + b.At(idx...)/spacing[ax]
		}
		disp := a.SampleVector(pos, ndarray.Clamp)
		for ax := 0; ax < d; ax++ {
			idx[d] = ax
			out.Set(disp[ax]+b.At(idx...), idx...)
		}
	}
	return out
}

// SquareRoot finds a field g with g∘g ≈ f by gradient-style refinement,
// starting from g = f/2 and taking the given number of steps of size step
// against the composition residual.
func SquareRoot(f *ndarray.Array, spacing []float64, iterations int, step float64) *ndarray.Array {
	root := f.Clone().Scale(0.5)
	for i := 0; i < iterations; i++ {
		residual := Compose(root, root, spacing)
		residual.Scale(-1)
		_ = residual.AddScaled(1, f) // residual = f - root∘root
		_ = root.AddScaled(step, residual)
	}
	return root
}

// Invert numerically inverts a displacement field.
//
// The field is first reduced by opts.SqrtOrder successive composition square
// roots, shrinking the displacement magnitude the stationary-point stage has
// to handle. The root r is then inverted by fixed-point refinement of
// h(x) ≈ -r(x + h(x)): starting from h = -r, each round subtracts
// opts.Step times the residual (r∘h). Finally the inverted root is composed
// with itself opts.SqrtOrder times to reconstruct the inverse of the full
// field.
func Invert(f *ndarray.Array, spacing []float64, opts Options) *ndarray.Array {
	root := f
	for i := 0; i < opts.SqrtOrder; i++ {
		root = SquareRoot(root, spacing, opts.SqrtIterations, opts.SqrtStep)
	}

	inv := root.Clone().Scale(-1)
	for i := 0; i < opts.Iterations; i++ {
		residual := Compose(root, inv, spacing)
		_ = inv.AddScaled(-opts.Step, residual)
	}

	for i := 0; i < opts.SqrtOrder; i++ {
		inv = Compose(inv, inv, spacing)
	}
	return inv
}

package ndarray

import "math"

// OutOfRange selects how sampling treats positions outside the array support.
type OutOfRange int

const (
	// Zero yields 0 for any sample whose stencil reaches outside the array.
	// Used for image intensities: voxels mapped outside the moving volume
	// resample to background.
	Zero OutOfRange = iota

	// Clamp clamps positions to the array edge. Used for displacement-field
	// lookups, where the overlap border supplies real context and falling off
	// the edge should degrade gracefully instead of injecting zeros.
	Clamp
)

// SampleScalar evaluates a rank-d array at a fractional voxel position using
// n-linear interpolation.
func (a *Array) SampleScalar(pt []float64, mode OutOfRange) float64 {
	return a.sample(pt, 0, len(a.shape), mode)
}

// SampleVector evaluates a rank d+1 vector field (trailing component axis) at
// a fractional voxel position over the d spatial axes, returning one value per
// component.
func (a *Array) SampleVector(pt []float64, mode OutOfRange) []float64 {
	d := len(a.shape) - 1
	nc := a.shape[d]
	out := make([]float64, nc)
	for c := 0; c < nc; c++ {
		out[c] = a.sample(pt, c, d, mode)
	}
	return out
}

// sample interpolates component c over the first d axes at position pt.
func (a *Array) sample(pt []float64, c, d int, mode OutOfRange) float64 {
	lo := make([]int, d)
	frac := make([]float64, d)
	for ax := 0; ax < d; ax++ {
		p := pt[ax]
		if mode == Clamp {
			if p < 0 {
				p = 0
			}
			if maxP := float64(a.shape[ax] - 1); p > maxP {
				p = maxP
			}
		} else if p < 0 || p > float64(a.shape[ax]-1) {
			return 0
		}
		f := math.Floor(p)
		lo[ax] = int(f)
		frac[ax] = p - f
		// keep the stencil in range when p sits exactly on the last sample
		if lo[ax] >= a.shape[ax]-1 && a.shape[ax] > 1 {
			lo[ax] = a.shape[ax] - 2
			frac[ax] = p - float64(lo[ax])
		}
		if a.shape[ax] == 1 {
			lo[ax] = 0
			frac[ax] = 0
		}
	}

	// Accumulate over the 2^d stencil corners.
	var acc float64
	idx := make([]int, d+1)
	idx[d] = c
	if d == len(a.shape) {
		idx = idx[:d]
	}
	for corner := 0; corner < 1<<d; corner++ {
		w := 1.0
		for ax := 0; ax < d; ax++ {
			if corner&(1<<ax) != 0 {
				w *= frac[ax]
				idx[ax] = lo[ax] + 1
			} else {
				w *= 1 - frac[ax]
				idx[ax] = lo[ax]
			}
			if idx[ax] > a.shape[ax]-1 {
				idx[ax] = a.shape[ax] - 1
			}
		}
		if w != 0 {
			acc += w * a.data[a.offset(idx)]
		}
	}
	return acc
}

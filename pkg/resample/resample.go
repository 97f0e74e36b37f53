// Package resample warps moving-volume intensities onto a fixed-volume block
// through a transform chain.
//
// This is the pixel-level kernel behind the distributed resampling pipeline:
// the orchestrator hands it one fixed block, the matching moving region, both
// spacings and physical origins, and the chain already localized to the
// block. The kernel walks the fixed grid, maps each voxel center through the
// chain into moving physical space, and n-linearly interpolates the moving
// data there.
package resample

import (
	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
	"github.com/orena1/bigstream/pkg/transform"
)

// Apply resamples movBlock onto the grid of fixBlock.
//
// The result has the shape of fixBlock. Fixed voxel centers map to physical
// space via fixOrigin + index*fixSpacing, run through the chain in stack
// order, then index into movBlock via (mapped - movOrigin)/movSpacing.
// Positions falling outside movBlock resample to zero.
func Apply(
	fixBlock, movBlock *ndarray.Array,
	fixSpacing, movSpacing []float64,
	chain []transform.Transform,
	fixOrigin, movOrigin []float64,
) (*ndarray.Array, error) {
	d := fixBlock.Rank()
	if movBlock.Rank() != d {
		return nil, errors.New(errors.ErrCodeShapeMismatch,
			"fixed block rank %d vs moving block rank %d", d, movBlock.Rank())
	}
	if len(fixSpacing) != d || len(movSpacing) != d {
		return nil, errors.New(errors.ErrCodeSpacingMismatch,
			"spacing ranks (%d, %d) do not match block rank %d", len(fixSpacing), len(movSpacing), d)
	}

	out := ndarray.New(fixBlock.Shape())
	pt := make([]float64, d)
	vox := make([]float64, d)
	for idx := range grid.MultiIndex(fixBlock.Shape()) {
		for ax := 0; ax < d; ax++ {
			pt[ax] = fixOrigin[ax] + float64(idx[ax])*fixSpacing[ax]
		}
		mapped := mapPoint(pt, chain)
		for ax := 0; ax < d; ax++ {
			vox[ax] = (mapped[ax] - movOrigin[ax]) / movSpacing[ax]
		}
		out.Set(movBlock.SampleScalar(vox, ndarray.Zero), idx...)
	}
	return out, nil
}

// mapPoint runs one physical point through the chain in stack order.
func mapPoint(pt []float64, chain []transform.Transform) []float64 {
	out := append([]float64(nil), pt...)
	for i := len(chain) - 1; i >= 0; i-- {
		out = chain[i].Apply(out)
	}
	return out
}

package piecewise

import (
	"context"
	"math"
	"time"

	"github.com/orena1/bigstream/pkg/distribute"
	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
	"github.com/orena1/bigstream/pkg/observability"
	"github.com/orena1/bigstream/pkg/resample"
	"github.com/orena1/bigstream/pkg/storage"
	"github.com/orena1/bigstream/pkg/transform"
)

// blockResult is one trimmed block ready for placement.
type blockResult struct {
	placement grid.Box
	data      *ndarray.Array
}

// ApplyTransform resamples the moving volume onto the fixed volume's grid
// through the transform chain, block by block, writing each block's canonical
// region to sink as it completes.
//
// The fixed volume is tiled with blocksize and opts.OverlapFactor. For each
// block the chain is localized to the block's physical footprint, a
// conservative moving-volume region is derived by mapping the block's corners,
// and only those two regions are read. Fixed voxels whose mapped position
// falls outside the moving volume resample to zero.
func ApplyTransform(
	ctx context.Context,
	fix, mov storage.Store,
	fixSpacing, movSpacing []float64,
	blocksize []int,
	chain []transform.Transform,
	sink Sink,
	opts Options,
) error {
	opts = opts.withDefaults()
	fixShape := fix.Shape()
	movShape := mov.Shape()
	d := len(fixShape)

	if len(movShape) != d {
		return errors.New(errors.ErrCodeShapeMismatch,
			"fixed rank %d vs moving rank %d", d, len(movShape))
	}
	if len(fixSpacing) != d || len(movSpacing) != d {
		return errors.New(errors.ErrCodeSpacingMismatch,
			"spacing ranks (%d, %d) do not match volume rank %d", len(fixSpacing), len(movSpacing), d)
	}
	if err := transform.ValidateChain(chain, d); err != nil {
		return err
	}
	if opts.OverlapFactor < 0 || opts.OverlapFactor > 1 {
		return errors.New(errors.ErrCodeInvalidOverlap, "overlap factor %g outside [0, 1]", opts.OverlapFactor)
	}

	blocks, err := grid.Plan(fixShape, blocksize, opts.OverlapFactor)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidBlocksize, err, "plan block decomposition")
	}
	overlap := grid.Overlap(blocksize, opts.OverlapFactor)
	observability.Blocks().OnPlan(ctx, "resample", len(blocks))
	opts.Logger.Debug("planned resample", "blocks", len(blocks), "blocksize", blocksize)

	pool := distribute.NewPool(opts.Workers)
	tasks := make([]distribute.Task[blockResult], len(blocks))
	for i, blk := range blocks {
		tasks[i] = func(ctx context.Context) (blockResult, error) {
			start := time.Now()
			observability.Blocks().OnBlockStart(ctx, "resample", blk.Index)
			res, err := resampleBlock(ctx, fix, mov, fixSpacing, movSpacing, chain, blk, blocksize, overlap)
			observability.Blocks().OnBlockComplete(ctx, "resample", blk.Index, time.Since(start), err)
			return res, err
		}
	}

	return distribute.Map(ctx, pool, tasks, func(i int, res blockResult) error {
		opts.Logger.Debug("block complete", "index", blocks[i].Index, "placement", res.placement)
		return sink.Write(ctx, res.placement, res.data)
	})
}

// resampleBlock computes one block: fetch the extended fixed region and the
// matching moving region, run the resampling kernel, and trim the overlap.
func resampleBlock(
	ctx context.Context,
	fix, mov storage.Store,
	fixSpacing, movSpacing []float64,
	chain []transform.Transform,
	blk grid.Block,
	blocksize, overlap []int,
) (blockResult, error) {
	d := len(fixSpacing)

	fixBlock, err := readRegion(ctx, fix, blk.Extended)
	if err != nil {
		return blockResult{}, errors.Wrap(errors.ErrCodeStoreRead, err, "read fixed block %v", blk.Extended)
	}

	lo := make([]float64, d)
	hi := make([]float64, d)
	for ax := 0; ax < d; ax++ {
		lo[ax] = float64(blk.Extended[ax].Start) * fixSpacing[ax]
		hi[ax] = float64(blk.Extended[ax].Stop) * fixSpacing[ax]
	}
	local, err := transform.LocalizeChain(chain, lo, hi)
	if err != nil {
		return blockResult{}, err
	}

	movBox := movingRegion(blk.Extended, fixSpacing, movSpacing, mov.Shape(), local)
	trim := grid.Trim(blk.Extended, blk.Extended.Shape(), blocksize, overlap)

	if movBox.Empty() {
		// The block maps entirely outside the moving volume.
		data, err := ndarray.New(blk.Extended.Shape()).Region(trim.Rel())
		if err != nil {
			return blockResult{}, err
		}
		return blockResult{placement: trim.Placement, data: data}, nil
	}

	movBlock, err := readRegion(ctx, mov, movBox)
	if err != nil {
		return blockResult{}, errors.Wrap(errors.ErrCodeStoreRead, err, "read moving block %v", movBox)
	}

	movOrigin := make([]float64, d)
	for ax := 0; ax < d; ax++ {
		movOrigin[ax] = float64(movBox[ax].Start) * movSpacing[ax]
	}
	warped, err := resample.Apply(fixBlock, movBlock, fixSpacing, movSpacing, local, lo, movOrigin)
	if err != nil {
		return blockResult{}, err
	}

	data, err := warped.Region(trim.Rel())
	if err != nil {
		return blockResult{}, err
	}
	return blockResult{placement: trim.Placement, data: data}, nil
}

// movingRegion bounds the moving-volume voxels a fixed block can touch by
// mapping the 2^d corners of its extended extent through the localized chain.
// This is conservative for any chain whose extremes occur near the corners; a
// chain folding the interior past the corner envelope would be clipped, which
// the overlap border absorbs in practice.
func movingRegion(extended grid.Box, fixSpacing, movSpacing []float64, movShape []int, chain []transform.Transform) grid.Box {
	d := len(extended)
	choices := make([]int, d)
	for ax := range choices {
		choices[ax] = 2
	}

	corners := make([][]float64, 0, 1<<d)
	for pick := range grid.MultiIndex(choices) {
		pt := make([]float64, d)
		for ax := 0; ax < d; ax++ {
			vox := extended[ax].Start
			if pick[ax] == 1 {
				vox = extended[ax].Stop - 1
			}
			pt[ax] = float64(vox) * fixSpacing[ax]
		}
		corners = append(corners, pt)
	}
	mapped := transform.MapPoints(corners, chain)

	box := make(grid.Box, d)
	for ax := 0; ax < d; ax++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, pt := range mapped {
			v := math.Round(pt[ax] / movSpacing[ax])
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		box[ax] = grid.Interval{Start: int(lo), Stop: int(hi) + 1}
	}
	return box.Clip(movShape)
}

// readRegion reads a box from a store and reports it to the store hooks.
func readRegion(ctx context.Context, s storage.Store, box grid.Box) (*ndarray.Array, error) {
	start := time.Now()
	a, err := s.Read(ctx, box)
	n := 0
	if a != nil {
		n = a.Len()
	}
	observability.Stores().OnRead(ctx, n, time.Since(start), err)
	return a, err
}

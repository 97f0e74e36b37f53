package piecewise

import (
	"context"
	"time"

	"github.com/orena1/bigstream/pkg/distribute"
	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/field"
	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/observability"
	"github.com/orena1/bigstream/pkg/storage"
)

// InvertDisplacementField numerically inverts a displacement field stored as
// a rank d+1 array with a trailing component axis, block by block, writing
// each block's canonical region to sink.
//
// The spatial axes are tiled with blocksize at the fixed InvertOverlapFactor;
// opts.OverlapFactor is ignored because the refinement iterations need a
// stable amount of neighborhood context. The component axis is never split.
func InvertDisplacementField(
	ctx context.Context,
	src storage.Store,
	spacing []float64,
	blocksize []int,
	sink Sink,
	fieldOpts field.Options,
	opts Options,
) error {
	opts = opts.withDefaults()
	shape := src.Shape()
	d := len(shape) - 1

	if d < 1 || shape[d] != d {
		return errors.New(errors.ErrCodeInvalidTransform,
			"displacement field store must have rank d+1 with trailing axis d, got shape %v", shape)
	}
	if len(spacing) != d {
		return errors.New(errors.ErrCodeSpacingMismatch,
			"spacing has %d entries for %d spatial dims", len(spacing), d)
	}

	spatial := shape[:d]
	blocks, err := grid.Plan(spatial, blocksize, InvertOverlapFactor)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidBlocksize, err, "plan block decomposition")
	}
	overlap := grid.Overlap(blocksize, InvertOverlapFactor)
	observability.Blocks().OnPlan(ctx, "invert", len(blocks))
	opts.Logger.Debug("planned inversion", "blocks", len(blocks), "blocksize", blocksize)

	pool := distribute.NewPool(opts.Workers)
	tasks := make([]distribute.Task[blockResult], len(blocks))
	for i, blk := range blocks {
		tasks[i] = func(ctx context.Context) (blockResult, error) {
			start := time.Now()
			observability.Blocks().OnBlockStart(ctx, "invert", blk.Index)
			res, err := invertBlock(ctx, src, spacing, blk, blocksize, overlap, d, fieldOpts)
			observability.Blocks().OnBlockComplete(ctx, "invert", blk.Index, time.Since(start), err)
			return res, err
		}
	}

	return distribute.Map(ctx, pool, tasks, func(i int, res blockResult) error {
		opts.Logger.Debug("block complete", "index", blocks[i].Index, "placement", res.placement)
		return sink.Write(ctx, res.placement, res.data)
	})
}

// invertBlock inverts one extended block and trims the overlap from its
// spatial axes. The component axis rides along whole.
func invertBlock(
	ctx context.Context,
	src storage.Store,
	spacing []float64,
	blk grid.Block,
	blocksize, overlap []int,
	d int,
	fieldOpts field.Options,
) (blockResult, error) {
	box := append(grid.Box(nil), blk.Extended...)
	box = append(box, grid.Interval{Start: 0, Stop: d})

	block, err := readRegion(ctx, src, box)
	if err != nil {
		return blockResult{}, errors.Wrap(errors.ErrCodeStoreRead, err, "read field block %v", box)
	}

	inv := field.Invert(block, spacing, fieldOpts)

	trim := grid.Trim(blk.Extended, blk.Extended.Shape(), blocksize, overlap)
	rel := append(trim.Rel(), grid.Interval{Start: 0, Stop: d})
	data, err := inv.Region(rel)
	if err != nil {
		return blockResult{}, err
	}
	placement := append(grid.Box(nil), trim.Placement...)
	placement = append(placement, grid.Interval{Start: 0, Stop: d})
	return blockResult{placement: placement, data: data}, nil
}

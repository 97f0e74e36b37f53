package piecewise

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/orena1/bigstream/pkg/distribute"
	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/observability"
	"github.com/orena1/bigstream/pkg/transform"
)

// Partition sets the spatial pitch used to bucket scattered points before
// mapping them. Points in one bucket share a single transform crop, so the
// pitch trades crop size against the number of buckets.
type Partition struct {
	pitch []float64
}

// BlockPartition aligns the point buckets with an image block decomposition:
// the pitch on each axis is blocksize voxels at the given spacing.
func BlockPartition(blocksize []int, spacing []float64) Partition {
	pitch := make([]float64, len(blocksize))
	for ax := range blocksize {
		pitch[ax] = float64(blocksize[ax]) * spacing[ax]
	}
	return Partition{pitch: pitch}
}

// PitchPartition buckets points with a uniform physical pitch on every axis.
func PitchPartition(size float64, ndim int) Partition {
	pitch := make([]float64, ndim)
	for ax := range pitch {
		pitch[ax] = size
	}
	return Partition{pitch: pitch}
}

// bucket is one spatial cell of the point partition.
type bucket struct {
	index  []int
	points []int
}

// ApplyTransformToCoordinates maps scattered physical points through the
// transform chain.
//
// The first d columns of every point are coordinates; any trailing columns
// are payload and pass through untouched. Points are bucketed by the
// partition pitch, each bucket localizes the chain to its own tight bounding
// box, and buckets run concurrently. The result preserves the input order.
func ApplyTransformToCoordinates(
	ctx context.Context,
	points [][]float64,
	chain []transform.Transform,
	part Partition,
	opts Options,
) ([][]float64, error) {
	opts = opts.withDefaults()
	if len(points) == 0 {
		return nil, nil
	}
	if len(chain) == 0 {
		return transform.MapPoints(points, nil), nil
	}

	d := chain[0].NDim()
	if err := transform.ValidateChain(chain, d); err != nil {
		return nil, err
	}
	if len(part.pitch) != d {
		return nil, errors.New(errors.ErrCodeSpacingMismatch,
			"partition pitch has %d entries for %d spatial dims", len(part.pitch), d)
	}
	for ax, p := range part.pitch {
		if p <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidBlocksize,
				"partition pitch[%d] = %g must be positive", ax, p)
		}
	}
	for i, p := range points {
		if len(p) < d {
			return nil, errors.New(errors.ErrCodeShapeMismatch,
				"point %d has %d columns, need at least %d", i, len(p), d)
		}
	}

	buckets := partitionPoints(points, part.pitch, d)
	observability.Blocks().OnPlan(ctx, "map_coordinates", len(buckets))
	opts.Logger.Debug("partitioned points", "points", len(points), "buckets", len(buckets))

	pool := distribute.NewPool(opts.Workers)
	tasks := make([]distribute.Task[[][]float64], len(buckets))
	for i, b := range buckets {
		tasks[i] = func(ctx context.Context) ([][]float64, error) {
			start := time.Now()
			observability.Blocks().OnBlockStart(ctx, "map_coordinates", b.index)
			mapped, err := mapBucket(points, b, chain, d)
			observability.Blocks().OnBlockComplete(ctx, "map_coordinates", b.index, time.Since(start), err)
			return mapped, err
		}
	}

	out := make([][]float64, len(points))
	err := distribute.Map(ctx, pool, tasks, func(i int, mapped [][]float64) error {
		for j, row := range mapped {
			out[buckets[i].points[j]] = row
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// partitionPoints buckets point indices by spatial cell. The cell grid is
// anchored at the per-axis minimum of the cloud and covers
// [origin + i*pitch, origin + (i+1)*pitch) per axis, with
// ceil(extent/pitch)+1 cells so points sitting exactly on the cloud's max
// corner still land in a cell instead of falling off the grid. Empty cells
// produce no bucket; buckets come back in row-major cell order.
func partitionPoints(points [][]float64, pitch []float64, d int) []bucket {
	origin := make([]float64, d)
	extent := make([]float64, d)
	copy(origin, points[0][:d])
	copy(extent, points[0][:d])
	for _, p := range points[1:] {
		for ax := 0; ax < d; ax++ {
			origin[ax] = math.Min(origin[ax], p[ax])
			extent[ax] = math.Max(extent[ax], p[ax])
		}
	}

	ncells := make([]int, d)
	for ax := 0; ax < d; ax++ {
		ncells[ax] = int(math.Ceil((extent[ax]-origin[ax])/pitch[ax])) + 1
	}
	strides := make([]int, d)
	stride := 1
	for ax := d - 1; ax >= 0; ax-- {
		strides[ax] = stride
		stride *= ncells[ax]
	}

	cells := make(map[int]*bucket)
	flats := make([]int, 0)
	idx := make([]int, d)
	for i, p := range points {
		flat := 0
		for ax := 0; ax < d; ax++ {
			idx[ax] = int(math.Floor((p[ax] - origin[ax]) / pitch[ax]))
			flat += idx[ax] * strides[ax]
		}
		b, ok := cells[flat]
		if !ok {
			b = &bucket{index: append([]int(nil), idx...)}
			cells[flat] = b
			flats = append(flats, flat)
		}
		b.points = append(b.points, i)
	}

	sort.Ints(flats)
	out := make([]bucket, len(flats))
	for i, flat := range flats {
		out[i] = *cells[flat]
	}
	return out
}

// mapBucket localizes the chain to the bucket's tight bounding box and maps
// its points through it.
func mapBucket(points [][]float64, b bucket, chain []transform.Transform, d int) ([][]float64, error) {
	lo := make([]float64, d)
	hi := make([]float64, d)
	copy(lo, points[b.points[0]][:d])
	copy(hi, points[b.points[0]][:d])
	for _, pi := range b.points[1:] {
		for ax := 0; ax < d; ax++ {
			lo[ax] = math.Min(lo[ax], points[pi][ax])
			hi[ax] = math.Max(hi[ax], points[pi][ax])
		}
	}

	local, err := transform.LocalizeChain(chain, lo, hi)
	if err != nil {
		return nil, err
	}

	subset := make([][]float64, len(b.points))
	for j, pi := range b.points {
		subset[j] = points[pi]
	}
	return transform.MapPoints(subset, local), nil
}

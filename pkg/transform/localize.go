package transform

import (
	"math"

	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/grid"
)

// Localize crops the field to the voxel range of its own grid that covers the
// physical bounds [lo, hi). The crop start is floor(lo/spacing) clamped into
// the grid; the crop stop is ceil(hi/spacing) plus one sample of margin so the
// interpolation stencil at hi stays in range, clipped to the grid. The
// returned field carries cropStart*spacing as its origin so later coordinate
// mapping lands on the right samples.
func (f *Field) Localize(lo, hi []float64) (Transform, error) {
	d := f.NDim()
	shape := f.Data.Shape()

	crop := make(grid.Box, d+1)
	origin := make([]float64, d)
	for ax := 0; ax < d; ax++ {
		start := int(math.Floor((lo[ax] - f.Origin[ax]) / f.Spacing[ax]))
		stop := int(math.Ceil((hi[ax]-f.Origin[ax])/f.Spacing[ax])) + 1
		if start > shape[ax]-1 {
			start = shape[ax] - 1
		}
		if start < 0 {
			start = 0
		}
		if stop > shape[ax] {
			stop = shape[ax]
		}
		if stop <= start {
			stop = start + 1
		}
		crop[ax] = grid.Interval{Start: start, Stop: stop}
		origin[ax] = f.Origin[ax] + float64(start)*f.Spacing[ax]
	}
	crop[d] = grid.Interval{Start: 0, Stop: d}

	data, err := f.Data.Region(crop)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "crop field to %v", crop)
	}
	return &Field{Data: data, Spacing: f.Spacing, Origin: origin}, nil
}

// LocalizeChain restricts every transform in the chain to the physical bounds
// [lo, hi). Each transform is localized independently to the same footprint at
// its own resolution; application order is preserved.
func LocalizeChain(chain []Transform, lo, hi []float64) ([]Transform, error) {
	out := make([]Transform, len(chain))
	for i, t := range chain {
		lt, err := t.Localize(lo, hi)
		if err != nil {
			return nil, err
		}
		out[i] = lt
	}
	return out, nil
}

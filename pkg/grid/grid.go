// Package grid provides the integer block geometry used to decompose
// larger-than-memory volumes into units of distributed work.
//
// A volume is tiled into blocks along every axis. Each block has two extents:
//
//   - The canonical extent: a disjoint tile. The union of all canonical
//     extents is exactly the volume, with no gaps and no overlaps. Results are
//     always written back at canonical extents, which is why concurrent block
//     writes never race.
//   - The extended extent: the canonical extent padded with an overlap border
//     on every side, clipped to the volume bounds. Extended extents are used
//     only to fetch input data and to give numeric context to per-block
//     computation; they are trimmed away before placement.
package grid

import (
	"fmt"
	"math"
)

// Interval is a half-open integer range [Start, Stop) along one axis.
type Interval struct {
	Start int
	Stop  int
}

// Len returns the number of samples covered by the interval.
func (iv Interval) Len() int { return iv.Stop - iv.Start }

// Box is an axis-aligned n-dimensional region, one Interval per axis.
type Box []Interval

// BoxOf builds a Box spanning [0, shape) on every axis.
func BoxOf(shape []int) Box {
	b := make(Box, len(shape))
	for i, s := range shape {
		b[i] = Interval{0, s}
	}
	return b
}

// Shape returns the per-axis lengths of the box.
func (b Box) Shape() []int {
	shape := make([]int, len(b))
	for i, iv := range b {
		shape[i] = iv.Len()
	}
	return shape
}

// NumElements returns the total number of samples in the box.
func (b Box) NumElements() int {
	n := 1
	for _, iv := range b {
		n *= iv.Len()
	}
	return n
}

// Empty reports whether any axis has zero or negative length.
func (b Box) Empty() bool {
	for _, iv := range b {
		if iv.Len() <= 0 {
			return true
		}
	}
	return len(b) == 0
}

// Clip restricts the box to [0, shape) per axis.
func (b Box) Clip(shape []int) Box {
	out := make(Box, len(b))
	for i, iv := range b {
		out[i] = Interval{max(0, iv.Start), min(shape[i], iv.Stop)}
	}
	return out
}

// Contains reports whether other lies entirely within b.
func (b Box) Contains(other Box) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if other[i].Start < b[i].Start || other[i].Stop > b[i].Stop {
			return false
		}
	}
	return true
}

// Equal reports whether two boxes cover the same region.
func (b Box) Equal(other Box) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the box in slice notation, e.g. "[0:192 64:128]".
func (b Box) String() string {
	s := "["
	for i, iv := range b {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d:%d", iv.Start, iv.Stop)
	}
	return s + "]"
}

// Block is one unit of the volume decomposition.
type Block struct {
	// Index is the block multi-index within the block grid.
	Index []int

	// Canonical is the disjoint tile owned by this block.
	Canonical Box

	// Extended is Canonical padded by the overlap and clipped to the volume.
	Extended Box
}

// Overlap computes the per-axis overlap in voxels for a block size and an
// overlap factor in [0, 1], rounding half away from zero like the fraction it
// is derived from.
func Overlap(blocksize []int, factor float64) []int {
	ov := make([]int, len(blocksize))
	for i, bs := range blocksize {
		ov[i] = int(math.Round(float64(bs) * factor))
	}
	return ov
}

// NumBlocks returns the per-axis block counts, ceil(shape / blocksize).
func NumBlocks(shape, blocksize []int) []int {
	n := make([]int, len(shape))
	for i := range shape {
		n[i] = (shape[i] + blocksize[i] - 1) / blocksize[i]
	}
	return n
}

// Plan tiles a volume of the given shape into blocks.
//
// Every multi-index over ceil(shape/blocksize) produces one block. The
// canonical extent of block i is [blocksize*i, blocksize*i+blocksize) clipped
// to the shape; the extended extent additionally reaches overlap voxels
// beyond the canonical extent on each side, clipped to [0, shape).
func Plan(shape, blocksize []int, overlapFactor float64) ([]Block, error) {
	if len(blocksize) != len(shape) {
		return nil, fmt.Errorf("blocksize rank %d does not match shape rank %d", len(blocksize), len(shape))
	}
	if overlapFactor < 0 || overlapFactor > 1 {
		return nil, fmt.Errorf("overlap factor %g outside [0, 1]", overlapFactor)
	}
	for i, bs := range blocksize {
		if bs <= 0 {
			return nil, fmt.Errorf("blocksize[%d] = %d must be positive", i, bs)
		}
	}

	overlap := Overlap(blocksize, overlapFactor)
	nblocks := NumBlocks(shape, blocksize)

	blocks := make([]Block, 0, prod(nblocks))
	for index := range MultiIndex(nblocks) {
		canonical := make(Box, len(shape))
		extended := make(Box, len(shape))
		for ax := range shape {
			lo := blocksize[ax] * index[ax]
			canonical[ax] = Interval{lo, min(shape[ax], lo+blocksize[ax])}
			extended[ax] = Interval{
				max(0, lo-overlap[ax]),
				min(shape[ax], lo+blocksize[ax]+overlap[ax]),
			}
		}
		blocks = append(blocks, Block{Index: index, Canonical: canonical, Extended: extended})
	}
	return blocks, nil
}

// MultiIndex yields every multi-index over the given per-axis counts in
// row-major order, the same order numpy's ndindex walks a shape.
func MultiIndex(counts []int) func(yield func([]int) bool) {
	return func(yield func([]int) bool) {
		if prod(counts) == 0 {
			return
		}
		idx := make([]int, len(counts))
		for {
			out := make([]int, len(idx))
			copy(out, idx)
			if !yield(out) {
				return
			}
			ax := len(idx) - 1
			for ax >= 0 {
				idx[ax]++
				if idx[ax] < counts[ax] {
					break
				}
				idx[ax] = 0
				ax--
			}
			if ax < 0 {
				return
			}
		}
	}
}

func prod(v []int) int {
	p := 1
	for _, x := range v {
		p *= x
	}
	return p
}

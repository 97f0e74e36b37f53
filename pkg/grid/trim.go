package grid

// TrimSpec describes how to cut the overlap border off a block result so that
// only the block's disjoint share of the volume remains.
//
// Lo[axis] samples are dropped from the front of the axis and the axis is then
// truncated to Len[axis] samples. Placement is the recomputed canonical box
// the trimmed result must be written to; at the high volume boundary it can be
// shorter than the requested block size.
type TrimSpec struct {
	Lo        []int
	Len       []int
	Placement Box
}

// Trim computes the overlap trim for a block result of the given shape.
//
// The result shape is the shape actually produced for the block's extended
// extent (spatial axes only). Per axis: if the extended extent does not touch
// the low volume boundary, the first overlap[axis] samples are overlap border
// and are dropped; whatever then exceeds blocksize[axis] is trailing border
// and is truncated. The placement box is rebuilt from the trims applied rather
// than assumed equal to the planned canonical extent.
func Trim(extended Box, resultShape, blocksize, overlap []int) TrimSpec {
	n := len(extended)
	spec := TrimSpec{
		Lo:        make([]int, n),
		Len:       make([]int, n),
		Placement: make(Box, n),
	}
	for ax := 0; ax < n; ax++ {
		start := extended[ax].Start
		length := resultShape[ax]
		if start != 0 {
			spec.Lo[ax] = overlap[ax]
			start += overlap[ax]
			length -= overlap[ax]
		}
		if length > blocksize[ax] {
			length = blocksize[ax]
		}
		spec.Len[ax] = length
		spec.Placement[ax] = Interval{start, start + length}
	}
	return spec
}

// Rel returns the trim region relative to the block result, i.e. the sub-box
// [Lo, Lo+Len) per axis that survives the trim.
func (t TrimSpec) Rel() Box {
	b := make(Box, len(t.Lo))
	for ax := range t.Lo {
		b[ax] = Interval{t.Lo[ax], t.Lo[ax] + t.Len[ax]}
	}
	return b
}

// Package ndarray implements dense n-dimensional float64 arrays with
// half-open region addressing.
//
// Arrays are row-major and contiguous. Regions are addressed with grid.Box
// values; reading a region copies it out, writing a region copies it in. The
// block pipeline only ever reads and writes disjoint regions, so no
// synchronization is built in.
//
// A displacement vector field is represented as an array with one trailing
// component axis: rank d+1 with the last axis of length d.
package ndarray

import (
	"fmt"

	"github.com/orena1/bigstream/pkg/grid"
)

// Array is a dense row-major n-dimensional array of float64.
type Array struct {
	shape   []int
	strides []int
	data    []float64
}

// New allocates a zero-filled array of the given shape.
func New(shape []int) *Array {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Array{
		shape:   append([]int(nil), shape...),
		strides: stridesFor(shape),
		data:    make([]float64, n),
	}
}

// FromData wraps existing data in an array. The data length must match the
// product of the shape; the slice is not copied.
func FromData(shape []int, data []float64) (*Array, error) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(data) {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)", len(data), shape, n)
	}
	return &Array{
		shape:   append([]int(nil), shape...),
		strides: stridesFor(shape),
		data:    data,
	}, nil
}

func stridesFor(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// Shape returns the per-axis lengths. The caller must not modify it.
func (a *Array) Shape() []int { return a.shape }

// Rank returns the number of axes.
func (a *Array) Rank() int { return len(a.shape) }

// Data returns the backing slice in row-major order.
func (a *Array) Data() []float64 { return a.data }

// Len returns the total number of elements.
func (a *Array) Len() int { return len(a.data) }

// offset converts a multi-index to a flat offset. Bounds are not checked.
func (a *Array) offset(idx []int) int {
	off := 0
	for i, x := range idx {
		off += x * a.strides[i]
	}
	return off
}

// At returns the element at the given multi-index.
func (a *Array) At(idx ...int) float64 { return a.data[a.offset(idx)] }

// Set stores v at the given multi-index.
func (a *Array) Set(v float64, idx ...int) { a.data[a.offset(idx)] = v }

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	out := New(a.shape)
	copy(out.data, a.data)
	return out
}

// Scale multiplies every element by s in place and returns the array.
func (a *Array) Scale(s float64) *Array {
	for i := range a.data {
		a.data[i] *= s
	}
	return a
}

// AddScaled adds s*b to a element-wise in place. Shapes must match.
func (a *Array) AddScaled(s float64, b *Array) error {
	if len(a.data) != len(b.data) {
		return fmt.Errorf("shape mismatch: %v vs %v", a.shape, b.shape)
	}
	for i := range a.data {
		a.data[i] += s * b.data[i]
	}
	return nil
}

// Region copies the sub-array covered by box into a new array.
func (a *Array) Region(box grid.Box) (*Array, error) {
	if len(box) != len(a.shape) {
		return nil, fmt.Errorf("box rank %d does not match array rank %d", len(box), len(a.shape))
	}
	if !grid.BoxOf(a.shape).Contains(box) {
		return nil, fmt.Errorf("box %v outside array shape %v", box, a.shape)
	}
	out := New(box.Shape())
	a.copyRegion(box, out, false)
	return out, nil
}

// SetRegion copies src into the sub-array covered by box. The shape of src
// must equal the box shape.
func (a *Array) SetRegion(box grid.Box, src *Array) error {
	if len(box) != len(a.shape) {
		return fmt.Errorf("box rank %d does not match array rank %d", len(box), len(a.shape))
	}
	if !grid.BoxOf(a.shape).Contains(box) {
		return fmt.Errorf("box %v outside array shape %v", box, a.shape)
	}
	if !boxShapeEqual(box, src.shape) {
		return fmt.Errorf("source shape %v does not match box %v", src.shape, box)
	}
	a.copyRegion(box, src, true)
	return nil
}

// copyRegion moves data between a's box region and the dense array other.
// When in is true data flows other -> a, otherwise a -> other.
func (a *Array) copyRegion(box grid.Box, other *Array, in bool) {
	n := len(a.shape)
	rowLen := box[n-1].Len()
	outerShape := make([]int, n-1)
	for i := 0; i < n-1; i++ {
		outerShape[i] = box[i].Len()
	}
	rowIdx := make([]int, n)
	otherOff := 0
	for outer := range grid.MultiIndex(outerShape) {
		for i := 0; i < n-1; i++ {
			rowIdx[i] = box[i].Start + outer[i]
		}
		rowIdx[n-1] = box[n-1].Start
		off := a.offset(rowIdx)
		if in {
			copy(a.data[off:off+rowLen], other.data[otherOff:otherOff+rowLen])
		} else {
			copy(other.data[otherOff:otherOff+rowLen], a.data[off:off+rowLen])
		}
		otherOff += rowLen
	}
}

func boxShapeEqual(box grid.Box, shape []int) bool {
	if len(box) != len(shape) {
		return false
	}
	for i := range box {
		if box[i].Len() != shape[i] {
			return false
		}
	}
	return true
}

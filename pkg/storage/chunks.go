package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
)

// chunkGrid carves a store shape into a fixed grid of chunks. Edge chunks are
// truncated to the store bounds. FileStore and RedisStore share this logic
// and differ only in how a chunk blob is loaded and saved.
type chunkGrid struct {
	shape []int
	chunk []int
}

// key renders a chunk index as a stable identifier, e.g. "0.2.1".
func (g chunkGrid) key(idx []int) string {
	parts := make([]string, len(idx))
	for i, x := range idx {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, ".")
}

// extent returns the store box covered by the chunk at idx.
func (g chunkGrid) extent(idx []int) grid.Box {
	box := make(grid.Box, len(idx))
	for ax, x := range idx {
		lo := x * g.chunk[ax]
		box[ax] = grid.Interval{Start: lo, Stop: min(g.shape[ax], lo+g.chunk[ax])}
	}
	return box
}

// overlapping yields the chunk indices whose extents intersect box.
func (g chunkGrid) overlapping(box grid.Box) func(yield func([]int) bool) {
	lo := make([]int, len(box))
	counts := make([]int, len(box))
	for ax, iv := range box {
		lo[ax] = iv.Start / g.chunk[ax]
		counts[ax] = (iv.Stop-1)/g.chunk[ax] - lo[ax] + 1
	}
	return func(yield func([]int) bool) {
		for rel := range grid.MultiIndex(counts) {
			idx := make([]int, len(rel))
			for ax := range rel {
				idx[ax] = lo[ax] + rel[ax]
			}
			if !yield(idx) {
				return
			}
		}
	}
}

// intersect returns the overlap of two boxes.
func intersect(a, b grid.Box) grid.Box {
	out := make(grid.Box, len(a))
	for ax := range a {
		out[ax] = grid.Interval{Start: max(a[ax].Start, b[ax].Start), Stop: min(a[ax].Stop, b[ax].Stop)}
	}
	return out
}

// rel shifts box into the coordinate frame anchored at origin.
func rel(box grid.Box, origin grid.Box) grid.Box {
	out := make(grid.Box, len(box))
	for ax := range box {
		out[ax] = grid.Interval{Start: box[ax].Start - origin[ax].Start, Stop: box[ax].Stop - origin[ax].Start}
	}
	return out
}

// chunkBackend loads and saves raw chunk blobs by key. A missing chunk loads
// as nil; the caller substitutes zeros.
type chunkBackend interface {
	load(ctx context.Context, key string) ([]byte, error)
	save(ctx context.Context, key string, blob []byte) error
}

// chunkStore assembles box reads and writes from per-chunk blobs. Writes that
// cover a chunk only partially are read-modify-write, serialized per chunk
// with an in-process lock; callers that share one store across processes must
// keep their write boxes chunk-aligned.
type chunkStore struct {
	grid    chunkGrid
	backend chunkBackend
	locks   sync.Map // chunk key -> *sync.Mutex
}

func (s *chunkStore) lock(key string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *chunkStore) read(ctx context.Context, box grid.Box) (*ndarray.Array, error) {
	if err := checkBox(s.grid.shape, box); err != nil {
		return nil, err
	}
	out := ndarray.New(box.Shape())
	for idx := range s.grid.overlapping(box) {
		extent := s.grid.extent(idx)
		blob, err := s.backend.load(ctx, s.grid.key(idx))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "load chunk %s", s.grid.key(idx))
		}
		if blob == nil {
			continue // unwritten chunk reads as zeros
		}
		chunk, err := decodeChunk(blob, extent.Shape())
		if err != nil {
			return nil, err
		}
		inter := intersect(extent, box)
		part, err := chunk.Region(rel(inter, extent))
		if err != nil {
			return nil, err
		}
		if err := out.SetRegion(rel(inter, box), part); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *chunkStore) write(ctx context.Context, box grid.Box, a *ndarray.Array) error {
	if err := checkWrite(s.grid.shape, box, a); err != nil {
		return err
	}
	for idx := range s.grid.overlapping(box) {
		extent := s.grid.extent(idx)
		inter := intersect(extent, box)
		part, err := a.Region(rel(inter, box))
		if err != nil {
			return err
		}
		key := s.grid.key(idx)

		mu := s.lock(key)
		mu.Lock()
		err = s.writeChunk(ctx, key, extent, inter, part)
		mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// writeChunk stores part at inter within the chunk at extent, loading the
// existing chunk first unless the write covers it entirely.
func (s *chunkStore) writeChunk(ctx context.Context, key string, extent, inter grid.Box, part *ndarray.Array) error {
	var chunk *ndarray.Array
	if inter.Equal(extent) {
		chunk = part
	} else {
		blob, err := s.backend.load(ctx, key)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStoreRead, err, "load chunk %s", key)
		}
		if blob == nil {
			chunk = ndarray.New(extent.Shape())
		} else if chunk, err = decodeChunk(blob, extent.Shape()); err != nil {
			return err
		}
		if err := chunk.SetRegion(rel(inter, extent), part); err != nil {
			return err
		}
	}
	if err := s.backend.save(ctx, key, encodeChunk(chunk)); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, err, "save chunk %s", key)
	}
	return nil
}

// encodeChunk serializes chunk data as little-endian float64.
func encodeChunk(a *ndarray.Array) []byte {
	blob := make([]byte, 8*a.Len())
	for i, v := range a.Data() {
		binary.LittleEndian.PutUint64(blob[8*i:], math.Float64bits(v))
	}
	return blob
}

// decodeChunk deserializes a chunk blob into an array of the given shape.
func decodeChunk(blob []byte, shape []int) (*ndarray.Array, error) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if len(blob) != 8*n {
		return nil, errors.New(errors.ErrCodeStoreCorrupt,
			"chunk blob is %d bytes, expected %d for shape %v", len(blob), 8*n, shape)
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	arr, err := ndarray.FromData(shape, data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreCorrupt, err, "decode chunk")
	}
	return arr, nil
}

// Package storage provides n-dimensional array stores addressed by half-open
// integer boxes.
//
// A store has a fixed shape declared at creation; Read returns a dense copy
// of a box and Write stores a dense array into a box. There is no implicit
// resize. The block pipeline relies on one property only: concurrent reads
// anywhere, and concurrent writes to disjoint boxes, are safe. Disjointness
// is a planning invariant of the caller, not something the store enforces.
//
// Three backends are provided: MemStore keeps the whole array in memory,
// FileStore persists a fixed chunk grid as one file per chunk, and RedisStore
// keeps the same chunk grid in Redis so several processes can share a store.
package storage

import (
	"context"

	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
)

// Store is a box-addressed n-dimensional array.
type Store interface {
	// Shape returns the full array extents.
	Shape() []int

	// Read copies the region covered by box out of the store.
	Read(ctx context.Context, box grid.Box) (*ndarray.Array, error)

	// Write copies a into the region covered by box. The shape of a must
	// equal the box shape.
	Write(ctx context.Context, box grid.Box, a *ndarray.Array) error

	// Close releases backend resources.
	Close() error
}

// checkBox validates a box against a store shape.
func checkBox(shape []int, box grid.Box) error {
	if len(box) != len(shape) {
		return errors.New(errors.ErrCodeStoreBounds,
			"box rank %d does not match store rank %d", len(box), len(shape))
	}
	if !grid.BoxOf(shape).Contains(box) || box.Empty() {
		return errors.New(errors.ErrCodeStoreBounds, "box %v outside store shape %v", box, shape)
	}
	return nil
}

// checkWrite validates a write payload against its destination box.
func checkWrite(shape []int, box grid.Box, a *ndarray.Array) error {
	if err := checkBox(shape, box); err != nil {
		return err
	}
	for ax, iv := range box {
		if a.Shape()[ax] != iv.Len() {
			return errors.New(errors.ErrCodeShapeMismatch,
				"array shape %v does not match box %v", a.Shape(), box)
		}
	}
	return nil
}

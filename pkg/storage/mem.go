package storage

import (
	"context"

	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
)

// MemStore holds the full array in memory. Reads copy out, writes copy in.
// Disjoint-box writes touch disjoint memory, so no locking is needed.
type MemStore struct {
	arr *ndarray.Array
}

// NewMemStore creates a zero-filled in-memory store.
func NewMemStore(shape []int) *MemStore {
	return &MemStore{arr: ndarray.New(shape)}
}

// NewMemStoreFrom wraps an existing array as a store. The array is not
// copied; it keeps being the backing storage.
func NewMemStoreFrom(arr *ndarray.Array) *MemStore {
	return &MemStore{arr: arr}
}

// Shape returns the full array extents.
func (s *MemStore) Shape() []int { return s.arr.Shape() }

// Array returns the backing array.
func (s *MemStore) Array() *ndarray.Array { return s.arr }

// Read copies the region covered by box.
func (s *MemStore) Read(ctx context.Context, box grid.Box) (*ndarray.Array, error) {
	if err := checkBox(s.arr.Shape(), box); err != nil {
		return nil, err
	}
	return s.arr.Region(box)
}

// Write copies a into the region covered by box.
func (s *MemStore) Write(ctx context.Context, box grid.Box, a *ndarray.Array) error {
	if err := checkWrite(s.arr.Shape(), box, a); err != nil {
		return err
	}
	return s.arr.SetRegion(box, a)
}

// Close does nothing.
func (s *MemStore) Close() error { return nil }

// Ensure MemStore implements Store.
var _ Store = (*MemStore)(nil)

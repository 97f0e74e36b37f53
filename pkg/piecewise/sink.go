package piecewise

import (
	"context"
	"time"

	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
	"github.com/orena1/bigstream/pkg/observability"
	"github.com/orena1/bigstream/pkg/storage"
)

// Sink receives trimmed block results at their canonical placements. Blocks
// arrive in completion order, one at a time, at disjoint boxes.
type Sink interface {
	Write(ctx context.Context, box grid.Box, a *ndarray.Array) error
}

// Accumulator collects block results into one in-memory array, for callers
// that want the assembled volume back rather than a persistent store.
type Accumulator struct {
	mem *storage.MemStore
}

// NewAccumulator creates an accumulator for a result of the given shape.
func NewAccumulator(shape []int) *Accumulator {
	return &Accumulator{mem: storage.NewMemStore(shape)}
}

// Write places one block result.
func (a *Accumulator) Write(ctx context.Context, box grid.Box, arr *ndarray.Array) error {
	return a.mem.Write(ctx, box, arr)
}

// Result returns the assembled array. Valid once the operation that fills the
// accumulator has returned without error.
func (a *Accumulator) Result() *ndarray.Array { return a.mem.Array() }

// StoreSink writes block results straight through to a storage backend, so
// results larger than memory land on disk or in Redis as they complete.
type StoreSink struct {
	store storage.Store
}

// NewStoreSink wraps a store as a sink.
func NewStoreSink(s storage.Store) *StoreSink { return &StoreSink{store: s} }

// Write places one block result and reports it to the store hooks.
func (s *StoreSink) Write(ctx context.Context, box grid.Box, a *ndarray.Array) error {
	start := time.Now()
	err := s.store.Write(ctx, box, a)
	observability.Stores().OnWrite(ctx, a.Len(), time.Since(start), err)
	return err
}

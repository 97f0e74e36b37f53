// Package piecewise orchestrates larger-than-memory transform operations by
// decomposing volumes into overlapping blocks and fanning the per-block work
// out over a worker pool.
//
// Three operations share the same decomposition machinery:
//
//   - ApplyTransform resamples a moving volume onto a fixed volume through a
//     transform chain, block by block.
//   - ApplyTransformToCoordinates pushes scattered physical points through a
//     chain, partitioning them spatially so each partition's transform crop
//     stays small.
//   - InvertDisplacementField numerically inverts a displacement field per
//     block.
//
// Blocks own disjoint canonical output regions by construction, so results
// are written back without locks, in completion order, with no cross-block
// coordination. A single failing block fails the whole call; blocks already
// written to a persistent sink remain, and callers must treat a failed call's
// output target as indeterminate.
package piecewise

import (
	"io"
	"runtime"

	"github.com/charmbracelet/log"
)

// Options configures the block decomposition and execution of a distributed
// operation.
type Options struct {
	// OverlapFactor is the block overlap as a fraction of block size, in
	// [0, 1]. Zero means no overlap; use DefaultOptions for the usual 0.5.
	// InvertDisplacementField ignores this and always uses
	// InvertOverlapFactor because its refinement steps need neighborhood
	// context.
	OverlapFactor float64

	// Workers bounds the number of concurrently computed blocks.
	// Defaults to runtime.NumCPU().
	Workers int

	// Logger receives per-block progress at debug level. Defaults to a
	// discarding logger.
	Logger *log.Logger
}

const (
	// DefaultOverlapFactor is the block overlap used by ApplyTransform.
	DefaultOverlapFactor = 0.5

	// InvertOverlapFactor is the fixed block overlap used by field
	// inversion.
	InvertOverlapFactor = 0.25
)

// DefaultOptions returns Options with the usual overlap factor and a worker
// per CPU.
func DefaultOptions() Options {
	return Options{OverlapFactor: DefaultOverlapFactor, Workers: runtime.NumCPU()}
}

// withDefaults fills the fields whose zero value is unusable.
func (o Options) withDefaults() Options {
	if o.Workers == 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

package transform

import (
	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/ndarray"
)

// MapPoints maps N physical points through a transform chain.
//
// Transforms are applied in stack order: the last chain element acts first.
// Only the first d columns of each point are mapped; any trailing payload
// columns are copied through untouched. The result preserves count and order.
func MapPoints(points [][]float64, chain []Transform) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = append([]float64(nil), p...)
	}
	if len(chain) == 0 {
		return out
	}
	d := chain[0].NDim()
	for i := len(chain) - 1; i >= 0; i-- {
		t := chain[i]
		for j, p := range out {
			mapped := t.Apply(p[:d])
			copy(out[j][:d], mapped)
		}
	}
	return out
}

// ValidateChain checks the structural invariants of a chain before any work
// is submitted: every transform must act on the same spatial rank d, and d
// must match the fixed image.
func ValidateChain(chain []Transform, ndim int) error {
	for i, t := range chain {
		if t.NDim() != ndim {
			return errors.New(errors.ErrCodeInvalidTransform,
				"transform %d acts on %d dims, expected %d", i, t.NDim(), ndim)
		}
	}
	return nil
}

// ChainFromArrays classifies raw arrays into a transform chain.
//
// An array of rank 2 with shape (d+1)x(d+1) becomes an affine transform; an
// array of rank d+1 with trailing axis d becomes a displacement field using
// the matching spacing and origin entries. Anything else is a configuration
// error. spacings and origins must either be nil (fields get fallbackSpacing
// and a zero origin) or have exactly one entry per array.
func ChainFromArrays(arrays []*ndarray.Array, spacings, origins [][]float64, ndim int, fallbackSpacing []float64) ([]Transform, error) {
	if spacings != nil && len(spacings) != len(arrays) {
		return nil, errors.New(errors.ErrCodeSpacingMismatch,
			"%d transform spacings for %d transforms", len(spacings), len(arrays))
	}
	if origins != nil && len(origins) != len(arrays) {
		return nil, errors.New(errors.ErrCodeSpacingMismatch,
			"%d transform origins for %d transforms", len(origins), len(arrays))
	}

	chain := make([]Transform, 0, len(arrays))
	for i, arr := range arrays {
		shape := arr.Shape()
		switch {
		case arr.Rank() == 2 && shape[0] == ndim+1 && shape[1] == ndim+1:
			m, err := denseFromArray(arr)
			if err != nil {
				return nil, err
			}
			chain = append(chain, m)
		case arr.Rank() == ndim+1 && shape[ndim] == ndim:
			spacing := fallbackSpacing
			if spacings != nil {
				spacing = spacings[i]
			}
			var origin []float64
			if origins != nil {
				origin = origins[i]
			}
			f, err := NewField(arr, spacing, origin)
			if err != nil {
				return nil, err
			}
			chain = append(chain, f)
		default:
			return nil, errors.New(errors.ErrCodeInvalidTransform,
				"transform %d has shape %v: neither a %dx%d affine nor a rank-%d field",
				i, shape, ndim+1, ndim+1, ndim+1)
		}
	}
	return chain, nil
}

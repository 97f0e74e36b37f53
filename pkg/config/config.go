// Package config loads and validates TOML run configurations for the CLI
// commands. A run file names the input and output stores, the block
// decomposition, and the transform chain, so a whole distributed job is one
// file plus one command.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/orena1/bigstream/pkg/errors"
)

// Run is one distributed job description.
type Run struct {
	Fixed  Volume `toml:"fixed"`
	Moving Volume `toml:"moving"`
	Output Output `toml:"output"`
	Block  Block  `toml:"block"`

	// Transforms are applied in stack order: the last entry acts first.
	Transforms []TransformRef `toml:"transform"`

	Invert Invert `toml:"invert"`
	Redis  Redis  `toml:"redis"`
}

// Volume names an input store and its voxel spacing.
type Volume struct {
	// Store locates the array: "file:<dir>" or "redis:<prefix>".
	Store string `toml:"store"`

	// Spacing is the physical size of one voxel per axis.
	Spacing []float64 `toml:"spacing"`
}

// Output names the result store.
type Output struct {
	Store string `toml:"store"`

	// Chunk is the chunk shape used when the store is created. Empty means
	// one chunk per block.
	Chunk []int `toml:"chunk"`
}

// Block configures the decomposition and execution.
type Block struct {
	Size    []int   `toml:"size"`
	Overlap float64 `toml:"overlap"`
	Workers int     `toml:"workers"`
}

// TransformRef names one chain element: an inline affine matrix or a
// displacement field store.
type TransformRef struct {
	// Kind is "affine" or "field".
	Kind string `toml:"kind"`

	// Matrix holds the (d+1)x(d+1) homogeneous matrix in row-major order.
	// Affine only.
	Matrix []float64 `toml:"matrix"`

	// Store locates the field data. Field only.
	Store string `toml:"store"`

	// Spacing is the field's own grid spacing. Field only; defaults to the
	// fixed volume spacing.
	Spacing []float64 `toml:"spacing"`

	// Origin is the physical position of the field's first sample. Field
	// only; defaults to zero.
	Origin []float64 `toml:"origin"`
}

// Invert holds the accuracy/cost knobs for field inversion. Zero values fall
// back to the algorithm defaults.
type Invert struct {
	Step           float64 `toml:"step"`
	Iterations     int     `toml:"iterations"`
	SqrtOrder      int     `toml:"sqrt_order"`
	SqrtStep       float64 `toml:"sqrt_step"`
	SqrtIterations int     `toml:"sqrt_iterations"`
}

// Redis configures the client used by "redis:" store references.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Load reads and validates a run file.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "read run config")
	}
	var run Run
	if err := toml.Unmarshal(data, &run); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode run config")
	}
	if err := run.Validate(); err != nil {
		return nil, err
	}
	return &run, nil
}

// Validate checks the structural constraints shared by all commands. Command
// specific requirements (a moving volume for resampling, inversion knobs for
// inversion) are checked by the command.
func (r *Run) Validate() error {
	if len(r.Block.Size) == 0 {
		return errors.New(errors.ErrCodeInvalidBlocksize, "block.size is required")
	}
	for i, s := range r.Block.Size {
		if s <= 0 {
			return errors.New(errors.ErrCodeInvalidBlocksize, "block.size[%d] = %d must be positive", i, s)
		}
	}
	if r.Block.Overlap < 0 || r.Block.Overlap > 1 {
		return errors.New(errors.ErrCodeInvalidOverlap, "block.overlap %g outside [0, 1]", r.Block.Overlap)
	}
	for i, t := range r.Transforms {
		switch t.Kind {
		case "affine":
			if len(t.Matrix) == 0 {
				return errors.New(errors.ErrCodeInvalidTransform, "transform %d: affine needs a matrix", i)
			}
		case "field":
			if t.Store == "" {
				return errors.New(errors.ErrCodeInvalidTransform, "transform %d: field needs a store", i)
			}
		default:
			return errors.New(errors.ErrCodeInvalidTransform,
				"transform %d: kind %q is neither affine nor field", i, t.Kind)
		}
	}
	return nil
}

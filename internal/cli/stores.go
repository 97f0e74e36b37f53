package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/orena1/bigstream/pkg/config"
	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
	"github.com/orena1/bigstream/pkg/storage"
	"github.com/orena1/bigstream/pkg/transform"
)

// readWholeStore reads the entire array out of a store.
func readWholeStore(ctx context.Context, s storage.Store) (*ndarray.Array, error) {
	return s.Read(ctx, grid.BoxOf(s.Shape()))
}

// openStore opens an existing store from a "file:<dir>" or "redis:<prefix>"
// reference.
func openStore(ctx context.Context, ref string, rcfg config.Redis) (storage.Store, error) {
	scheme, rest, ok := strings.Cut(ref, ":")
	if !ok {
		return nil, fmt.Errorf("store reference %q has no scheme, want file: or redis:", ref)
	}
	switch scheme {
	case "file":
		return storage.OpenFileStore(rest)
	case "redis":
		return storage.OpenRedisStore(ctx, redisClient(rcfg), rest)
	default:
		return nil, fmt.Errorf("unknown store scheme %q", scheme)
	}
}

// createStore creates a new store from a reference, with the given shape and
// chunk shape.
func createStore(ctx context.Context, ref string, shape, chunk []int, rcfg config.Redis) (storage.Store, error) {
	scheme, rest, ok := strings.Cut(ref, ":")
	if !ok {
		return nil, fmt.Errorf("store reference %q has no scheme, want file: or redis:", ref)
	}
	switch scheme {
	case "file":
		return storage.CreateFileStore(rest, shape, chunk)
	case "redis":
		return storage.CreateRedisStore(ctx, redisClient(rcfg), rest, shape, chunk)
	default:
		return nil, fmt.Errorf("unknown store scheme %q", scheme)
	}
}

func redisClient(rcfg config.Redis) *redis.Client {
	addr := rcfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: rcfg.Password, DB: rcfg.DB})
}

// outputChunk picks the chunk shape for a new output store: the configured
// chunk if set, the block size otherwise. Matching the block size keeps every
// block write chunk-aligned.
func outputChunk(run *config.Run, rank int) []int {
	if len(run.Output.Chunk) == rank {
		return run.Output.Chunk
	}
	chunk := make([]int, rank)
	for i := range chunk {
		if i < len(run.Block.Size) {
			chunk[i] = run.Block.Size[i]
		} else {
			chunk[i] = 1 // component axis
		}
	}
	return chunk
}

// buildChain loads the transform chain a run file names: inline affine
// matrices directly, displacement fields by reading the whole field store
// into memory.
func buildChain(ctx context.Context, run *config.Run, fallbackSpacing []float64) ([]transform.Transform, error) {
	chain := make([]transform.Transform, 0, len(run.Transforms))
	for i, ref := range run.Transforms {
		switch ref.Kind {
		case "affine":
			d := int(math.Sqrt(float64(len(ref.Matrix)))) - 1
			if (d+1)*(d+1) != len(ref.Matrix) {
				return nil, fmt.Errorf("transform %d: matrix has %d values, not a square (d+1)^2", i, len(ref.Matrix))
			}
			a, err := transform.AffineFromValues(d, ref.Matrix)
			if err != nil {
				return nil, fmt.Errorf("transform %d: %w", i, err)
			}
			chain = append(chain, a)
		case "field":
			store, err := openStore(ctx, ref.Store, run.Redis)
			if err != nil {
				return nil, fmt.Errorf("transform %d: %w", i, err)
			}
			data, err := readWholeStore(ctx, store)
			store.Close()
			if err != nil {
				return nil, fmt.Errorf("transform %d: %w", i, err)
			}
			spacing := ref.Spacing
			if spacing == nil {
				spacing = fallbackSpacing
			}
			f, err := transform.NewField(data, spacing, ref.Origin)
			if err != nil {
				return nil, fmt.Errorf("transform %d: %w", i, err)
			}
			chain = append(chain, f)
		}
	}
	return chain, nil
}

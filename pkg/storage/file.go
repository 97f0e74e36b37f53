package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
)

// FileStore persists an array as a directory of chunk files plus a metadata
// file. The layout is one raw little-endian float64 file per chunk, named by
// chunk index ("chunk.0.2.1"), which keeps disjoint chunk-aligned writes from
// different processes independent of each other.
type FileStore struct {
	dir   string
	inner chunkStore
}

// fileMeta describes a store directory.
type fileMeta struct {
	Shape []int `json:"shape"`
	Chunk []int `json:"chunk"`
}

const metaFile = "meta.json"

// CreateFileStore creates a new store directory with the given shape and
// chunk shape. The directory is created if needed; an existing meta file is
// an error, there is no implicit overwrite.
func CreateFileStore(dir string, shape, chunk []int) (*FileStore, error) {
	if len(chunk) != len(shape) {
		return nil, errors.New(errors.ErrCodeShapeMismatch,
			"chunk rank %d does not match shape rank %d", len(chunk), len(shape))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWrite, err, "create store dir")
	}
	metaPath := filepath.Join(dir, metaFile)
	if _, err := os.Stat(metaPath); err == nil {
		return nil, errors.New(errors.ErrCodeStoreWrite, "store already exists at %s", dir)
	}
	blob, err := json.Marshal(fileMeta{Shape: shape, Chunk: chunk})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode store meta")
	}
	if err := os.WriteFile(metaPath, blob, 0644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWrite, err, "write store meta")
	}
	return openFileStore(dir, shape, chunk), nil
}

// OpenFileStore opens an existing store directory.
func OpenFileStore(dir string) (*FileStore, error) {
	blob, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "read store meta")
	}
	var meta fileMeta
	if err := json.Unmarshal(blob, &meta); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreCorrupt, err, "decode store meta")
	}
	return openFileStore(dir, meta.Shape, meta.Chunk), nil
}

func openFileStore(dir string, shape, chunk []int) *FileStore {
	s := &FileStore{dir: dir}
	s.inner = chunkStore{
		grid:    chunkGrid{shape: shape, chunk: chunk},
		backend: &fileBackend{dir: dir},
	}
	return s
}

// Shape returns the full array extents.
func (s *FileStore) Shape() []int { return s.inner.grid.shape }

// Read copies the region covered by box out of the chunk files.
func (s *FileStore) Read(ctx context.Context, box grid.Box) (*ndarray.Array, error) {
	return s.inner.read(ctx, box)
}

// Write copies a into the region covered by box.
func (s *FileStore) Write(ctx context.Context, box grid.Box, a *ndarray.Array) error {
	return s.inner.write(ctx, box, a)
}

// Close does nothing; chunk files are written synchronously.
func (s *FileStore) Close() error { return nil }

// fileBackend stores chunk blobs as files in the store directory.
type fileBackend struct {
	dir string
}

func (b *fileBackend) load(_ context.Context, key string) ([]byte, error) {
	blob, err := os.ReadFile(filepath.Join(b.dir, "chunk."+key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return blob, err
}

func (b *fileBackend) save(_ context.Context, key string, blob []byte) error {
	path := filepath.Join(b.dir, "chunk."+key)
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)

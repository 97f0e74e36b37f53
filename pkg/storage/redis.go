package storage

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/orena1/bigstream/pkg/errors"
	"github.com/orena1/bigstream/pkg/grid"
	"github.com/orena1/bigstream/pkg/ndarray"
)

// RedisStore keeps the chunk grid in Redis so several worker processes can
// share one array. Chunks live under "<prefix>:chunk:<idx>" and the store
// metadata under "<prefix>:meta". The in-process lock in the chunk layer does
// not reach across processes, so multi-process writers must keep their boxes
// chunk-aligned.
type RedisStore struct {
	client *redis.Client
	prefix string
	inner  chunkStore
}

// CreateRedisStore registers a new store under prefix and returns it. An
// existing meta key is an error.
func CreateRedisStore(ctx context.Context, client *redis.Client, prefix string, shape, chunk []int) (*RedisStore, error) {
	if len(chunk) != len(shape) {
		return nil, errors.New(errors.ErrCodeShapeMismatch,
			"chunk rank %d does not match shape rank %d", len(chunk), len(shape))
	}
	meta, err := json.Marshal(fileMeta{Shape: shape, Chunk: chunk})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode store meta")
	}
	ok, err := client.SetNX(ctx, prefix+":meta", meta, 0).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWrite, err, "register store %s", prefix)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeStoreWrite, "store already exists at %s", prefix)
	}
	return openRedisStore(client, prefix, shape, chunk), nil
}

// OpenRedisStore opens a store previously registered under prefix.
func OpenRedisStore(ctx context.Context, client *redis.Client, prefix string) (*RedisStore, error) {
	blob, err := client.Get(ctx, prefix+":meta").Bytes()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "read store meta for %s", prefix)
	}
	var meta fileMeta
	if err := json.Unmarshal(blob, &meta); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreCorrupt, err, "decode store meta")
	}
	return openRedisStore(client, prefix, meta.Shape, meta.Chunk), nil
}

func openRedisStore(client *redis.Client, prefix string, shape, chunk []int) *RedisStore {
	s := &RedisStore{client: client, prefix: prefix}
	s.inner = chunkStore{
		grid:    chunkGrid{shape: shape, chunk: chunk},
		backend: &redisBackend{client: client, prefix: prefix},
	}
	return s
}

// Shape returns the full array extents.
func (s *RedisStore) Shape() []int { return s.inner.grid.shape }

// Read copies the region covered by box out of the chunk keys.
func (s *RedisStore) Read(ctx context.Context, box grid.Box) (*ndarray.Array, error) {
	return s.inner.read(ctx, box)
}

// Write copies a into the region covered by box.
func (s *RedisStore) Write(ctx context.Context, box grid.Box, a *ndarray.Array) error {
	return s.inner.write(ctx, box, a)
}

// Close closes the underlying client connection.
func (s *RedisStore) Close() error { return s.client.Close() }

// redisBackend stores chunk blobs as Redis string values.
type redisBackend struct {
	client *redis.Client
	prefix string
}

func (b *redisBackend) load(ctx context.Context, key string) ([]byte, error) {
	blob, err := b.client.Get(ctx, b.prefix+":chunk:"+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return blob, err
}

func (b *redisBackend) save(ctx context.Context, key string, blob []byte) error {
	return b.client.Set(ctx, b.prefix+":chunk:"+key, blob, 0).Err()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

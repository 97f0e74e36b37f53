// Package distribute runs block-indexed units of work on a bounded worker
// pool.
//
// The contract mirrors a cluster scheduler surface: Submit hands a unit of
// work to the pool and returns a handle, AsCompleted yields handles in
// completion order, and Gather collects results in submission order. A single
// failing unit fails the whole call; there is no retry and no partial-result
// recovery at this layer. Tasks must treat their inputs as read-only and own
// disjoint output regions, which is what makes the fan-out safe without
// locks.
package distribute

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/orena1/bigstream/pkg/errors"
)

// Task is one unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// Pool bounds the number of concurrently running tasks.
type Pool struct {
	workers int
	sem     chan struct{}
}

// NewPool creates a pool running at most workers tasks at once. A
// non-positive count falls back to a single worker.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, sem: make(chan struct{}, workers)}
}

// Workers returns the concurrency bound.
func (p *Pool) Workers() int { return p.workers }

// Handle tracks one submitted task.
type Handle[T any] struct {
	// ID identifies the task in logs.
	ID uuid.UUID

	done chan struct{}
	val  T
	err  error
}

// Err returns the task error. Valid only after the handle completed.
func (h *Handle[T]) Err() error { return h.err }

// Value returns the task result. Valid only after the handle completed.
func (h *Handle[T]) Value() T { return h.val }

// Submit starts a task on the pool and returns its handle immediately. The
// task waits for a worker slot; canceling ctx abandons queued tasks.
func Submit[T any](ctx context.Context, p *Pool, task Task[T]) *Handle[T] {
	h := &Handle[T]{ID: uuid.New(), done: make(chan struct{})}
	go func() {
		defer close(h.done)
		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
		case <-ctx.Done():
			h.err = ctx.Err()
			return
		}
		h.val, h.err = task(ctx)
	}()
	return h
}

// AsCompleted returns a channel yielding each handle as it completes. The
// channel is finite and single-pass: it carries every handle exactly once and
// is closed afterwards, or earlier when ctx is canceled.
func AsCompleted[T any](ctx context.Context, handles []*Handle[T]) <-chan *Handle[T] {
	out := make(chan *Handle[T])
	var wg sync.WaitGroup
	wg.Add(len(handles))
	for _, h := range handles {
		go func(h *Handle[T]) {
			defer wg.Done()
			select {
			case <-h.done:
				select {
				case out <- h:
				case <-ctx.Done():
				}
			case <-ctx.Done():
			}
		}(h)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Gather waits for all handles and returns their results in submission
// order. The first task error aborts the call.
func Gather[T any](ctx context.Context, handles []*Handle[T]) ([]T, error) {
	out := make([]T, len(handles))
	for i, h := range handles {
		select {
		case <-h.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if h.err != nil {
			return nil, errors.Wrap(errors.ErrCodeTaskFailed, h.err, "task %s", h.ID)
		}
		out[i] = h.val
	}
	return out, nil
}

// indexed pairs a task result with its submission index.
type indexed[T any] struct {
	index int
	value T
}

// Map runs every task on the pool and feeds each result to consume as it
// completes, in no particular order. The first task or consume error cancels
// the remaining work and is returned. consume is called from a single
// goroutine, so it may write to shared state without locking.
func Map[T any](ctx context.Context, p *Pool, tasks []Task[T], consume func(index int, value T) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	results := make(chan indexed[T])
	var consumeErr error
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for r := range results {
			if consumeErr != nil {
				continue // drain after failure
			}
			if err := consume(r.index, r.value); err != nil {
				consumeErr = err
				cancel()
			}
		}
	}()

	for i, task := range tasks {
		g.Go(func() error {
			v, err := task(gctx)
			if err != nil {
				return errors.Wrap(errors.ErrCodeTaskFailed, err, "task %d", i)
			}
			select {
			case results <- indexed[T]{index: i, value: v}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	close(results)
	<-consumed

	if consumeErr != nil {
		return consumeErr
	}
	return err
}

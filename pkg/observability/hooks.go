// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about block execution and storage traffic.
//
// The package uses a simple hooks pattern: hook interfaces per event
// category, no-op defaults, and a registry written once at startup. This
// keeps the engine free of observability framework imports while allowing any
// backend (OpenTelemetry, Prometheus, plain logs) to attach.
//
// # Usage
//
//	func main() {
//	    observability.SetBlockHooks(&myBlockHooks{})
//	    // ... run application
//	}
//
// The engine calls hooks around each unit of work:
//
//	observability.Blocks().OnBlockStart(ctx, op, index)
//	// ... compute block ...
//	observability.Blocks().OnBlockComplete(ctx, op, index, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// BlockHooks receives events from distributed block execution.
type BlockHooks interface {
	// OnPlan records that an operation planned its block decomposition.
	OnPlan(ctx context.Context, op string, nblocks int)

	// OnBlockStart records that one block's unit of work began.
	OnBlockStart(ctx context.Context, op string, index []int)

	// OnBlockComplete records that one block's unit of work finished.
	OnBlockComplete(ctx context.Context, op string, index []int, duration time.Duration, err error)
}

// StoreHooks receives events from storage backends.
type StoreHooks interface {
	// OnRead records a ranged read of n elements.
	OnRead(ctx context.Context, n int, duration time.Duration, err error)

	// OnWrite records a ranged write of n elements.
	OnWrite(ctx context.Context, n int, duration time.Duration, err error)
}

// NoopBlockHooks is a no-op implementation of BlockHooks.
type NoopBlockHooks struct{}

func (NoopBlockHooks) OnPlan(context.Context, string, int)                                  {}
func (NoopBlockHooks) OnBlockStart(context.Context, string, []int)                          {}
func (NoopBlockHooks) OnBlockComplete(context.Context, string, []int, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnRead(context.Context, int, time.Duration, error)  {}
func (NoopStoreHooks) OnWrite(context.Context, int, time.Duration, error) {}

var (
	blockHooks BlockHooks = NoopBlockHooks{}
	storeHooks StoreHooks = NoopStoreHooks{}
	hooksMu    sync.RWMutex
)

// SetBlockHooks registers custom block hooks.
// This should be called once at application startup before any operations.
func SetBlockHooks(h BlockHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		blockHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Blocks returns the registered block hooks.
func Blocks() BlockHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return blockHooks
}

// Stores returns the registered store hooks.
func Stores() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	blockHooks = NoopBlockHooks{}
	storeHooks = NoopStoreHooks{}
}

package observability

import (
	"context"
	"testing"
	"time"
)

type countingBlockHooks struct {
	plans, starts, completes int
}

func (h *countingBlockHooks) OnPlan(context.Context, string, int)         { h.plans++ }
func (h *countingBlockHooks) OnBlockStart(context.Context, string, []int) { h.starts++ }
func (h *countingBlockHooks) OnBlockComplete(context.Context, string, []int, time.Duration, error) {
	h.completes++
}

type countingStoreHooks struct {
	reads, writes int
}

func (h *countingStoreHooks) OnRead(context.Context, int, time.Duration, error)  { h.reads++ }
func (h *countingStoreHooks) OnWrite(context.Context, int, time.Duration, error) { h.writes++ }

func TestSetBlockHooks(t *testing.T) {
	defer Reset()

	h := &countingBlockHooks{}
	SetBlockHooks(h)

	ctx := context.Background()
	Blocks().OnPlan(ctx, "resample", 8)
	Blocks().OnBlockStart(ctx, "resample", []int{0, 0})
	Blocks().OnBlockComplete(ctx, "resample", []int{0, 0}, time.Millisecond, nil)

	if h.plans != 1 || h.starts != 1 || h.completes != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", h.plans, h.starts, h.completes)
	}
}

func TestSetStoreHooks(t *testing.T) {
	defer Reset()

	h := &countingStoreHooks{}
	SetStoreHooks(h)

	ctx := context.Background()
	Stores().OnRead(ctx, 100, time.Millisecond, nil)
	Stores().OnWrite(ctx, 100, time.Millisecond, nil)

	if h.reads != 1 || h.writes != 1 {
		t.Errorf("counts = %d/%d, want 1/1", h.reads, h.writes)
	}
}

func TestSetHooksIgnoresNil(t *testing.T) {
	defer Reset()

	SetBlockHooks(nil)
	if Blocks() == nil {
		t.Error("nil registration should keep the previous hooks")
	}
	SetStoreHooks(nil)
	if Stores() == nil {
		t.Error("nil registration should keep the previous hooks")
	}
}

func TestReset(t *testing.T) {
	SetBlockHooks(&countingBlockHooks{})
	SetStoreHooks(&countingStoreHooks{})
	Reset()

	if _, ok := Blocks().(NoopBlockHooks); !ok {
		t.Errorf("after Reset Blocks() = %T, want NoopBlockHooks", Blocks())
	}
	if _, ok := Stores().(NoopStoreHooks); !ok {
		t.Errorf("after Reset Stores() = %T, want NoopStoreHooks", Stores())
	}
}

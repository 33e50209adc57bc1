package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Layout hooks
	l := NoopLayoutHooks{}
	l.OnLayoutStart(ctx, 100)
	l.OnLayoutComplete(ctx, 100, time.Second, nil)
	l.OnWarning(ctx, "MALFORMED_INPUT")

	// Frame hooks
	f := NoopFrameHooks{}
	f.OnFrame("T1", 120, 0, time.Millisecond, false)
	f.OnRebuild(100, time.Millisecond)

	// Gesture hooks
	g := NoopGestureHooks{}
	g.OnTransition("idle", "pan")
	g.OnInvalidEvent("idle", "pan_move")

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "layout", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Layout() should return NoopLayoutHooks by default")
	}
	if _, ok := Frame().(NoopFrameHooks); !ok {
		t.Error("Frame() should return NoopFrameHooks by default")
	}
	if _, ok := Gesture().(NoopGestureHooks); !ok {
		t.Error("Gesture() should return NoopGestureHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customLayout := &testLayoutHooks{}
	SetLayoutHooks(customLayout)
	if Layout() != customLayout {
		t.Error("SetLayoutHooks should set custom hooks")
	}

	customFrame := &testFrameHooks{}
	SetFrameHooks(customFrame)
	if Frame() != customFrame {
		t.Error("SetFrameHooks should set custom hooks")
	}

	customGesture := &testGestureHooks{}
	SetGestureHooks(customGesture)
	if Gesture() != customGesture {
		t.Error("SetGestureHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Reset() should restore NoopLayoutHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testLayoutHooks{}
	SetLayoutHooks(custom)

	// Setting nil should be ignored
	SetLayoutHooks(nil)

	if Layout() != custom {
		t.Error("SetLayoutHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testLayoutHooks struct{ NoopLayoutHooks }
type testFrameHooks struct{ NoopFrameHooks }
type testGestureHooks struct{ NoopGestureHooks }
type testCacheHooks struct{ NoopCacheHooks }

type countingLayoutHooks struct {
	starts, completes int
	codes             []string
}

func (c *countingLayoutHooks) OnLayoutStart(context.Context, int) { c.starts++ }
func (c *countingLayoutHooks) OnLayoutComplete(context.Context, int, time.Duration, error) {
	c.completes++
}
func (c *countingLayoutHooks) OnWarning(_ context.Context, code string) { c.codes = append(c.codes, code) }

func TestTeeLayout(t *testing.T) {
	ctx := context.Background()
	a, b := &countingLayoutHooks{}, &countingLayoutHooks{}
	h := TeeLayout(a, nil, b)

	h.OnLayoutStart(ctx, 3)
	h.OnWarning(ctx, "CAPACITY_EXCEEDED")
	h.OnLayoutComplete(ctx, 3, time.Millisecond, nil)

	for _, c := range []*countingLayoutHooks{a, b} {
		if c.starts != 1 || c.completes != 1 || len(c.codes) != 1 || c.codes[0] != "CAPACITY_EXCEEDED" {
			t.Errorf("hooks saw %+v", *c)
		}
	}
}

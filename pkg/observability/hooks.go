// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module never import a metrics backend directly. They call
// the registered hooks, and the binary wires a backend (see pkg/metrics) at
// startup. Until then every hook is a no-op.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := metrics.New()
//	    observability.SetLayoutHooks(m)
//	    observability.SetFrameHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutStart(ctx, len(profiles))
//	// ... compute ...
//	observability.Layout().OnLayoutComplete(ctx, nodeCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout engine.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, profiles int)
	OnLayoutComplete(ctx context.Context, nodes int, duration time.Duration, err error)

	// OnWarning records a non-fatal input problem by error code.
	OnWarning(ctx context.Context, code string)
}

// =============================================================================
// Frame Hooks
// =============================================================================

// FrameHooks receives per-frame culling statistics from the scene.
type FrameHooks interface {
	// OnFrame records one visible-set computation.
	OnFrame(tier string, visible, clusters int, duration time.Duration, truncated bool)

	// OnRebuild records a layout swap into a live scene.
	OnRebuild(nodes int, duration time.Duration)
}

// =============================================================================
// Gesture Hooks
// =============================================================================

// GestureHooks receives camera state machine events.
type GestureHooks interface {
	// OnTransition records a phase change, e.g. "idle" -> "pan".
	OnTransition(from, to string)

	// OnInvalidEvent records an event that was ignored in the current phase.
	OnInvalidEvent(phase, event string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, int)                          {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, int, time.Duration, error) {}
func (NoopLayoutHooks) OnWarning(context.Context, string)                           {}

// NoopFrameHooks is a no-op implementation of FrameHooks.
type NoopFrameHooks struct{}

func (NoopFrameHooks) OnFrame(string, int, int, time.Duration, bool) {}
func (NoopFrameHooks) OnRebuild(int, time.Duration)                  {}

// NoopGestureHooks is a no-op implementation of GestureHooks.
type NoopGestureHooks struct{}

func (NoopGestureHooks) OnTransition(string, string)   {}
func (NoopGestureHooks) OnInvalidEvent(string, string) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// TeeLayout returns hooks that forward every layout event to each of hs in
// order. Nil entries are skipped.
func TeeLayout(hs ...LayoutHooks) LayoutHooks {
	var out teeLayout
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

type teeLayout []LayoutHooks

func (t teeLayout) OnLayoutStart(ctx context.Context, profiles int) {
	for _, h := range t {
		h.OnLayoutStart(ctx, profiles)
	}
}

func (t teeLayout) OnLayoutComplete(ctx context.Context, nodes int, d time.Duration, err error) {
	for _, h := range t {
		h.OnLayoutComplete(ctx, nodes, d, err)
	}
}

func (t teeLayout) OnWarning(ctx context.Context, code string) {
	for _, h := range t {
		h.OnWarning(ctx, code)
	}
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks  LayoutHooks  = NoopLayoutHooks{}
	frameHooks   FrameHooks   = NoopFrameHooks{}
	gestureHooks GestureHooks = NoopGestureHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layout runs.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetFrameHooks registers custom frame hooks.
func SetFrameHooks(h FrameHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		frameHooks = h
	}
}

// SetGestureHooks registers custom gesture hooks.
func SetGestureHooks(h GestureHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		gestureHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Frame returns the registered frame hooks.
func Frame() FrameHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return frameHooks
}

// Gesture returns the registered gesture hooks.
func Gesture() GestureHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return gestureHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	frameHooks = NoopFrameHooks{}
	gestureHooks = NoopGestureHooks{}
	cacheHooks = NoopCacheHooks{}
}

// Package scene ties the canvas core together for one view.
//
// A Scene owns a layout, its spatial index, a camera controller, LOD memos
// and the highlight overlay. [Scene.Frame] runs the per-frame pipeline:
//
//	camera → viewport query → LOD tier → connection curves → highlights
//
// and returns a [VisibleSet] in screen space for an external painter.
//
// Layout rebuilds run off the interactive path with [Scene.RebuildAsync].
// The finished layout waits as pending and is swapped in by the next
// [Scene.Frame] or [Scene.ApplyPending], so the old layout stays renderable
// until then. The camera survives rebuilds and is re-clamped to the new
// bounds.
package scene

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/camera"
	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/connection"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/highlight"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/lod"
	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/profile"
	"github.com/matzehuels/lineage/pkg/spatial"
)

// Options configure a Scene.
type Options struct {
	// Logger receives rebuild and swap messages. Nil discards output.
	Logger *log.Logger
	// Scheduler drives camera animation ticks. Nil uses wall-clock timers.
	Scheduler camera.Scheduler
	// Layouts caches rebuilt layouts. Nil computes every time.
	Layouts *cache.LayoutStore

	// OnCamera is called after the camera or gesture phase changes.
	OnCamera func(camera.Camera, camera.Phase)
	// OnTap is called with the node under each tap, or nil.
	OnTap func(*layout.Node)
	// OnGestureError is called for ignored gesture events.
	OnGestureError func(error)
}

// content is one published layout with its index.
type content struct {
	res   *layout.Result
	index *spatial.Index
	seq   uint64
	took  time.Duration
}

// Scene is the single owner of one view's state. Frame and the gesture
// methods are safe to call from different goroutines, but the overlay
// returned by [Scene.Highlights] must be mutated from one context.
type Scene struct {
	cfg    config.Config
	logger *log.Logger
	opts   Options

	mu         sync.Mutex
	cur        *content
	tiers      *lod.Selector
	buckets    *lod.BucketSelector
	paths      *connection.Calculator
	highlights *highlight.Manager

	ctrl    *camera.Controller
	flight  singleflight.Group
	seq     atomic.Uint64
	pending atomic.Pointer[content]
	closed  atomic.Bool
}

// New builds a scene over res, fitted to a viewport of size.
func New(res *layout.Result, cfg config.Config, size geom.Size, opts Options) *Scene {
	s := &Scene{
		cfg:        cfg,
		logger:     opts.Logger,
		opts:       opts,
		tiers:      lod.NewSelector(cfg),
		buckets:    lod.NewBucketSelector(cfg, 0),
		paths:      connection.NewCalculator(cfg),
		highlights: highlight.NewManager(),
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.cur = &content{res: res, index: spatial.Build(res, cfg.Spatial)}
	env := camera.Env{
		Config:   cfg,
		Viewport: size,
		Bounds:   res.Bounds,
		Hit:      s.cur.index,
	}
	s.ctrl = camera.NewController(env, res, camera.Options{
		Scheduler: opts.Scheduler,
		Logger:    s.logger,
		OnChange:  opts.OnCamera,
		OnTap:     opts.OnTap,
		OnError:   opts.OnGestureError,
	})
	return s
}

// Config returns the scene configuration.
func (s *Scene) Config() config.Config { return s.cfg }

// Controller returns the camera controller.
func (s *Scene) Controller() *camera.Controller { return s.ctrl }

// Highlights returns the overlay manager.
func (s *Scene) Highlights() *highlight.Manager { return s.highlights }

// Layout returns the current layout.
func (s *Scene) Layout() *layout.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.res
}

// Index returns the spatial index of the current layout.
func (s *Scene) Index() *spatial.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.index
}

// Handle feeds a gesture event to the camera.
func (s *Scene) Handle(ev camera.Event) error { return s.ctrl.Handle(ev) }

// SetViewport resizes the view.
func (s *Scene) SetViewport(size geom.Size) { s.ctrl.SetViewport(size) }

// HitTest returns the node under screen point p.
func (s *Scene) HitTest(p geom.Point) (*layout.Node, bool) {
	cam := s.ctrl.Camera()
	return s.Index().HitTest(cam.ToWorld(p), s.cfg.Spatial.HitSlop/cam.Scale)
}

// FocusOnNode animates the camera to node id.
func (s *Scene) FocusOnNode(id string) error { return s.ctrl.FocusOnNode(id) }

// HighlightAncestry highlights the ancestry of id and returns the group ID.
func (s *Scene) HighlightAncestry(id string, style highlight.Style) (string, error) {
	res := s.Layout()
	if _, ok := res.Node(id); !ok {
		return "", errors.New(errors.ErrCodeNotFound, "node %q not found", id)
	}
	group, entries := highlight.AncestryPath(res.Lineage(), id, style)
	return group, s.highlights.AddAll(entries)
}

// Rebuild lays out profiles and swaps the result in before returning.
func (s *Scene) Rebuild(ctx context.Context, profiles []profile.Profile) error {
	if err := <-s.RebuildAsync(ctx, profiles); err != nil {
		return err
	}
	s.ApplyPending()
	return nil
}

// RebuildAsync lays out profiles in the background and publishes the result
// as pending. Concurrent rebuilds of identical profiles share one layout
// pass. The channel receives the outcome and is then closed.
func (s *Scene) RebuildAsync(ctx context.Context, profiles []profile.Profile) <-chan error {
	done := make(chan error, 1)
	if s.closed.Load() {
		done <- errors.New(errors.ErrCodeInvalidInput, "scene closed")
		close(done)
		return done
	}
	seq := s.seq.Add(1)
	key := cache.HashProfiles(profiles)
	go func() {
		defer close(done)
		ch := s.flight.DoChan(key, func() (any, error) {
			return s.build(ctx, profiles)
		})
		select {
		case r := <-ch:
			if r.Err != nil {
				done <- r.Err
				return
			}
			c := *r.Val.(*content)
			c.seq = seq
			s.publish(&c)
			done <- nil
		case <-ctx.Done():
			done <- ctx.Err()
		}
	}()
	return done
}

func (s *Scene) build(ctx context.Context, profiles []profile.Profile) (*content, error) {
	start := time.Now()
	opts := layout.Options{Logger: s.logger}
	var (
		res *layout.Result
		hit bool
		err error
	)
	if s.opts.Layouts != nil {
		res, hit, err = s.opts.Layouts.Compute(ctx, profiles, s.cfg, opts)
	} else {
		res, err = layout.Compute(ctx, profiles, s.cfg, opts)
	}
	if err != nil {
		return nil, err
	}
	c := &content{res: res, index: spatial.Build(res, s.cfg.Spatial), took: time.Since(start)}
	s.logger.Debug("layout rebuilt", "nodes", res.Len(), "cached", hit, "duration", c.took)
	return c, nil
}

// publish stores c as pending unless a newer rebuild already landed.
func (s *Scene) publish(c *content) {
	for {
		old := s.pending.Load()
		if old != nil && old.seq > c.seq {
			return
		}
		if s.pending.CompareAndSwap(old, c) {
			return
		}
	}
}

// ApplyPending swaps in a finished rebuild. It reports whether one was
// applied.
func (s *Scene) ApplyPending() bool {
	c := s.pending.Swap(nil)
	if c == nil || s.closed.Load() {
		return false
	}
	s.mu.Lock()
	if c.seq < s.cur.seq {
		s.mu.Unlock()
		return false
	}
	s.cur = c
	s.mu.Unlock()

	s.ctrl.SetContent(c.res.Bounds, c.index, c.res)
	observability.Frame().OnRebuild(c.res.Len(), c.took)
	s.logger.Info("layout swapped in", "nodes", c.res.Len(), "degraded", c.res.Degraded)
	return true
}

// Close cancels scheduled camera work and drops any pending rebuild.
func (s *Scene) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.pending.Store(nil)
	s.ctrl.Close()
}

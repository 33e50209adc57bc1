package camera

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/observability"
)

// NodeLookup resolves node IDs for focus navigation. *layout.Result
// implements it.
type NodeLookup interface {
	Node(id string) (*layout.Node, bool)
}

// Options configure a [Controller].
type Options struct {
	// Scheduler provides frame ticks. Nil uses [TimerScheduler].
	Scheduler Scheduler
	// Clock stamps navigation requests. Nil uses the ManualScheduler clock
	// when Scheduler is one, otherwise time.Now.
	Clock func() time.Time
	// Logger receives gesture diagnostics. Nil discards output.
	Logger *log.Logger

	// OnChange is called after the camera or phase changes.
	OnChange func(Camera, Phase)
	// OnTap is called for every tap with the node hit, or nil.
	OnTap func(*layout.Node)
	// OnError is called for invalid gesture sequences.
	OnError func(error)
}

// Snapshot is an immutable copy of the controller's view, for minimaps and
// serialization.
type Snapshot struct {
	Camera   Camera      `json:"camera"`
	Phase    string      `json:"phase"`
	Viewport geom.Size   `json:"viewport"`
	Bounds   geom.Bounds `json:"bounds"`
	Visible  geom.Rect   `json:"visible"`
}

// Controller owns one camera and drives it through the gesture state
// machine. It is safe for concurrent use; scheduled ticks may arrive on
// other goroutines.
type Controller struct {
	mu     sync.Mutex
	env    Env
	nodes  NodeLookup
	state  State
	cam    Camera
	sched  Scheduler
	clock  func() time.Time
	logger *log.Logger
	opts   Options

	epoch  uint64
	cancel func()
	closed bool
}

// NewController starts idle with the content fitted to the viewport.
func NewController(env Env, nodes NodeLookup, opts Options) *Controller {
	c := &Controller{
		env:    env,
		nodes:  nodes,
		state:  Idle{},
		sched:  opts.Scheduler,
		clock:  opts.Clock,
		logger: opts.Logger,
		opts:   opts,
	}
	if c.sched == nil {
		c.sched = TimerScheduler{}
	}
	if c.clock == nil {
		if m, ok := c.sched.(*ManualScheduler); ok {
			c.clock = m.Now
		} else {
			c.clock = time.Now
		}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	c.cam = env.Fit()
	return c
}

// notice is a deferred callback, run after the lock is released.
type notice func()

// Handle feeds one event through the state machine. It returns the
// INVALID_GESTURE_SEQUENCE error when the event was ignored.
func (c *Controller) Handle(ev Event) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidInput, "camera controller closed")
	}
	notices, err := c.apply(ev)
	c.mu.Unlock()
	for _, n := range notices {
		n()
	}
	return err
}

// apply runs a transition with c.mu held.
func (c *Controller) apply(ev Event) ([]notice, error) {
	prev, prevCam := c.state.Phase(), c.cam
	o := Step(c.state, ev, c.cam, c.env)
	c.state, c.cam = o.State, o.Camera
	next := c.state.Phase()

	var notices []notice
	if o.Err != nil {
		observability.Gesture().OnInvalidEvent(prev.String(), ev.Name())
		c.logger.Debug("ignored gesture event", "event", ev.Name(), "phase", prev)
		if fn := c.opts.OnError; fn != nil {
			err := o.Err
			notices = append(notices, func() { fn(err) })
		}
	}
	if _, ok := ev.(Tap); ok && c.opts.OnTap != nil {
		fn, hit := c.opts.OnTap, o.Hit
		notices = append(notices, func() { fn(hit) })
	}
	if prev != next {
		observability.Gesture().OnTransition(prev.String(), next.String())
		c.logger.Debug("camera phase", "from", prev, "to", next)
	}

	switch {
	case next.Timed() && c.cancel == nil:
		c.scheduleTick()
	case !next.Timed() && prev.Timed():
		c.cancelTick()
	}

	if fn := c.opts.OnChange; fn != nil && (prev != next || prevCam != c.cam) {
		cam := c.cam
		notices = append(notices, func() { fn(cam, next) })
	}
	return notices, o.Err
}

func (c *Controller) scheduleTick() {
	epoch := c.epoch
	c.cancel = c.sched.Schedule(c.env.Config.Camera.TickInterval, func(now time.Time) {
		c.onTick(epoch, now)
	})
}

// cancelTick drops the pending step and invalidates any step already in
// flight.
func (c *Controller) cancelTick() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++
}

func (c *Controller) onTick(epoch uint64, now time.Time) {
	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.cancel = nil
	notices, _ := c.apply(Tick{Now: now})
	c.mu.Unlock()
	for _, n := range notices {
		n()
	}
}

// Camera returns the current camera.
func (c *Controller) Camera() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cam
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Phase()
}

// State returns the current state value.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Env returns the current environment.
func (c *Controller) Env() Env {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.env
}

// Snapshot returns an immutable copy of the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Camera:   c.cam,
		Phase:    c.state.Phase().String(),
		Viewport: c.env.Viewport,
		Bounds:   c.env.Bounds,
		Visible:  c.cam.Viewport(c.env.Viewport),
	}
}

// SetContent swaps in a new layout. The camera is kept and, when idle,
// re-clamped to the new bounds.
func (c *Controller) SetContent(bounds geom.Bounds, hit HitTester, nodes NodeLookup) {
	c.mu.Lock()
	c.env.Bounds, c.env.Hit = bounds, hit
	c.nodes = nodes
	notices := c.reclamp()
	c.mu.Unlock()
	for _, n := range notices {
		n()
	}
}

// SetViewport updates the surface size, re-clamping when idle.
func (c *Controller) SetViewport(size geom.Size) {
	c.mu.Lock()
	c.env.Viewport = size
	notices := c.reclamp()
	c.mu.Unlock()
	for _, n := range notices {
		n()
	}
}

func (c *Controller) reclamp() []notice {
	if c.state.Phase() != PhaseIdle {
		return nil
	}
	next := c.env.Clamp(c.cam)
	if next == c.cam {
		return nil
	}
	c.cam = next
	if fn := c.opts.OnChange; fn != nil {
		return []notice{func() { fn(next, PhaseIdle) }}
	}
	return nil
}

// PanZoomTo animates to target over d.
func (c *Controller) PanZoomTo(target Camera, d time.Duration) error {
	return c.Handle(Navigate{Target: target, Duration: d, Time: c.clock()})
}

// FocusOnNode centers node id at the focus zoom.
func (c *Controller) FocusOnNode(id string) error {
	c.mu.Lock()
	if c.nodes == nil {
		c.mu.Unlock()
		return errors.New(errors.ErrCodeNotFound, "node %q not found", id)
	}
	n, ok := c.nodes.Node(id)
	env := c.env
	c.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %q not found", id)
	}
	return c.PanZoomTo(env.FocusOn(n.Center()), env.Config.Camera.AnimationDuration)
}

// FitToView animates to show the whole content.
func (c *Controller) FitToView() error {
	env := c.Env()
	return c.PanZoomTo(env.Fit(), env.Config.Camera.AnimationDuration)
}

// Close cancels all scheduled work. Later events return an error.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.cancelTick()
	c.closed = true
	c.sched = nil
}

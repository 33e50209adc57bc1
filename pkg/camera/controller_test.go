package camera

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/layout"
)

func newTestController(t *testing.T, opts Options) (*Controller, *ManualScheduler) {
	t.Helper()
	sched := NewManualScheduler(t0)
	opts.Scheduler = sched
	ctrl := NewController(testEnv(), nil, opts)
	t.Cleanup(ctrl.Close)
	require.NoError(t, ctrl.PanZoomTo(centered(ctrl.Env()), 0))
	require.Equal(t, PhaseIdle, ctrl.Phase())
	return ctrl, sched
}

// fling drags left quickly and releases.
func fling(t *testing.T, ctrl *Controller, sched *ManualScheduler) {
	t.Helper()
	require.NoError(t, ctrl.Handle(PanStart{At: geom.Pt(400, 300), Time: sched.Now()}))
	sched.Advance(10 * time.Millisecond)
	require.NoError(t, ctrl.Handle(PanMove{At: geom.Pt(350, 300), Time: sched.Now()}))
	sched.Advance(10 * time.Millisecond)
	require.NoError(t, ctrl.Handle(PanMove{At: geom.Pt(300, 300), Time: sched.Now()}))
	require.NoError(t, ctrl.Handle(PanEnd{Time: sched.Now()}))
	require.Equal(t, PhaseDecaying, ctrl.Phase())
}

func TestPinchInterruptsMomentum(t *testing.T) {
	ctrl, sched := newTestController(t, Options{})
	fling(t, ctrl, sched)

	before := ctrl.Camera()
	sched.Advance(50 * time.Millisecond)
	moving := ctrl.Camera()
	assert.Less(t, moving.TranslateX, before.TranslateX, "momentum carries the camera")
	assert.Equal(t, 1, sched.Pending())

	require.NoError(t, ctrl.Handle(PinchStart{Focal: geom.Pt(400, 300), Distance: 100, Time: sched.Now()}))
	assert.Equal(t, PhasePinch, ctrl.Phase())
	assert.Zero(t, sched.Pending(), "no step left scheduled")

	held := ctrl.Camera()
	sched.Advance(time.Second)
	assert.Equal(t, held, ctrl.Camera(), "decay does not touch the camera after the pinch")
	assert.Equal(t, PhasePinch, ctrl.Phase())
}

func TestControllerSettlesAfterFling(t *testing.T) {
	var (
		mu      sync.Mutex
		changes int
		last    Phase
	)
	ctrl, sched := newTestController(t, Options{OnChange: func(_ Camera, p Phase) {
		mu.Lock()
		defer mu.Unlock()
		changes++
		last = p
	}})
	fling(t, ctrl, sched)
	sched.RunFor(5*time.Second, 16*time.Millisecond)

	assert.Equal(t, PhaseIdle, ctrl.Phase())
	assert.Zero(t, sched.Pending())
	assert.True(t, ctrl.Env().AtRest(ctrl.Camera()))
	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, changes, 3)
	assert.Equal(t, PhaseIdle, last)
}

func TestControllerAnimation(t *testing.T) {
	ctrl, sched := newTestController(t, Options{})
	env := ctrl.Env()
	target := env.FocusOn(geom.Pt(3000, 2000))

	require.NoError(t, ctrl.PanZoomTo(target, 200*time.Millisecond))
	assert.Equal(t, PhaseAnimating, ctrl.Phase())
	sched.Advance(100 * time.Millisecond)
	mid := ctrl.Camera()
	assert.NotEqual(t, target, mid)

	sched.Advance(200 * time.Millisecond)
	assert.Equal(t, PhaseIdle, ctrl.Phase())
	assert.Equal(t, target, ctrl.Camera())
	assert.Zero(t, sched.Pending())
}

func TestControllerInvalidEvent(t *testing.T) {
	var got error
	ctrl, _ := newTestController(t, Options{OnError: func(err error) { got = err }})

	err := ctrl.Handle(PinchMove{Focal: geom.Pt(10, 10), Distance: 50})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidGestureSequence))
	assert.Equal(t, err, got)
	assert.Equal(t, PhaseIdle, ctrl.Phase())
}

func TestFocusOnNode(t *testing.T) {
	n := &layout.Node{ID: "p1", X: 3500, Y: 200, Width: 160, Height: 80}
	hits := fakeHits{node: n}
	var tapped *layout.Node

	ctrl, sched := newTestController(t, Options{OnTap: func(hit *layout.Node) { tapped = hit }})
	err := ctrl.FocusOnNode("p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	env := ctrl.Env()
	ctrl.SetContent(env.Bounds, hits, hits)
	err = ctrl.FocusOnNode("missing")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	require.NoError(t, ctrl.FocusOnNode("p1"))
	sched.RunFor(time.Second, 16*time.Millisecond)
	assert.Equal(t, env.FocusOn(n.Center()), ctrl.Camera())

	at := ctrl.Camera().ToScreen(n.Center())
	require.NoError(t, ctrl.Handle(Tap{At: at, Time: sched.Now()}))
	require.NotNil(t, tapped)
	assert.Equal(t, "p1", tapped.ID)
}

func TestSetViewportReclamps(t *testing.T) {
	ctrl, _ := newTestController(t, Options{})
	ctrl.SetViewport(geom.Size{W: 390, H: 844})
	snap := ctrl.Snapshot()
	assert.Equal(t, "idle", snap.Phase)
	assert.Equal(t, geom.Size{W: 390, H: 844}, snap.Viewport)
	assert.True(t, ctrl.Env().AtRest(snap.Camera))
}

func TestCloseCancelsTicks(t *testing.T) {
	ctrl, sched := newTestController(t, Options{})
	fling(t, ctrl, sched)
	require.Equal(t, 1, sched.Pending())

	ctrl.Close()
	assert.Zero(t, sched.Pending())
	cam := ctrl.Camera()
	sched.Advance(time.Second)
	assert.Equal(t, cam, ctrl.Camera())

	err := ctrl.Handle(PanStart{At: geom.Pt(1, 1), Time: sched.Now()})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	ctrl.Close()
}

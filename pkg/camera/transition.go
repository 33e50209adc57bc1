package camera

import (
	"time"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/layout"
)

// Outcome is the full result of one transition.
type Outcome struct {
	State  State
	Camera Camera
	// Err is an INVALID_GESTURE_SEQUENCE error when the event was not valid
	// in the previous phase.
	Err error
	// Hit is the node under a Tap or DoubleTap.
	Hit *layout.Node
}

// Transition applies ev to state s and camera cam.
func Transition(s State, ev Event, cam Camera, env Env) (State, Camera) {
	o := Step(s, ev, cam, env)
	return o.State, o.Camera
}

// Step is [Transition] with error and hit reporting. A nil state is Idle.
func Step(s State, ev Event, cam Camera, env Env) Outcome {
	if s == nil {
		s = Idle{}
	}
	switch ev := ev.(type) {
	case PanStart:
		return panStart(s, ev, cam, env)
	case PanMove:
		st, ok := s.(PanActive)
		if !ok {
			return invalid(s, ev, cam, env)
		}
		return panMove(st, ev, cam, env)
	case PanEnd:
		st, ok := s.(PanActive)
		if !ok {
			return invalid(s, ev, cam, env)
		}
		return release(cam, st.Samples, st.Queued, ev.Time, env)
	case PinchStart:
		return pinchStart(s, ev, cam, env)
	case PinchMove:
		st, ok := s.(PinchActive)
		if !ok {
			return invalid(s, ev, cam, env)
		}
		return pinchMove(st, ev, cam, env)
	case PinchEnd:
		st, ok := s.(PinchActive)
		if !ok {
			return invalid(s, ev, cam, env)
		}
		return release(cam, st.Samples, st.Queued, ev.Time, env)
	case Tick:
		return tick(s, ev, cam, env)
	case Navigate:
		return navigate(s, ev, cam, env)
	case Tap:
		o := Outcome{State: s, Camera: cam, Hit: hitTest(ev.At, cam, env)}
		if _, ok := s.(Decaying); ok {
			o.State, o.Camera = Idle{}, env.Clamp(cam)
		}
		return o
	case DoubleTap:
		hit := hitTest(ev.At, cam, env)
		if hit == nil {
			return Outcome{State: s, Camera: cam}
		}
		o := navigate(s, Navigate{
			Target:   env.FocusOn(hit.Center()),
			Duration: env.Config.Camera.AnimationDuration,
			Time:     ev.Time,
		}, cam, env)
		o.Hit = hit
		return o
	default:
		return invalid(s, ev, cam, env)
	}
}

func invalid(s State, ev Event, cam Camera, env Env) Outcome {
	return Outcome{
		State:  Idle{},
		Camera: env.Clamp(cam),
		Err: errors.New(errors.ErrCodeInvalidGestureSequence,
			"%s is not valid while %s", ev.Name(), s.Phase()),
	}
}

func queuedOf(s State) *Navigate {
	switch st := s.(type) {
	case PanActive:
		return st.Queued
	case PinchActive:
		return st.Queued
	}
	return nil
}

// settle prepares the camera for a new gesture. Animations are cancelled
// with a clamped camera; momentum stops where it is.
func settle(s State, cam Camera, env Env) Camera {
	if _, ok := s.(Animating); ok {
		return env.Clamp(cam)
	}
	cam.Scale = env.Config.Zoom.ClampScale(cam.Scale)
	return cam
}

func panStart(s State, ev PanStart, cam Camera, env Env) Outcome {
	cam = settle(s, cam, env)
	raw := env.unrubber(cam.Translate(), cam.Scale)
	st := PanActive{
		Raw:     raw,
		Last:    ev.At,
		Samples: Samples{}.Add(ev.At, ev.Time),
		Queued:  queuedOf(s),
	}
	return Outcome{State: st, Camera: cam.withTranslate(env.rubber(raw, cam.Scale))}
}

func panMove(st PanActive, ev PanMove, cam Camera, env Env) Outcome {
	st.Raw = st.Raw.Add(ev.At.Sub(st.Last))
	st.Last = ev.At
	st.Samples = st.Samples.Add(ev.At, ev.Time)
	return Outcome{State: st, Camera: cam.withTranslate(env.rubber(st.Raw, cam.Scale))}
}

func pinchStart(s State, ev PinchStart, cam Camera, env Env) Outcome {
	cam = settle(s, cam, env)
	dist := ev.Distance
	if dist <= 0 {
		dist = 1
	}
	raw := env.unrubber(cam.Translate(), cam.Scale)
	st := PinchActive{
		Anchor:        ev.Focal.Sub(raw).Mul(1 / cam.Scale),
		StartScale:    cam.Scale,
		StartDistance: dist,
		Samples:       Samples{}.Add(ev.Focal, ev.Time),
		Queued:        queuedOf(s),
	}
	return Outcome{State: st, Camera: cam}
}

func pinchMove(st PinchActive, ev PinchMove, cam Camera, env Env) Outcome {
	scale := cam.Scale
	if ev.Distance > 0 {
		scale = env.Config.Zoom.ClampScale(st.StartScale * ev.Distance / st.StartDistance)
	}
	// Keep the anchor under the focal point.
	raw := ev.Focal.Sub(st.Anchor.Mul(scale))
	st.Samples = st.Samples.Add(ev.Focal, ev.Time)
	cam = Camera{Scale: scale}.withTranslate(env.rubber(raw, scale))
	return Outcome{State: st, Camera: cam}
}

// release ends a gesture: a queued navigation starts, otherwise momentum or
// overshoot hands over to Decaying.
func release(cam Camera, samples Samples, queued *Navigate, at time.Time, env Env) Outcome {
	if queued != nil {
		return animate(env.Clamp(cam), env.Clamp(queued.Target), at, queued.Duration)
	}
	c := env.Config.Camera
	v := samples.Velocity(at, c.VelocityWindow, c.MaxVelocity)
	if settled(v, env.Overshoot(cam), c.MinVelocity) {
		return Outcome{State: Idle{}, Camera: env.Clamp(cam)}
	}
	return Outcome{State: Decaying{Velocity: v, Last: at}, Camera: cam}
}

func tick(s State, ev Tick, cam Camera, env Env) Outcome {
	switch st := s.(type) {
	case Animating:
		p := progress(Easing(env.Config.Camera.Easing), ev.Now.Sub(st.Start), st.Duration)
		if p >= 1 {
			return Outcome{State: Idle{}, Camera: env.Clamp(st.To)}
		}
		return Outcome{State: st, Camera: interpolate(st.From, st.To, p, env.Viewport)}
	case Decaying:
		dt := ev.Now.Sub(st.Last)
		if dt <= 0 {
			return Outcome{State: st, Camera: cam}
		}
		lo, hi := env.Limits(cam.Scale)
		t, v := decay(cam.Translate(), st.Velocity, lo, hi, dt, env.Config.Camera)
		cam = cam.withTranslate(t)
		if settled(v, env.Overshoot(cam), env.Config.Camera.MinVelocity) {
			return Outcome{State: Idle{}, Camera: env.Clamp(cam)}
		}
		return Outcome{State: Decaying{Velocity: v, Last: ev.Now}, Camera: cam}
	}
	return Outcome{State: s, Camera: cam}
}

func navigate(s State, ev Navigate, cam Camera, env Env) Outcome {
	target := env.Clamp(ev.Target)
	switch st := s.(type) {
	case PanActive:
		ev.Target = target
		st.Queued = &ev
		return Outcome{State: st, Camera: cam}
	case PinchActive:
		ev.Target = target
		st.Queued = &ev
		return Outcome{State: st, Camera: cam}
	case Decaying:
		return animate(env.Clamp(cam), target, ev.Time, ev.Duration)
	}
	// Idle starts fresh; Animating retargets from wherever it is now.
	return animate(cam, target, ev.Time, ev.Duration)
}

func animate(from, to Camera, start time.Time, d time.Duration) Outcome {
	if d <= 0 || from == to {
		return Outcome{State: Idle{}, Camera: to}
	}
	return Outcome{State: Animating{From: from, To: to, Start: start, Duration: d}, Camera: from}
}

func hitTest(p geom.Point, cam Camera, env Env) *layout.Node {
	if env.Hit == nil || cam.Scale <= 0 {
		return nil
	}
	n, ok := env.Hit.HitTest(cam.ToWorld(p), env.Config.Spatial.HitSlop/cam.Scale)
	if !ok {
		return nil
	}
	return n
}

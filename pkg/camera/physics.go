package camera

import (
	"math"
	"time"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/geom"
)

const (
	// maxSamples bounds the pointer history kept for release velocity.
	maxSamples = 8
	// physicsStep is the largest integration step; longer ticks are split.
	physicsStep = time.Second / 120
	// maxTickGap caps the time a single tick may integrate.
	maxTickGap = 250 * time.Millisecond
	// restOvershoot is the overshoot in pixels below which a spring is done.
	restOvershoot = 0.5
)

type sample struct {
	P geom.Point
	T time.Time
}

// Samples is a fixed-size pointer history. It is a value type so states
// holding it stay immutable.
type Samples struct {
	buf [maxSamples]sample
	n   int
}

// Add returns s with p appended, dropping the oldest sample when full.
func (s Samples) Add(p geom.Point, t time.Time) Samples {
	if s.n == maxSamples {
		copy(s.buf[:], s.buf[1:])
		s.n--
	}
	s.buf[s.n] = sample{P: p, T: t}
	s.n++
	return s
}

// Len returns the number of samples.
func (s Samples) Len() int { return s.n }

// Velocity estimates pixels per second from samples no older than window at
// release time end, capped at maxSpeed. A pointer that rested longer than
// window before release has no velocity.
func (s Samples) Velocity(end time.Time, window time.Duration, maxSpeed float64) geom.Point {
	if s.n < 2 {
		return geom.Point{}
	}
	last := s.buf[s.n-1]
	if end.Sub(last.T) > window {
		return geom.Point{}
	}
	first := last
	for i := s.n - 2; i >= 0; i-- {
		if end.Sub(s.buf[i].T) > window {
			break
		}
		first = s.buf[i]
	}
	dt := last.T.Sub(first.T).Seconds()
	if dt <= 0 {
		return geom.Point{}
	}
	v := last.P.Sub(first.P).Mul(1 / dt)
	if l := v.Length(); l > maxSpeed {
		v = v.Mul(maxSpeed / l)
	}
	return v
}

// RubberBand maps a raw overshoot x to the displayed offset for a viewport
// dimension d and coefficient c.
func RubberBand(x, d, c float64) float64 {
	if x <= 0 || d <= 0 {
		return 0
	}
	return (1 - 1/(x*c/d+1)) * d
}

// inverseRubberBand returns the raw overshoot that displays as y.
func inverseRubberBand(y, d, c float64) float64 {
	if y <= 0 || d <= 0 || c <= 0 {
		return 0
	}
	if y >= d {
		y = math.Nextafter(d, 0)
	}
	return y * d / ((d - y) * c)
}

func rubberAxis(raw, lo, hi, d, c float64) float64 {
	switch {
	case raw < lo:
		return lo - RubberBand(lo-raw, d, c)
	case raw > hi:
		return hi + RubberBand(raw-hi, d, c)
	}
	return raw
}

func unrubberAxis(shown, lo, hi, d, c float64) float64 {
	switch {
	case shown < lo:
		return lo - inverseRubberBand(lo-shown, d, c)
	case shown > hi:
		return hi + inverseRubberBand(shown-hi, d, c)
	}
	return shown
}

// rubber applies rubber-band resistance to a raw translation at scale.
func (e Env) rubber(raw geom.Point, scale float64) geom.Point {
	lo, hi := e.Limits(scale)
	c := e.Config.Camera.RubberBand
	return geom.Point{
		X: rubberAxis(raw.X, lo.X, hi.X, e.Viewport.W, c),
		Y: rubberAxis(raw.Y, lo.Y, hi.Y, e.Viewport.H, c),
	}
}

// unrubber recovers the raw translation for a displayed one.
func (e Env) unrubber(shown geom.Point, scale float64) geom.Point {
	lo, hi := e.Limits(scale)
	c := e.Config.Camera.RubberBand
	return geom.Point{
		X: unrubberAxis(shown.X, lo.X, hi.X, e.Viewport.W, c),
		Y: unrubberAxis(shown.Y, lo.Y, hi.Y, e.Viewport.H, c),
	}
}

// decay integrates momentum and spring-back over dt. It returns the new
// translation and velocity.
func decay(t, v geom.Point, lo, hi geom.Point, dt time.Duration, cfg config.Camera) (geom.Point, geom.Point) {
	dt = min(dt, maxTickGap)
	for dt > 0 {
		h := min(dt, physicsStep)
		dt -= h
		sec := h.Seconds()
		t.X, v.X = decayAxis(t.X, v.X, lo.X, hi.X, sec, cfg)
		t.Y, v.Y = decayAxis(t.Y, v.Y, lo.Y, hi.Y, sec, cfg)
	}
	return t, v
}

func decayAxis(x, v, lo, hi, h float64, cfg config.Camera) (float64, float64) {
	target := geom.Clamp(x, lo, hi)
	if over := x - target; over != 0 {
		// Damped spring toward the violated bound, semi-implicit Euler.
		a := -cfg.SpringStiffness*over - cfg.SpringDamping*v
		v += a * h
		x += v * h
		// Do not overshoot through the bound from the outside.
		if (over > 0 && x < target) || (over < 0 && x > target) {
			x, v = target, 0
		}
		return x, v
	}
	x += v * h
	v *= math.Exp(-cfg.DecayRate * h)
	return x, v
}

// settled reports whether momentum and overshoot are negligible.
func settled(v, over geom.Point, minVelocity float64) bool {
	return math.Abs(v.X) < minVelocity && math.Abs(v.Y) < minVelocity &&
		math.Abs(over.X) < restOvershoot && math.Abs(over.Y) < restOvershoot
}

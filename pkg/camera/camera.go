package camera

import (
	"math"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/layout"
)

// Camera is a uniform-scale view transform.
type Camera struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// Transform returns the camera as a world-to-screen transform.
func (c Camera) Transform() geom.Transform {
	return geom.Transform{TranslateX: c.TranslateX, TranslateY: c.TranslateY, Scale: c.Scale}
}

// Translate returns the translation as a point.
func (c Camera) Translate() geom.Point { return geom.Point{X: c.TranslateX, Y: c.TranslateY} }

func (c Camera) withTranslate(p geom.Point) Camera {
	c.TranslateX, c.TranslateY = p.X, p.Y
	return c
}

// ToWorld maps a screen point to world coordinates.
func (c Camera) ToWorld(p geom.Point) geom.Point { return c.Transform().ToWorld(p) }

// ToScreen maps a world point to screen coordinates.
func (c Camera) ToScreen(p geom.Point) geom.Point { return c.Transform().ToScreen(p) }

// Viewport returns the visible world rectangle.
func (c Camera) Viewport(size geom.Size) geom.Rect { return c.Transform().Viewport(size) }

// Center returns the world point at the middle of the viewport.
func (c Camera) Center(size geom.Size) geom.Point {
	return c.ToWorld(geom.Point{X: size.W / 2, Y: size.H / 2})
}

// FromCenter returns the camera that shows world point center in the middle
// of a viewport of the given size.
func FromCenter(center geom.Point, scale float64, size geom.Size) Camera {
	return Camera{
		Scale:      scale,
		TranslateX: size.W/2 - center.X*scale,
		TranslateY: size.H/2 - center.Y*scale,
	}
}

// HitTester resolves a world point to a node. slop is in world units.
// *spatial.Index implements it.
type HitTester interface {
	HitTest(p geom.Point, slop float64) (*layout.Node, bool)
}

// Env is everything a transition reads besides state, event and camera.
type Env struct {
	Config   config.Config
	Viewport geom.Size
	// Bounds of the content. Invalid bounds behave like a point at the origin.
	Bounds geom.Bounds
	// Hit resolves double taps. Nil disables tap focusing.
	Hit HitTester
}

func (e Env) content() geom.Rect {
	if !e.Bounds.Valid {
		return geom.Rect{}
	}
	return e.Bounds.Rect()
}

// Limits returns the allowed translate range at scale. Content may be
// dragged BoundsPadding pixels past each edge; content smaller than the
// viewport is held centered.
func (e Env) Limits(scale float64) (lo, hi geom.Point) {
	b := e.content()
	pad := e.Config.Camera.BoundsPadding
	lo.X, hi.X = axisLimits(b.MinX, b.MaxX, scale, e.Viewport.W, pad)
	lo.Y, hi.Y = axisLimits(b.MinY, b.MaxY, scale, e.Viewport.H, pad)
	return lo, hi
}

func axisLimits(minW, maxW, scale, view, pad float64) (float64, float64) {
	if (maxW-minW)*scale+2*pad <= view {
		c := view/2 - (minW+maxW)/2*scale
		return c, c
	}
	return view - pad - maxW*scale, pad - minW*scale
}

// Clamp returns c with the scale limited to the zoom range and the
// translation limited to the content bounds.
func (e Env) Clamp(c Camera) Camera {
	c.Scale = e.Config.Zoom.ClampScale(c.Scale)
	lo, hi := e.Limits(c.Scale)
	c.TranslateX = geom.Clamp(c.TranslateX, lo.X, hi.X)
	c.TranslateY = geom.Clamp(c.TranslateY, lo.Y, hi.Y)
	return c
}

// Overshoot returns how far c's translation lies outside the limits, signed,
// per axis.
func (e Env) Overshoot(c Camera) geom.Point {
	lo, hi := e.Limits(c.Scale)
	return geom.Point{
		X: c.TranslateX - geom.Clamp(c.TranslateX, lo.X, hi.X),
		Y: c.TranslateY - geom.Clamp(c.TranslateY, lo.Y, hi.Y),
	}
}

// AtRest reports whether c needs no clamping.
func (e Env) AtRest(c Camera) bool {
	return e.Clamp(c) == c
}

// FocusOn returns the clamped camera centering world point p at the focus
// zoom.
func (e Env) FocusOn(p geom.Point) Camera {
	return e.Clamp(FromCenter(p, e.Config.Zoom.Focus, e.Viewport))
}

// Fit returns the clamped camera showing the whole content with
// BoundsPadding on each side.
func (e Env) Fit() Camera {
	b := e.content()
	pad := e.Config.Camera.BoundsPadding
	w := math.Max(e.Viewport.W-2*pad, 1)
	h := math.Max(e.Viewport.H-2*pad, 1)
	scale := e.Config.Zoom.Max
	if b.Width() > 0 {
		scale = math.Min(scale, w/b.Width())
	}
	if b.Height() > 0 {
		scale = math.Min(scale, h/b.Height())
	}
	return e.Clamp(FromCenter(b.Center(), scale, e.Viewport))
}

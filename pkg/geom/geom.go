// Package geom provides the small set of 2D primitives shared by the layout,
// culling and camera packages: points, axis-aligned rectangles, layout bounds
// and the uniform-scale view transform.
//
// World coordinates are the layout's coordinate space. Screen coordinates
// are pixels relative to the top-left of the host surface. A [Transform]
// maps world to screen as screen = world*Scale + Translate.
package geom

import "math"

// Point is a 2D position or vector.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul returns p scaled by s.
func (p Point) Mul(s float64) Point { return Point{p.X * s, p.Y * s} }

// Length returns the Euclidean length of p.
func (p Point) Length() float64 { return math.Hypot(p.X, p.Y) }

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 { return p.Sub(q).Length() }

// Lerp interpolates between p and q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Rect is an axis-aligned rectangle. Min is inclusive top-left, Max is the
// bottom-right corner. A Rect with Max < Min on either axis is empty.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// RectXYWH builds a rectangle from its top-left corner and size.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// RectCentered builds a rectangle of size w×h centered on c.
func RectCentered(c Point, w, h float64) Rect {
	return Rect{MinX: c.X - w/2, MinY: c.Y - h/2, MaxX: c.X + w/2, MaxY: c.Y + h/2}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the midpoint of r.
func (r Rect) Center() Point { return Point{(r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2} }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.MaxX < r.MinX || r.MaxY < r.MinY }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Intersects reports whether r and o overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX && r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// Overlaps reports whether r and o share a region of positive area.
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX < o.MaxX && o.MinX < r.MaxX && r.MinY < o.MaxY && o.MinY < r.MaxY
}

// Intersect returns the overlapping region, which may be empty.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		MinX: math.Max(r.MinX, o.MinX),
		MinY: math.Max(r.MinY, o.MinY),
		MaxX: math.Min(r.MaxX, o.MaxX),
		MaxY: math.Min(r.MaxY, o.MaxY),
	}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Expand grows r by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{MinX: r.MinX - m, MinY: r.MinY - m, MaxX: r.MaxX + m, MaxY: r.MaxY + m}
}

// Bounds is the world-space extent of a layout. It drives pan/zoom clamping
// and fit-to-view. The zero value is an empty layout.
type Bounds struct {
	MinX   float64 `json:"min_x"`
	MaxX   float64 `json:"max_x"`
	MinY   float64 `json:"min_y"`
	MaxY   float64 `json:"max_y"`
	Center Point   `json:"center"`
	Valid  bool    `json:"valid"`
}

// BoundsOf returns bounds covering all rects. With no rects the result is
// invalid and centered on the origin.
func BoundsOf(rects []Rect) Bounds {
	if len(rects) == 0 {
		return Bounds{}
	}
	u := rects[0]
	for _, r := range rects[1:] {
		u = u.Union(r)
	}
	return BoundsFromRect(u)
}

// BoundsFromRect converts a rectangle to Bounds.
func BoundsFromRect(r Rect) Bounds {
	return Bounds{
		MinX:   r.MinX,
		MaxX:   r.MaxX,
		MinY:   r.MinY,
		MaxY:   r.MaxY,
		Center: r.Center(),
		Valid:  true,
	}
}

// Rect returns the bounds as a rectangle.
func (b Bounds) Rect() Rect { return Rect{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY} }

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Size is a width/height pair, used for viewports.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Transform is a uniform-scale view transform: screen = world*Scale + T.
type Transform struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Scale      float64 `json:"scale"`
}

// Identity is the transform with scale 1 and no translation.
var Identity = Transform{Scale: 1}

// ToScreen maps a world point to screen coordinates.
func (t Transform) ToScreen(p Point) Point {
	return Point{p.X*t.Scale + t.TranslateX, p.Y*t.Scale + t.TranslateY}
}

// ToWorld maps a screen point to world coordinates. Scale must be positive.
func (t Transform) ToWorld(p Point) Point {
	return Point{(p.X - t.TranslateX) / t.Scale, (p.Y - t.TranslateY) / t.Scale}
}

// RectToScreen maps a world rectangle to screen coordinates.
func (t Transform) RectToScreen(r Rect) Rect {
	a := t.ToScreen(Point{r.MinX, r.MinY})
	b := t.ToScreen(Point{r.MaxX, r.MaxY})
	return Rect{MinX: a.X, MinY: a.Y, MaxX: b.X, MaxY: b.Y}
}

// Viewport returns the world rectangle visible through a surface of size s.
func (t Transform) Viewport(s Size) Rect {
	a := t.ToWorld(Point{0, 0})
	b := t.ToWorld(Point{s.W, s.H})
	return Rect{MinX: a.X, MinY: a.Y, MaxX: b.X, MaxY: b.Y}
}

// Clamp limits v to [lo, hi]. If lo > hi the midpoint is returned.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

// NearlyEqual compares floats with an absolute tolerance.
func NearlyEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

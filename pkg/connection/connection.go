// Package connection computes the curves drawn between parents and children.
//
// Every curve is a cubic Bézier in screen space whose control points pull
// along the layout axis, giving the familiar S shape of a family tree. The
// geometry is a pure function of the endpoints, so curves can be cached by
// edge and recomputed freely. When a parent has several children the
// parent-side control points are spread apart so the curves separate right
// below the parent card instead of leaving it as one thick line.
package connection

import (
	"github.com/gogpu/gg"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/layout"
)

// Curve is a cubic Bézier from P0 to P3 with control points C1 and C2.
type Curve struct {
	P0 geom.Point `json:"p0"`
	C1 geom.Point `json:"c1"`
	C2 geom.Point `json:"c2"`
	P3 geom.Point `json:"p3"`
}

func toGG(p geom.Point) gg.Point   { return gg.Pt(p.X, p.Y) }
func fromGG(p gg.Point) geom.Point { return geom.Pt(p.X, p.Y) }

func (c Curve) bez() gg.CubicBez {
	return gg.NewCubicBez(toGG(c.P0), toGG(c.C1), toGG(c.C2), toGG(c.P3))
}

// Eval returns the point at parameter t in [0, 1].
func (c Curve) Eval(t float64) geom.Point { return fromGG(c.bez().Eval(t)) }

// Bounds returns the tight bounding box of the curve.
func (c Curve) Bounds() geom.Rect {
	b := c.bez().BoundingBox()
	return geom.Rect{MinX: b.Min.X, MinY: b.Min.Y, MaxX: b.Max.X, MaxY: b.Max.Y}
}

// Path is the curve for one spanning-tree edge.
type Path struct {
	Edge  layout.Edge `json:"edge"`
	Curve Curve       `json:"curve"`
}

// PathFor returns the vertical S-curve between two screen points using the
// default tension.
func PathFor(parent, child geom.Point) Curve {
	return sCurve(parent, child, config.Vertical, 0.5, 0)
}

// sCurve builds the curve. Control points sit tension of the way along the
// axis from each end; fan shifts the parent-side control point across it.
func sCurve(parent, child geom.Point, orient config.Orientation, tension, fan float64) Curve {
	if orient == config.Horizontal {
		d := (child.X - parent.X) * tension
		return Curve{
			P0: parent,
			C1: geom.Pt(parent.X+d, parent.Y+fan),
			C2: geom.Pt(child.X-d, child.Y),
			P3: child,
		}
	}
	d := (child.Y - parent.Y) * tension
	return Curve{
		P0: parent,
		C1: geom.Pt(parent.X+fan, parent.Y+d),
		C2: geom.Pt(child.X, child.Y-d),
		P3: child,
	}
}

// Calculator builds curves for one configuration and orientation.
type Calculator struct {
	orient  config.Orientation
	tension float64
	spread  float64
}

// NewCalculator returns a calculator for cfg.
func NewCalculator(cfg config.Config) *Calculator {
	return &Calculator{
		orient:  cfg.Layout.Orientation,
		tension: cfg.Connection.Tension,
		spread:  cfg.Connection.FanSpread,
	}
}

// PathFor returns the S-curve between a parent and a child screen point.
func (c *Calculator) PathFor(parent, child geom.Point) Curve {
	return sCurve(parent, child, c.orient, c.tension, 0)
}

// FanPath is PathFor for child number index of count siblings, drawn at
// camera scale. Siblings are fanned symmetrically around the parent.
func (c *Calculator) FanPath(parent, child geom.Point, index, count int, scale float64) Curve {
	return sCurve(parent, child, c.orient, c.tension, c.fanOffset(index, count, scale))
}

func (c *Calculator) fanOffset(index, count int, scale float64) float64 {
	if count < 2 || index < 0 || index >= count {
		return 0
	}
	return (float64(index) - float64(count-1)/2) * c.spread * scale
}

// Anchors returns the screen points where an edge leaves the parent card and
// enters the child card.
func (c *Calculator) Anchors(parent, child *layout.Node, t geom.Transform) (geom.Point, geom.Point) {
	pr, cr := parent.Rect(), child.Rect()
	if c.orient == config.Horizontal {
		return t.ToScreen(geom.Pt(pr.MaxX, pr.Center().Y)), t.ToScreen(geom.Pt(cr.MinX, cr.Center().Y))
	}
	return t.ToScreen(geom.Pt(pr.Center().X, pr.MaxY)), t.ToScreen(geom.Pt(cr.Center().X, cr.MinY))
}

// Paths computes curves for edges of res under transform t. Edges whose
// endpoints are not in res are skipped.
func (c *Calculator) Paths(res *layout.Result, edges []layout.Edge, t geom.Transform) []Path {
	out := make([]Path, 0, len(edges))
	// Child positions are resolved once per parent.
	slots := make(map[string]map[string]int)
	for _, e := range edges {
		p, ok := res.Node(e.Parent)
		if !ok {
			continue
		}
		ch, ok := res.Node(e.Child)
		if !ok {
			continue
		}
		pos, ok := slots[e.Parent]
		if !ok {
			pos = make(map[string]int, len(p.Children))
			for i, k := range p.Children {
				pos[k.ID] = i
			}
			slots[e.Parent] = pos
		}
		idx, ok := pos[e.Child]
		if !ok {
			idx = -1
		}
		from, to := c.Anchors(p, ch, t)
		out = append(out, Path{Edge: e, Curve: c.FanPath(from, to, idx, len(p.Children), t.Scale)})
	}
	return out
}

package connection

import (
	"context"
	"math"
	"slices"
	"strconv"
	"testing"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/profile"
)

func near(a, b geom.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestPathFor(t *testing.T) {
	tests := []struct {
		name          string
		parent, child geom.Point
	}{
		{"straight down", geom.Pt(100, 100), geom.Pt(100, 300)},
		{"down right", geom.Pt(0, 0), geom.Pt(250, 200)},
		{"down left", geom.Pt(500, 40), geom.Pt(120, 400)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := PathFor(tt.parent, tt.child)
			if !near(c.Eval(0), tt.parent) || !near(c.Eval(1), tt.child) {
				t.Fatalf("endpoints = %v, %v", c.Eval(0), c.Eval(1))
			}
			// The curve leaves and enters along the vertical axis.
			if c.C1.X != tt.parent.X || c.C2.X != tt.child.X {
				t.Errorf("control points not axis aligned: %+v", c)
			}
			mid := c.Eval(0.5)
			want := tt.parent.Lerp(tt.child, 0.5)
			if !near(mid, want) {
				t.Errorf("S-curve midpoint = %v, want %v", mid, want)
			}
			if again := PathFor(tt.parent, tt.child); again != c {
				t.Error("PathFor is not deterministic")
			}
		})
	}
}

func TestHorizontalPath(t *testing.T) {
	cfg := config.MustDefault()
	cfg.Layout.Orientation = config.Horizontal
	c := NewCalculator(cfg).PathFor(geom.Pt(0, 0), geom.Pt(200, 100))
	if c.C1.Y != 0 || c.C2.Y != 100 {
		t.Errorf("horizontal control points = %+v", c)
	}
	if c.C1.X != 100 || c.C2.X != 100 {
		t.Errorf("tension not applied along x: %+v", c)
	}
}

func TestFanPathSpreadsSiblings(t *testing.T) {
	calc := NewCalculator(config.MustDefault())
	parent := geom.Pt(500, 100)
	child := geom.Pt(500, 400)

	var prev float64
	for i := 0; i < 5; i++ {
		c := calc.FanPath(parent, child, i, 5, 1)
		if i > 0 && c.C1.X <= prev {
			t.Errorf("child %d control x %v not right of %v", i, c.C1.X, prev)
		}
		prev = c.C1.X
		if c.P0 != parent || c.P3 != child {
			t.Errorf("fan moved an endpoint: %+v", c)
		}
	}
	if mid := calc.FanPath(parent, child, 2, 5, 1); mid.C1.X != parent.X {
		t.Errorf("middle child is fanned: %v", mid.C1.X)
	}
	if only := calc.FanPath(parent, child, 0, 1, 1); only != calc.PathFor(parent, child) {
		t.Error("single child should not fan")
	}
	wide := calc.FanPath(parent, child, 0, 3, 2)
	narrow := calc.FanPath(parent, child, 0, 3, 1)
	if parent.X-wide.C1.X != 2*(parent.X-narrow.C1.X) {
		t.Error("fan spread does not follow scale")
	}
}

func TestCurveBounds(t *testing.T) {
	c := PathFor(geom.Pt(0, 0), geom.Pt(200, 300))
	b := c.Bounds()
	want := geom.Rect{MaxX: 200, MaxY: 300}
	if !near(geom.Pt(b.MinX, b.MinY), geom.Pt(want.MinX, want.MinY)) || !near(geom.Pt(b.MaxX, b.MaxY), geom.Pt(want.MaxX, want.MaxY)) {
		t.Errorf("Bounds = %+v", b)
	}
	for i := 0; i <= 20; i++ {
		if p := c.Eval(float64(i) / 20); !b.Expand(1e-9).Contains(p) {
			t.Errorf("point %v outside bounds %+v", p, b)
		}
	}
}

func TestPaths(t *testing.T) {
	cfg := config.MustDefault()
	res, err := layout.Compute(context.Background(), []profile.Profile{
		{ID: "root", Generation: 1},
		{ID: "a", FatherID: "root", Generation: 2},
		{ID: "b", FatherID: "root", Generation: 2},
		{ID: "c", FatherID: "root", Generation: 2},
	}, cfg, layout.Options{})
	if err != nil {
		t.Fatal(err)
	}
	calc := NewCalculator(cfg)
	tr := geom.Transform{Scale: 0.5, TranslateX: 10, TranslateY: 20}
	edges := append(slices.Clone(res.Edges), layout.Edge{Parent: "root", Child: "ghost"})

	paths := calc.Paths(res, edges, tr)
	if len(paths) != 3 {
		t.Fatalf("got %d paths, want 3", len(paths))
	}
	root, _ := res.Node("root")
	for _, p := range paths {
		child, _ := res.Node(p.Edge.Child)
		wantFrom := tr.ToScreen(geom.Pt(root.X, root.Rect().MaxY))
		wantTo := tr.ToScreen(geom.Pt(child.X, child.Rect().MinY))
		if !near(p.Curve.P0, wantFrom) || !near(p.Curve.P3, wantTo) {
			t.Errorf("%s anchors = %v -> %v", p.Edge, p.Curve.P0, p.Curve.P3)
		}
	}
	if !(paths[0].Curve.C1.X < paths[1].Curve.C1.X && paths[1].Curve.C1.X < paths[2].Curve.C1.X) {
		t.Error("siblings are not fanned left to right")
	}
}

func BenchmarkPaths(b *testing.B) {
	cfg := config.MustDefault()
	profiles := []profile.Profile{{ID: "root", Generation: 1}}
	for i := 0; i < 500; i++ {
		profiles = append(profiles, profile.Profile{ID: "p" + strconv.Itoa(i), FatherID: "root", Generation: 2})
	}
	res, err := layout.Compute(context.Background(), profiles, cfg, layout.Options{})
	if err != nil {
		b.Fatal(err)
	}
	calc := NewCalculator(cfg)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		calc.Paths(res, res.Edges, geom.Identity)
	}
}

// Package snapshot paints a scene's visible set to a PNG image.
//
// The output is a debugging view of exactly what a host would draw for one
// frame: cards for nodes, discs for clusters, curves for connections and
// highlight overlays. Text is not drawn.
package snapshot

import (
	"io"
	"math"
	"os"

	"github.com/gogpu/gg"

	"github.com/matzehuels/lineage/pkg/connection"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/highlight"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/scene"
)

// Theme holds the painter colors as hex strings.
type Theme struct {
	Background string
	Card       string
	Deceased   string
	Spouse     string
	Border     string
	Connection string
	Cluster    string
	Highlight  string
}

// DefaultTheme is a light palette.
var DefaultTheme = Theme{
	Background: "#f7f5f0",
	Card:       "#ffffff",
	Deceased:   "#d9d6cf",
	Spouse:     "#eef3fb",
	Border:     "#5b5b5b",
	Connection: "#8a8a8a",
	Cluster:    "#4c78a8",
	Highlight:  "#e4572e",
}

// Options configures a snapshot.
type Options struct {
	Width, Height int
	Theme         Theme
}

func (o Options) theme() Theme {
	if o.Theme == (Theme{}) {
		return DefaultTheme
	}
	return o.Theme
}

// Paint draws vs onto a new context. The caller closes it.
func Paint(vs scene.VisibleSet, opts Options) (*gg.Context, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "snapshot size %dx%d must be positive", opts.Width, opts.Height)
	}
	p := &painter{
		dc:    gg.NewContext(opts.Width, opts.Height),
		theme: opts.theme(),
		t:     vs.Camera.Transform(),
	}
	if err := p.paint(vs); err != nil {
		p.dc.Close()
		return nil, err
	}
	return p.dc, nil
}

// Encode paints vs and writes it to w as PNG.
func Encode(w io.Writer, vs scene.VisibleSet, opts Options) error {
	dc, err := Paint(vs, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

// WriteFile paints vs to a PNG file at path.
func WriteFile(path string, vs scene.VisibleSet, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, vs, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type painter struct {
	dc    *gg.Context
	theme Theme
	t     geom.Transform
}

func (p *painter) paint(vs scene.VisibleSet) error {
	p.dc.ClearWithColor(gg.Hex(p.theme.Background))

	edgeStyles := make(map[layout.Edge]highlight.Style)
	nodeStyles := make(map[string]highlight.Style)
	for _, h := range vs.Highlights {
		if h.IsEdge() {
			edgeStyles[h.Edge()] = h.Style
		} else {
			nodeStyles[h.NodeID] = h.Style
		}
	}

	lineWidth := math.Max(1, 2*p.t.Scale)
	for _, path := range vs.Connections {
		if _, ok := edgeStyles[path.Edge]; ok {
			continue
		}
		if err := p.curve(path.Curve, p.theme.Connection, 1, lineWidth); err != nil {
			return err
		}
	}
	for _, paths := range [][]connection.Path{vs.Connections, vs.Secondary} {
		for _, path := range paths {
			style, ok := edgeStyles[path.Edge]
			if !ok {
				continue
			}
			if err := p.curve(path.Curve, p.color(style.Color), style.Opacity, p.width(style, lineWidth)); err != nil {
				return err
			}
		}
	}

	for _, c := range vs.Clusters {
		if err := p.cluster(c); err != nil {
			return err
		}
	}
	for _, n := range vs.Nodes {
		style, marked := nodeStyles[n.ID]
		if err := p.card(n, style, marked); err != nil {
			return err
		}
	}
	return nil
}

func (p *painter) color(c string) string {
	if _, err := gg.ParseHex(c); err != nil {
		return p.theme.Highlight
	}
	return c
}

func (p *painter) width(s highlight.Style, base float64) float64 {
	if s.Width > 0 {
		return s.Width * p.t.Scale
	}
	return base * 2
}

func (p *painter) setColor(hex string, opacity float64) {
	c := gg.Hex(hex)
	if opacity > 0 && opacity < 1 {
		c.A *= opacity
	}
	p.dc.SetRGBA(c.R, c.G, c.B, c.A)
}

func (p *painter) curve(c connection.Curve, hex string, opacity, width float64) error {
	p0, c1 := p.t.ToScreen(c.P0), p.t.ToScreen(c.C1)
	c2, p3 := p.t.ToScreen(c.C2), p.t.ToScreen(c.P3)
	p.setColor(hex, opacity)
	p.dc.SetLineWidth(width)
	p.dc.MoveTo(p0.X, p0.Y)
	p.dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, p3.X, p3.Y)
	return p.dc.Stroke()
}

func (p *painter) card(n scene.NodeView, style highlight.Style, marked bool) error {
	r := n.Screen
	radius := math.Min(r.Width(), r.Height()) * 0.12

	fill := p.theme.Card
	switch {
	case n.Deceased:
		fill = p.theme.Deceased
	case n.Spouse:
		fill = p.theme.Spouse
	}
	p.setColor(fill, 1)
	p.dc.DrawRoundedRectangle(r.MinX, r.MinY, r.Width(), r.Height(), radius)
	if err := p.dc.Fill(); err != nil {
		return err
	}

	border, width := p.theme.Border, math.Max(1, p.t.Scale)
	if marked {
		border, width = p.color(style.Color), p.width(style, width*2)
	}
	p.setColor(border, 1)
	p.dc.SetLineWidth(width)
	p.dc.DrawRoundedRectangle(r.MinX, r.MinY, r.Width(), r.Height(), radius)
	return p.dc.Stroke()
}

func (p *painter) cluster(c scene.ClusterView) error {
	// Disc area grows with the member count.
	radius := math.Min(c.Screen.Width(), c.Screen.Height()) / 2
	radius = math.Max(2, math.Min(radius, 3+math.Sqrt(float64(c.Count))))
	p.setColor(p.theme.Cluster, 0.8)
	p.dc.DrawCircle(c.Center.X, c.Center.Y, radius)
	return p.dc.Fill()
}

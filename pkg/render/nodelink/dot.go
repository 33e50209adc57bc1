package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes generation and depth in node labels.
	// When false, only the display label is shown.
	Detailed bool

	// Secondary draws links outside the spanning tree as dashed edges.
	Secondary bool

	// Highlight lists node IDs drawn with a colored outline.
	Highlight []string

	// HighlightEdges lists links drawn in the highlight color. A marked
	// link outside the spanning tree is drawn even without Secondary.
	HighlightEdges []layout.Edge
}

// ToDOT converts a layout to Graphviz DOT format. Nodes are emitted in
// pre-order and spouses share a rank with their partner. The resulting DOT
// string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(res *layout.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(res.Orientation))
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	marked := make(map[string]bool, len(opts.Highlight))
	for _, id := range opts.Highlight {
		marked[id] = true
	}
	for _, n := range res.Nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed), marked[n.ID])
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	markedEdges := make(map[layout.Edge]bool, len(opts.HighlightEdges))
	for _, e := range opts.HighlightEdges {
		markedEdges[e] = true
	}

	buf.WriteString("\n")
	for _, e := range res.Edges {
		if markedEdges[e] {
			fmt.Fprintf(&buf, "  %q -> %q [color=red, penwidth=3];\n", e.Parent, e.Child)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Parent, e.Child)
	}
	for _, n := range res.Nodes {
		if n.IsSpouse() {
			fmt.Fprintf(&buf, "  { rank=same; %q; %q; }\n", n.PartnerID, n.ID)
			fmt.Fprintf(&buf, "  %q -> %q [dir=none, style=dotted];\n", n.PartnerID, n.ID)
		}
	}
	for _, e := range res.Secondary {
		switch {
		case markedEdges[e]:
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=red, penwidth=3, constraint=false];\n", e.Parent, e.Child)
		case opts.Secondary:
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=grey, constraint=false];\n", e.Parent, e.Child)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func rankdir(o config.Orientation) string {
	if o == config.Horizontal {
		return "LR"
	}
	return "TB"
}

func fmtLabel(n *layout.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}
	return fmt.Sprintf("%s\ngeneration: %d\ndepth: %d", n.Label, n.Generation, n.Depth)
}

func fmtAttrs(n *layout.Node, label string, marked bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.Deceased:
		attrs = append(attrs, "fillcolor=lightgrey")
	case n.IsSpouse():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	if marked {
		attrs = append(attrs, "color=red", "penwidth=3")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing starts at the
// origin and carries explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}

// Package nodelink exports layouts as Graphviz node-link diagrams.
//
// # Overview
//
// The diagram shows the spanning tree the layout engine chose: one arrow per
// parent link kept in the tree, married-in spouses ranked beside their
// partner, and optionally the dropped parent links as dashed edges. It is a
// debugging aid for checking which parent a multi-parent profile hangs from.
//
// # Usage
//
//	dot := nodelink.ToDOT(res, nodelink.Options{Secondary: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink

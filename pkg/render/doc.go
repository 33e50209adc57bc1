// Package render turns layouts into static artifacts for debugging and
// export.
//
// # Overview
//
// Interactive rendering belongs to the host app. This package covers the
// offline paths used by the CLI and the HTTP server:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Graphviz export of the spanning tree (in [nodelink] subpackage)
//   - Raster snapshots of a visible set (in [snapshot] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(res, nodelink.Options{}))
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/lineage/pkg/render/nodelink
// [snapshot]: github.com/matzehuels/lineage/pkg/render/snapshot
package render

// Package pkg provides the core libraries for Lineage, the geometry engine
// behind a zoomable family-tree canvas.
//
// # Overview
//
// Lineage turns a flat list of genealogy profiles into a positioned tree and
// answers, at interactive rates, what a canvas should draw for any camera.
// The pkg directory is organized into four areas:
//
//  1. Model: [profile] records, [config] and [errors]
//  2. Geometry: [geom], [layout], [spatial], [lod] and [connection]
//  3. Interaction: [camera] physics and gestures, [highlight] overlays and
//     the [scene] that ties them into one view
//  4. Infrastructure: [cache], [metrics], [observability] and the [render]
//     exporters
//
// # Architecture
//
// The typical data flow through Lineage:
//
//	Profile store (file, MongoDB)
//	         ↓
//	    [profile] package (sanitize, index parent links)
//	         ↓
//	    [layout] package (tidy tree, spouses, cross links)
//	         ↓
//	    [spatial] package (grid index for culling and hit tests)
//	         ↓
//	    [scene] package (camera + level of detail → visible set)
//	         ↓
//	    Painter, PNG snapshot or Graphviz export
//
// Layouts are deterministic functions of the profiles and the layout
// settings, so [cache] stores them by content hash in a file or Redis
// backend.
//
// # Quick Start
//
//	profiles, _ := profile.ReadFile("family.json")
//	cfg := config.MustDefault()
//	res, _ := layout.Compute(ctx, profiles, cfg, layout.Options{})
//
//	s := scene.New(res, cfg, geom.Size{W: 1280, H: 800}, scene.Options{})
//	defer s.Close()
//	_ = s.Controller().FitToView()
//	frame := s.Frame()
//	_ = snapshot.WriteFile("tree.png", frame, snapshot.Options{Width: 1280, Height: 800})
//
// [profile]: github.com/matzehuels/lineage/pkg/profile
// [config]: github.com/matzehuels/lineage/pkg/config
// [errors]: github.com/matzehuels/lineage/pkg/errors
// [geom]: github.com/matzehuels/lineage/pkg/geom
// [layout]: github.com/matzehuels/lineage/pkg/layout
// [spatial]: github.com/matzehuels/lineage/pkg/spatial
// [lod]: github.com/matzehuels/lineage/pkg/lod
// [connection]: github.com/matzehuels/lineage/pkg/connection
// [camera]: github.com/matzehuels/lineage/pkg/camera
// [highlight]: github.com/matzehuels/lineage/pkg/highlight
// [scene]: github.com/matzehuels/lineage/pkg/scene
// [cache]: github.com/matzehuels/lineage/pkg/cache
// [metrics]: github.com/matzehuels/lineage/pkg/metrics
// [observability]: github.com/matzehuels/lineage/pkg/observability
// [render]: github.com/matzehuels/lineage/pkg/render
package pkg

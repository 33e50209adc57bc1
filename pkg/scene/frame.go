package scene

import (
	"time"

	"github.com/matzehuels/lineage/pkg/camera"
	"github.com/matzehuels/lineage/pkg/connection"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/highlight"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/lod"
	"github.com/matzehuels/lineage/pkg/observability"
)

// NodeView is a visible node in screen space.
type NodeView struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Screen   geom.Rect `json:"screen"`
	Deceased bool      `json:"deceased,omitempty"`
	PhotoRef string    `json:"photo_ref,omitempty"`
	Spouse   bool      `json:"spouse,omitempty"`

	Node *layout.Node `json:"-"`
}

// ClusterView is an aggregated group of nodes in screen space.
type ClusterView struct {
	Screen           geom.Rect  `json:"screen"`
	Center           geom.Point `json:"center"`
	Count            int        `json:"count"`
	RepresentativeID string     `json:"representative_id"`
}

// VisibleSet is everything a painter needs for one frame. It is a
// transient value; nothing in it is retained by the scene.
type VisibleSet struct {
	Camera camera.Camera `json:"camera"`
	Phase  string        `json:"phase"`
	Tier   lod.Tier      `json:"tier"`
	// Bucket is the photo resolution to request, set only at full detail.
	Bucket int `json:"bucket,omitempty"`

	// Nodes in layout pre-order. Empty when clustered.
	Nodes    []NodeView    `json:"nodes,omitempty"`
	Clusters []ClusterView `json:"clusters,omitempty"`
	// Connections are spanning-tree curves touching visible nodes.
	Connections []connection.Path `json:"connections,omitempty"`
	// Secondary are highlighted links outside the spanning tree.
	Secondary  []connection.Path `json:"secondary,omitempty"`
	Highlights []highlight.Entry `json:"highlights,omitempty"`

	// Truncated is set when the cap dropped nodes, curves or highlights.
	Truncated bool `json:"truncated,omitempty"`
	// Degraded is set when the layout exceeded its capacity.
	Degraded bool `json:"degraded,omitempty"`
}

// Len returns the number of drawn items, nodes plus clusters.
func (v VisibleSet) Len() int { return len(v.Nodes) + len(v.Clusters) }

// Frame applies any pending rebuild and computes the visible set for the
// current camera.
func (s *Scene) Frame() VisibleSet {
	start := time.Now()
	s.ApplyPending()
	snap := s.ctrl.Snapshot()

	s.mu.Lock()
	vs := s.visible(snap.Camera, snap.Viewport)
	s.mu.Unlock()
	vs.Phase = snap.Phase

	observability.Frame().OnFrame(vs.Tier.String(), len(vs.Nodes), len(vs.Clusters), time.Since(start), vs.Truncated)
	return vs
}

// visible runs the query pipeline with s.mu held.
func (s *Scene) visible(cam camera.Camera, size geom.Size) VisibleSet {
	c := s.cur
	t := cam.Transform()
	view := cam.Viewport(size)
	limit := s.cfg.Spatial.MaxVisible
	tier := s.tiers.Tier(cam.Scale)

	vs := VisibleSet{Camera: cam, Tier: tier, Degraded: c.res.Degraded}
	if tier.Clustered() {
		for _, cl := range c.index.Clusters(view, limit) {
			vs.Clusters = append(vs.Clusters, ClusterView{
				Screen:           t.RectToScreen(cl.Bounds),
				Center:           t.ToScreen(cl.Center),
				Count:            cl.Count,
				RepresentativeID: cl.Representative.ID,
			})
		}
		return vs
	}

	q := c.index.QueryLimited(view, limit)
	vs.Truncated = q.Truncated
	if tier.ShowsPhotos() {
		vs.Bucket = s.buckets.Bucket(cam.Scale)
	}

	ids := make([]string, len(q.Nodes))
	vs.Nodes = make([]NodeView, len(q.Nodes))
	for i, n := range q.Nodes {
		ids[i] = n.ID
		vs.Nodes[i] = NodeView{
			ID:       n.ID,
			Label:    n.Label,
			Screen:   t.RectToScreen(n.Rect()),
			Deceased: n.Deceased,
			PhotoRef: n.PhotoRef,
			Spouse:   n.IsSpouse(),
			Node:     n,
		}
	}
	tree := q.Edges
	if limit >= 0 && len(tree) > limit {
		tree = tree[:limit]
		vs.Truncated = true
	}
	vs.Connections = s.paths.Paths(c.res, tree, t)

	secondary := secondaryEdges(c.res, q.Nodes)
	if limit >= 0 && len(secondary) > limit {
		secondary = secondary[:limit]
		vs.Truncated = true
	}
	edges := make([]layout.Edge, 0, len(tree)+len(secondary))
	edges = append(append(edges, tree...), secondary...)
	vs.Highlights = s.highlights.EntriesFor(ids, edges)
	if limit >= 0 && len(vs.Highlights) > limit {
		vs.Highlights = vs.Highlights[:limit]
		vs.Truncated = true
	}

	if len(secondary) > 0 && len(vs.Highlights) > 0 {
		lit := make(map[layout.Edge]bool)
		for _, e := range vs.Highlights {
			if e.IsEdge() {
				lit[e.Edge()] = true
			}
		}
		var drawn []layout.Edge
		for _, e := range secondary {
			if lit[e] {
				drawn = append(drawn, e)
			}
		}
		vs.Secondary = s.paths.Paths(c.res, drawn, t)
	}
	return vs
}

// secondaryEdges returns the non-spanning links touching nodes, once each.
func secondaryEdges(res *layout.Result, nodes []*layout.Node) []layout.Edge {
	var out []layout.Edge
	var seen map[layout.Edge]bool
	for _, n := range nodes {
		for _, e := range res.SecondaryEdges(n.ID) {
			if seen == nil {
				seen = make(map[layout.Edge]bool)
			}
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

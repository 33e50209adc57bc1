// Package spatial indexes laid-out nodes in a uniform grid for viewport
// culling and hit testing.
//
// The grid is sparse: only occupied cells are stored. Every node is inserted
// into each cell its card overlaps, so a range query visits the cells under
// the query rectangle and reports each node from exactly one of them, the
// cell containing the top-left corner of the node's intersection with the
// query. That rule deduplicates multi-cell nodes without a visited set.
//
// An Index is read-only after [Build] and safe for concurrent queries.
package spatial

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/layout"
)

type cellKey struct{ x, y int32 }

// Index is a uniform-grid index over one layout.
type Index struct {
	cellSize float64
	margin   float64
	cells    map[cellKey][]int32
	nodes    []*layout.Node
	rects    []geom.Rect
	parent   []int32   // node index of the layout parent, -1 for none
	kids     [][]int32 // node indices of layout children by breadth
	breadth  []float64 // card center along the sibling axis
	bounds   geom.Bounds
}

// Result is the outcome of a viewport query.
type Result struct {
	// Nodes intersecting the query, in layout pre-order.
	Nodes []*layout.Node
	// Edges are spanning-tree links with at least one endpoint in Nodes.
	// Links from a visible parent to hidden children are collapsed to the
	// nearest hidden child on each side of the parent, so the count is at
	// most three per visible node.
	Edges []layout.Edge
	// Truncated is set when a limit dropped nodes.
	Truncated bool
}

// Build indexes every node of res.
func Build(res *layout.Result, cfg config.Spatial) *Index {
	ix := &Index{
		cellSize: cfg.CellSize,
		margin:   cfg.QueryMargin,
		cells:    make(map[cellKey][]int32),
		nodes:    res.Nodes,
		rects:    make([]geom.Rect, len(res.Nodes)),
		parent:   make([]int32, len(res.Nodes)),
		kids:     make([][]int32, len(res.Nodes)),
		breadth:  make([]float64, len(res.Nodes)),
		bounds:   res.Bounds,
	}
	for i, n := range res.Nodes {
		r := n.Rect()
		ix.rects[i] = r
		ix.breadth[i] = n.X
		if res.Orientation == config.Horizontal {
			ix.breadth[i] = n.Y
		}
		ix.parent[i] = -1
		if p, ok := res.Node(n.ParentID); ok && n.ParentID != "" {
			ix.parent[i] = int32(p.Index)
		}
		x0, y0 := ix.cellOf(r.MinX, r.MinY)
		x1, y1 := ix.cellOf(r.MaxX, r.MaxY)
		for cy := y0; cy <= y1; cy++ {
			for cx := x0; cx <= x1; cx++ {
				k := cellKey{cx, cy}
				ix.cells[k] = append(ix.cells[k], int32(i))
			}
		}
	}
	for i, n := range res.Nodes {
		if len(n.Children) == 0 {
			continue
		}
		kids := make([]int32, len(n.Children))
		for j, c := range n.Children {
			kids[j] = int32(c.Index)
		}
		slices.SortStableFunc(kids, func(a, b int32) int { return cmp.Compare(ix.breadth[a], ix.breadth[b]) })
		ix.kids[i] = kids
	}
	return ix
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int { return len(ix.nodes) }

// Cells returns the number of occupied cells.
func (ix *Index) Cells() int { return len(ix.cells) }

// Bounds returns the layout bounds the index was built from.
func (ix *Index) Bounds() geom.Bounds { return ix.bounds }

func (ix *Index) cellOf(x, y float64) (int32, int32) {
	return cellCoord(x, ix.cellSize), cellCoord(y, ix.cellSize)
}

func cellCoord(v, size float64) int32 {
	c := math.Floor(v / size)
	return int32(max(min(c, math.MaxInt32), math.MinInt32))
}

// Query returns the nodes intersecting view expanded by the configured
// margin, plus their incident parent edges.
func (ix *Index) Query(view geom.Rect) Result {
	idx := ix.collect(view.Expand(ix.margin))
	return ix.result(idx, false)
}

// QueryLimited is [Index.Query] capped at limit nodes. When more nodes
// intersect, the ones nearest the view center are kept and Truncated is set.
func (ix *Index) QueryLimited(view geom.Rect, limit int) Result {
	idx := ix.collect(view.Expand(ix.margin))
	if limit < 0 || len(idx) <= limit {
		return ix.result(idx, false)
	}
	c := view.Center()
	slices.SortStableFunc(idx, func(a, b int32) int {
		return cmp.Compare(ix.rects[a].Center().Distance(c), ix.rects[b].Center().Distance(c))
	})
	idx = idx[:limit]
	slices.Sort(idx)
	return ix.result(idx, true)
}

// Count returns how many nodes intersect q, without margin.
func (ix *Index) Count(q geom.Rect) int { return len(ix.collect(q)) }

// collect returns the sorted indices of nodes intersecting q.
func (ix *Index) collect(q geom.Rect) []int32 {
	if q.Empty() || len(ix.cells) == 0 {
		return nil
	}
	x0, y0 := ix.cellOf(q.MinX, q.MinY)
	x1, y1 := ix.cellOf(q.MaxX, q.MaxY)

	var out []int32
	visit := func(k cellKey, members []int32) {
		for _, i := range members {
			r := ix.rects[i]
			if !r.Intersects(q) {
				continue
			}
			in := r.Intersect(q)
			if cx, cy := ix.cellOf(in.MinX, in.MinY); cx == k.x && cy == k.y {
				out = append(out, i)
			}
		}
	}

	span := (int64(x1) - int64(x0) + 1) * (int64(y1) - int64(y0) + 1)
	if span <= int64(len(ix.cells)) {
		for cy := y0; cy <= y1; cy++ {
			for cx := x0; cx <= x1; cx++ {
				k := cellKey{cx, cy}
				if members, ok := ix.cells[k]; ok {
					visit(k, members)
				}
			}
		}
	} else {
		for k, members := range ix.cells {
			if k.x >= x0 && k.x <= x1 && k.y >= y0 && k.y <= y1 {
				visit(k, members)
			}
		}
	}
	slices.Sort(out)
	return out
}

func (ix *Index) result(idx []int32, truncated bool) Result {
	res := Result{Nodes: make([]*layout.Node, len(idx)), Truncated: truncated}
	for j, i := range idx {
		res.Nodes[j] = ix.nodes[i]
	}
	res.Edges = ix.edges(idx)
	return res
}

// edges returns spanning links touching the sorted visible set: each visible
// node's link to its parent, plus, per visible parent, the link to the
// nearest hidden child on either side along the sibling axis. Children
// between those two are visible, so the walk costs O(visible) per query.
func (ix *Index) edges(idx []int32) []layout.Edge {
	if len(idx) == 0 {
		return nil
	}
	visible := func(i int32) bool {
		_, ok := slices.BinarySearch(idx, i)
		return ok
	}
	var out []layout.Edge
	for _, i := range idx {
		n := ix.nodes[i]
		if p := ix.parent[i]; p >= 0 {
			out = append(out, layout.Edge{Parent: ix.nodes[p].ID, Child: n.ID})
		}
		kids := ix.kids[i]
		if len(kids) == 0 {
			continue
		}
		mid, _ := slices.BinarySearchFunc(kids, ix.breadth[i], func(k int32, b float64) int {
			return cmp.Compare(ix.breadth[k], b)
		})
		for j := mid - 1; j >= 0; j-- {
			if !visible(kids[j]) {
				out = append(out, layout.Edge{Parent: n.ID, Child: ix.nodes[kids[j]].ID})
				break
			}
		}
		for j := mid; j < len(kids); j++ {
			if !visible(kids[j]) {
				out = append(out, layout.Edge{Parent: n.ID, Child: ix.nodes[kids[j]].ID})
				break
			}
		}
	}
	return out
}

// HitTest returns the node under world point p, with cards grown by slop
// world units. Among several candidates the one whose center is nearest
// wins, then the later one in pre-order.
func (ix *Index) HitTest(p geom.Point, slop float64) (*layout.Node, bool) {
	q := geom.Rect{MinX: p.X - slop, MinY: p.Y - slop, MaxX: p.X + slop, MaxY: p.Y + slop}
	var (
		best  int32 = -1
		bestD       = math.Inf(1)
	)
	for _, i := range ix.collect(q) {
		if !ix.rects[i].Expand(slop).Contains(p) {
			continue
		}
		if d := ix.rects[i].Center().Distance(p); d <= bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return nil, false
	}
	return ix.nodes[best], true
}

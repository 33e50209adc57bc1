package spatial

import (
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/layout"
)

// Cluster aggregates the nodes of one super-cell for overview rendering.
type Cluster struct {
	// Bounds covers every member card.
	Bounds geom.Rect
	// Center is the mean of member centers.
	Center geom.Point
	Count  int
	// Representative is the member earliest in pre-order.
	Representative *layout.Node
}

// Clusters groups the nodes intersecting view (plus margin) into at most
// maxClusters super-cells. Super-cells are square blocks of grid cells whose
// edge doubles until the cap is met. Each node belongs to the super-cell
// containing its center. Clusters are ordered by representative.
func (ix *Index) Clusters(view geom.Rect, maxClusters int) []Cluster {
	idx := ix.collect(view.Expand(ix.margin))
	if len(idx) == 0 || maxClusters <= 0 {
		return nil
	}
	keys := make([]cellKey, len(idx))
	for j, i := range idx {
		c := ix.rects[i].Center()
		keys[j].x, keys[j].y = ix.cellOf(c.X, c.Y)
	}

	group := groupCells(keys, maxClusters)

	// Group ids were assigned in pre-order of first member, so the slice
	// is already ordered by representative.
	out := make([]Cluster, len(group))
	sums := make([]geom.Point, len(group))
	for j, i := range idx {
		g := group[keys[j]]
		c := &out[g]
		r := ix.rects[i]
		if c.Count == 0 {
			c.Bounds = r
			c.Representative = ix.nodes[i]
		} else {
			c.Bounds = c.Bounds.Union(r)
		}
		c.Count++
		sums[g] = sums[g].Add(r.Center())
	}
	for g := range out {
		out[g].Center = sums[g].Mul(1 / float64(out[g].Count))
	}
	return out
}

// groupCells rewrites keys to super-cell keys, coarsening until at most limit
// distinct keys remain, and returns the key to group id map. Group ids follow
// first appearance.
func groupCells(keys []cellKey, limit int) map[cellKey]int {
	for shift := uint(0); shift <= 32; shift++ {
		group := make(map[cellKey]int, limit+1)
		for _, k := range keys {
			sk := cellKey{k.x >> shift, k.y >> shift}
			if _, ok := group[sk]; !ok {
				group[sk] = len(group)
				if len(group) > limit {
					break
				}
			}
		}
		if len(group) <= limit {
			for j, k := range keys {
				keys[j] = cellKey{k.x >> shift, k.y >> shift}
			}
			return group
		}
	}
	// Even the coarsest grid splits at the origin; fold everything into one.
	for j := range keys {
		keys[j] = cellKey{}
	}
	return map[cellKey]int{{}: 0}
}

package layout

import (
	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
)

// Node is a positioned profile. X and Y are the world coordinates of the
// card's center.
type Node struct {
	ID         string
	Label      string
	FatherID   string
	MotherID   string
	Deceased   bool
	PhotoRef   string
	Generation int

	X, Y          float64
	Width, Height float64
	Depth         int // generation level, 0 for generation-1 roots

	// ParentID is the layout parent; empty for roots and spouses.
	ParentID string
	// PartnerID is set for married-in spouses attached beside a partner.
	PartnerID string
	Root      bool

	Children []*Node
	Spouses  []*Node

	// Index is the node's position in [Result.Nodes].
	Index int
}

// Center returns the card center.
func (n *Node) Center() geom.Point { return geom.Point{X: n.X, Y: n.Y} }

// Rect returns the card rectangle in world coordinates.
func (n *Node) Rect() geom.Rect { return geom.RectCentered(n.Center(), n.Width, n.Height) }

// IsSpouse reports whether the node is a married-in partner.
func (n *Node) IsSpouse() bool { return n.PartnerID != "" }

// Edge is a parent-child link, identified by its endpoints.
type Edge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// String returns "parent->child".
func (e Edge) String() string { return e.Parent + "->" + e.Child }

// Result is the output of one layout pass.
type Result struct {
	// Nodes in pre-order: each root, its spouses, then its subtree.
	Nodes []*Node
	Roots []*Node
	// Edges are the spanning-tree links, one per non-root node.
	Edges []Edge
	// Secondary are parent links excluded from the spanning tree.
	Secondary   []Edge
	Bounds      geom.Bounds
	Orientation config.Orientation
	// Degraded is set when the input exceeded the capacity cap.
	Degraded bool
	Warnings errors.Warnings

	byID          map[string]*Node
	secondaryKids map[string][]string
	secondaryOf   map[string][]Edge
}

// Len returns the number of positioned nodes.
func (r *Result) Len() int { return len(r.Nodes) }

// Node returns the node with id.
func (r *Result) Node(id string) (*Node, bool) {
	n, ok := r.byID[id]
	return n, ok
}

// Lineage resolves parent and child links by profile ID.
type Lineage interface {
	Father(id string) (string, bool)
	Mother(id string) (string, bool)
	Children(id string) []string
}

// Lineage returns r as a parent lookup for ancestry walks.
func (r *Result) Lineage() Lineage { return r }

// Father returns the father of id if both are part of the layout.
func (r *Result) Father(id string) (string, bool) {
	n, ok := r.byID[id]
	if !ok || n.FatherID == "" {
		return "", false
	}
	_, ok = r.byID[n.FatherID]
	return n.FatherID, ok
}

// Mother returns the mother of id if both are part of the layout.
func (r *Result) Mother(id string) (string, bool) {
	n, ok := r.byID[id]
	if !ok || n.MotherID == "" {
		return "", false
	}
	_, ok = r.byID[n.MotherID]
	return n.MotherID, ok
}

// Children returns the children of id: layout children first, then those
// linked through secondary edges.
func (r *Result) Children(id string) []string {
	n, ok := r.byID[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(n.Children)+len(r.secondaryKids[id]))
	for _, c := range n.Children {
		out = append(out, c.ID)
	}
	return append(out, r.secondaryKids[id]...)
}

// SecondaryEdges returns the non-spanning links touching id, in the order of
// Secondary.
func (r *Result) SecondaryEdges(id string) []Edge { return r.secondaryOf[id] }

func (r *Result) index() {
	r.byID = make(map[string]*Node, len(r.Nodes))
	rects := make([]geom.Rect, len(r.Nodes))
	for i, n := range r.Nodes {
		n.Index = i
		r.byID[n.ID] = n
		rects[i] = n.Rect()
	}
	r.Bounds = geom.BoundsOf(rects)
	r.secondaryKids = make(map[string][]string)
	r.secondaryOf = make(map[string][]Edge)
	for _, e := range r.Secondary {
		r.secondaryKids[e.Parent] = append(r.secondaryKids[e.Parent], e.Child)
		r.secondaryOf[e.Parent] = append(r.secondaryOf[e.Parent], e)
		r.secondaryOf[e.Child] = append(r.secondaryOf[e.Child], e)
	}
}

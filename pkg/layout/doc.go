// Package layout computes deterministic world positions for a genealogy.
//
// # Overview
//
// [Compute] turns the full profile set of one tree into a positioned node
// tree. It is a pure function of its input and configuration: running it
// twice on the same profiles yields bit-identical coordinates, which keeps
// re-renders and minimaps stable.
//
// # Spanning Tree
//
// Real genealogies are not trees. Every child names a father and a mother,
// remarriages connect families across generations, and imported data
// contains dangling or cyclic references. Before placing anything the
// engine selects exactly one layout parent per node:
//
//   - the father, when FatherID resolves;
//   - the mother, when FatherID is empty and MotherID resolves;
//   - none, making the node a root. An unresolvable FatherID is reported as
//     MALFORMED_INPUT and the node becomes a new root.
//
// Parent links not chosen for the spanning tree are kept in
// [Result.Secondary] so highlight presets can still walk full ancestry.
// Cycles in parent links are broken at the member that appears first in the
// input.
//
// Married-in individuals have no parents of their own and appear only as the
// second parent of some child. Instead of floating as separate roots they are
// attached to the child's layout parent as spouses and drawn beside them in
// the same generation.
//
// # Placement
//
// Placement follows the Reingold–Tilford family of tidy tree algorithms:
//
//  1. Subtree contours are computed bottom-up. A contour records the
//     leftmost and rightmost breadth extent of a subtree at each depth.
//  2. Siblings are packed left to right; each subtree is shifted by the
//     minimal offset that keeps SiblingGap between it and the contours of
//     its left siblings at every shared depth.
//  3. Each family unit (a node plus its spouses) is centered over the span
//     of its children's cards.
//  4. Roots are packed the same way using absolute generation levels, so
//     trees rooted at different generations interleave without overlap.
//
// Siblings are ordered by SiblingOrder. Profiles without a SiblingOrder sort
// after those with one, and ties (missing or duplicate values) keep input
// order.
//
// The cost is O(n·d) for n nodes and d generations. Ten thousand profiles
// lay out in a few milliseconds.
//
// # Orientation
//
// Vertical layouts place generations top to bottom. Horizontal layouts swap
// the breadth and depth axes while reusing the same math.
//
// # Capacity
//
// When the input exceeds the configured MaxProfiles the layout is still
// produced, [Result.Degraded] is set and a CAPACITY_EXCEEDED warning is
// recorded. Bounding what is drawn is the job of the culling stage.
package layout

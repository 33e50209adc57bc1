package highlight

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/lineage/pkg/layout"
)

// AncestryPath returns one active edge entry per link from startID up its
// ancestry, following fathers and falling back to mothers. Entries share a
// fresh group ID, returned first. Links outside the spanning tree are
// included, so remarriage lines show up too.
func AncestryPath(lin layout.Lineage, startID string, style Style) (string, []Entry) {
	group := uuid.NewString()
	var out []Entry
	seen := map[string]bool{startID: true}
	for id := startID; ; {
		parent, ok := lin.Father(id)
		if !ok {
			parent, ok = lin.Mother(id)
		}
		if !ok || seen[parent] {
			break
		}
		seen[parent] = true
		out = append(out, edgeEntry(group, len(out), parent, id, style))
		id = parent
	}
	return group, out
}

// Descendants returns one active edge entry per link below rootID, breadth
// first, at most maxDepth generations deep. A maxDepth of zero or less
// means unlimited.
func Descendants(lin layout.Lineage, rootID string, style Style, maxDepth int) (string, []Entry) {
	group := uuid.NewString()
	var out []Entry
	seen := map[string]bool{rootID: true}
	level := []string{rootID}
	for depth := 0; len(level) > 0 && (maxDepth <= 0 || depth < maxDepth); depth++ {
		var next []string
		for _, id := range level {
			for _, child := range lin.Children(id) {
				out = append(out, edgeEntry(group, len(out), id, child, style))
				if !seen[child] {
					seen[child] = true
					next = append(next, child)
				}
			}
		}
		level = next
	}
	return group, out
}

func edgeEntry(group string, i int, parent, child string, style Style) Entry {
	return Entry{
		ID:     group + "/" + strconv.Itoa(i),
		Source: parent,
		Target: child,
		Style:  style,
		Group:  group,
		Z:      i,
		Active: true,
	}
}

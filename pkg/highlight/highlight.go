// Package highlight keeps visual emphasis for nodes and edges, independent of
// layout and camera.
//
// Entries reference nodes and edges by ID only, so they survive layout
// rebuilds. The [Manager] indexes entries by node, by edge and by group; a
// per-frame [Manager.EntriesFor] lookup costs time proportional to the
// visible IDs, not to the number of entries.
package highlight

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/layout"
)

// Style is how an entry is painted.
type Style struct {
	Color   string  `json:"color"`
	Width   float64 `json:"width,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
	Glow    bool    `json:"glow,omitempty"`
	// Animation names a painter-defined effect, e.g. "pulse".
	Animation string `json:"animation,omitempty"`
}

// Entry highlights either a node (NodeID) or an edge (Source to Target).
type Entry struct {
	ID     string `json:"id"`
	NodeID string `json:"node_id,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	Style  Style  `json:"style"`
	Group  string `json:"group,omitempty"`
	Z      int    `json:"z"`
	Active bool   `json:"active"`
}

// IsEdge reports whether e targets an edge.
func (e Entry) IsEdge() bool { return e.NodeID == "" }

// Edge returns the edge an edge entry targets.
func (e Entry) Edge() layout.Edge { return layout.Edge{Parent: e.Source, Child: e.Target} }

func (e Entry) validate() error {
	switch {
	case e.NodeID != "" && (e.Source != "" || e.Target != ""):
		return errors.New(errors.ErrCodeInvalidInput, "highlight %q targets both a node and an edge", e.ID)
	case e.NodeID == "" && (e.Source == "" || e.Target == ""):
		return errors.New(errors.ErrCodeInvalidInput, "highlight %q has no target", e.ID)
	}
	return nil
}

type set map[string]struct{}

func (s set) add(id string)    { s[id] = struct{}{} }
func (s set) remove(id string) { delete(s, id) }

// Manager is an ID-indexed highlight store. It is not safe for concurrent
// use; the owning view mutates it from its interaction context.
type Manager struct {
	entries map[string]Entry
	byNode  map[string]set
	byEdge  map[layout.Edge]set
	byGroup map[string]set
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	m := &Manager{}
	m.Clear()
	return m
}

// Len returns the number of entries.
func (m *Manager) Len() int { return len(m.entries) }

// Get returns the entry with id.
func (m *Manager) Get(id string) (Entry, bool) {
	e, ok := m.entries[id]
	return e, ok
}

// Add inserts e and returns its ID. An empty ID is replaced by a fresh one.
// Adding an existing ID fails with INVALID_INPUT.
func (m *Manager) Add(e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := e.validate(); err != nil {
		return "", err
	}
	if _, ok := m.entries[e.ID]; ok {
		return "", errors.New(errors.ErrCodeInvalidInput, "highlight %q already exists", e.ID)
	}
	m.insert(e)
	return e.ID, nil
}

// AddAll inserts entries atomically: if any is invalid nothing is added.
// Entries without an ID are assigned one in place.
func (m *Manager) AddAll(entries []Entry) error {
	seen := make(set, len(entries))
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		e := entries[i]
		if err := e.validate(); err != nil {
			return err
		}
		_, dup := seen[e.ID]
		if _, exists := m.entries[e.ID]; exists || dup {
			return errors.New(errors.ErrCodeInvalidInput, "highlight %q already exists", e.ID)
		}
		seen.add(e.ID)
	}
	for _, e := range entries {
		m.insert(e)
	}
	return nil
}

// Update replaces the entry with e.ID, re-indexing it if its target or
// group changed.
func (m *Manager) Update(e Entry) error {
	if _, ok := m.entries[e.ID]; !ok {
		return errors.New(errors.ErrCodeNotFound, "highlight %q not found", e.ID)
	}
	if err := e.validate(); err != nil {
		return err
	}
	m.Remove(e.ID)
	m.insert(e)
	return nil
}

// Remove deletes the entry with id. Removing a missing ID is a no-op.
func (m *Manager) Remove(id string) bool {
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	delete(m.entries, id)
	if e.IsEdge() {
		unindex(m.byEdge, e.Edge(), id)
	} else {
		unindex(m.byNode, e.NodeID, id)
	}
	if e.Group != "" {
		unindex(m.byGroup, e.Group, id)
	}
	return true
}

// RemoveGroup deletes every entry of group and returns how many there were.
func (m *Manager) RemoveGroup(group string) int {
	ids := m.byGroup[group]
	n := len(ids)
	for id := range ids {
		m.Remove(id)
	}
	return n
}

// Group returns the IDs in group, sorted.
func (m *Manager) Group(group string) []string {
	ids := make([]string, 0, len(m.byGroup[group]))
	for id := range m.byGroup[group] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SetActive toggles an entry without removing it.
func (m *Manager) SetActive(id string, active bool) error {
	e, ok := m.entries[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "highlight %q not found", id)
	}
	e.Active = active
	m.entries[id] = e
	return nil
}

// SetGroupActive toggles every entry of group.
func (m *Manager) SetGroupActive(group string, active bool) {
	for id := range m.byGroup[group] {
		e := m.entries[id]
		e.Active = active
		m.entries[id] = e
	}
}

// Clear removes every entry.
func (m *Manager) Clear() {
	m.entries = make(map[string]Entry)
	m.byNode = make(map[string]set)
	m.byEdge = make(map[layout.Edge]set)
	m.byGroup = make(map[string]set)
}

// EntriesFor returns the active entries touching the given nodes and edges,
// ordered by Z then ID.
func (m *Manager) EntriesFor(nodeIDs []string, edges []layout.Edge) []Entry {
	var out []Entry
	seen := make(set)
	collect := func(ids set) {
		for id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen.add(id)
			if e := m.entries[id]; e.Active {
				out = append(out, e)
			}
		}
	}
	for _, id := range nodeIDs {
		collect(m.byNode[id])
	}
	for _, e := range edges {
		collect(m.byEdge[e])
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.Z, b.Z), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (m *Manager) insert(e Entry) {
	m.entries[e.ID] = e
	if e.IsEdge() {
		index(m.byEdge, e.Edge(), e.ID)
	} else {
		index(m.byNode, e.NodeID, e.ID)
	}
	if e.Group != "" {
		index(m.byGroup, e.Group, e.ID)
	}
}

func index[K comparable](idx map[K]set, k K, id string) {
	s, ok := idx[k]
	if !ok {
		s = make(set)
		idx[k] = s
	}
	s.add(id)
}

func unindex[K comparable](idx map[K]set, k K, id string) {
	if s, ok := idx[k]; ok {
		s.remove(id)
		if len(s) == 0 {
			delete(idx, k)
		}
	}
}

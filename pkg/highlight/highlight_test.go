package highlight

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/profile"
)

var red = Style{Color: "#e5484d", Width: 3, Opacity: 1}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestAddAndLookup(t *testing.T) {
	m := NewManager()
	id, err := m.Add(Entry{NodeID: "a", Style: red, Active: true})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = m.Add(Entry{ID: id, NodeID: "b"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = m.Add(Entry{ID: "both", NodeID: "a", Source: "a", Target: "b"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	_, err = m.Add(Entry{ID: "none", Source: "a"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	got, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, "a", got.NodeID)
	assert.Equal(t, 1, m.Len())
}

func TestEntriesForOrderAndFiltering(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.AddAll([]Entry{
		{ID: "n2", NodeID: "x", Z: 2, Active: true},
		{ID: "n1", NodeID: "x", Z: 1, Active: true},
		{ID: "e1", Source: "x", Target: "y", Z: 1, Active: true},
		{ID: "off", NodeID: "x", Z: 0, Active: false},
		{ID: "far", NodeID: "z", Active: true},
	}))

	got := m.EntriesFor([]string{"x", "x", "y"}, []layout.Edge{{Parent: "x", Child: "y"}})
	assert.Equal(t, []string{"e1", "n1", "n2"}, ids(got))

	require.NoError(t, m.SetActive("off", true))
	got = m.EntriesFor([]string{"x"}, nil)
	assert.Equal(t, []string{"off", "n1", "n2"}, ids(got))

	assert.Empty(t, m.EntriesFor(nil, []layout.Edge{{Parent: "y", Child: "x"}}), "edges are directed")
	assert.True(t, errors.Is(m.SetActive("missing", true), errors.ErrCodeNotFound))
}

func TestAddAllIsAtomic(t *testing.T) {
	m := NewManager()
	_, err := m.Add(Entry{ID: "taken", NodeID: "a"})
	require.NoError(t, err)

	err = m.AddAll([]Entry{{ID: "fresh", NodeID: "b"}, {ID: "taken", NodeID: "c"}})
	require.Error(t, err)
	assert.Equal(t, 1, m.Len())

	err = m.AddAll([]Entry{{ID: "dup", NodeID: "b"}, {ID: "dup", NodeID: "c"}})
	require.Error(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestRemoveIsIdempotent(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.AddAll([]Entry{
		{ID: "a", NodeID: "n", Active: true},
		{ID: "b", Source: "p", Target: "n", Group: "g", Active: true},
	}))
	before := m.EntriesFor([]string{"n"}, []layout.Edge{{Parent: "p", Child: "n"}})

	assert.True(t, m.Remove("b"))
	assert.False(t, m.Remove("b"))
	assert.False(t, m.Remove("never"))
	assert.Len(t, m.EntriesFor([]string{"n"}, []layout.Edge{{Parent: "p", Child: "n"}}), 1)
	assert.Empty(t, m.Group("g"))

	// Re-adding restores the original lookup.
	require.NoError(t, m.AddAll([]Entry{{ID: "b", Source: "p", Target: "n", Group: "g", Active: true}}))
	assert.Equal(t, before, m.EntriesFor([]string{"n"}, []layout.Edge{{Parent: "p", Child: "n"}}))
}

func TestUpdateReindexes(t *testing.T) {
	m := NewManager()
	_, err := m.Add(Entry{ID: "h", NodeID: "a", Active: true})
	require.NoError(t, err)

	require.NoError(t, m.Update(Entry{ID: "h", Source: "a", Target: "b", Active: true, Z: 4}))
	assert.Empty(t, m.EntriesFor([]string{"a"}, nil))
	got := m.EntriesFor(nil, []layout.Edge{{Parent: "a", Child: "b"}})
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Z)

	assert.True(t, errors.Is(m.Update(Entry{ID: "missing", NodeID: "a"}), errors.ErrCodeNotFound))
}

func TestGroups(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.AddAll([]Entry{
		{ID: "1", NodeID: "a", Group: "g", Active: true},
		{ID: "2", NodeID: "b", Group: "g", Active: true},
		{ID: "3", NodeID: "c", Group: "other", Active: true},
	}))
	assert.Equal(t, []string{"1", "2"}, m.Group("g"))

	m.SetGroupActive("g", false)
	assert.Empty(t, m.EntriesFor([]string{"a", "b"}, nil))

	assert.Equal(t, 2, m.RemoveGroup("g"))
	assert.Zero(t, m.RemoveGroup("g"))
	assert.Equal(t, 1, m.Len())

	m.Clear()
	assert.Zero(t, m.Len())
}

func family(t *testing.T) *layout.Result {
	t.Helper()
	res, err := layout.Compute(context.Background(), []profile.Profile{
		{ID: "gf", Generation: 1},
		{ID: "gm", Generation: 1},
		{ID: "f", FatherID: "gf", MotherID: "gm", Generation: 2},
		{ID: "m", Generation: 2},
		{ID: "kid", FatherID: "f", MotherID: "m", Generation: 3},
		{ID: "orphan", MotherID: "m", Generation: 3},
		{ID: "grandkid", FatherID: "kid", Generation: 4},
	}, config.MustDefault(), layout.Options{})
	require.NoError(t, err)
	return res
}

func TestAncestryPath(t *testing.T) {
	res := family(t)

	group, entries := AncestryPath(res.Lineage(), "grandkid", red)
	require.NotEmpty(t, group)
	var edges []string
	for _, e := range entries {
		assert.Equal(t, group, e.Group)
		assert.True(t, e.Active)
		edges = append(edges, e.Edge().String())
	}
	assert.Equal(t, []string{"kid->grandkid", "f->kid", "gf->f"}, edges)

	// No father: the mother line is followed.
	_, entries = AncestryPath(res.Lineage(), "orphan", red)
	require.Len(t, entries, 1)
	assert.Equal(t, "m->orphan", entries[0].Edge().String())

	m := NewManager()
	require.NoError(t, m.AddAll(entries))
	_, again := AncestryPath(res.Lineage(), "grandkid", red)
	require.NoError(t, m.AddAll(again), "each application gets its own group")
	assert.Equal(t, 4, m.Len())
}

type loop struct{}

func (loop) Father(id string) (string, bool) {
	if id == "a" {
		return "b", true
	}
	return "a", true
}
func (loop) Mother(string) (string, bool) { return "", false }
func (loop) Children(string) []string     { return nil }

func TestAncestryPathStopsOnCycle(t *testing.T) {
	_, entries := AncestryPath(loop{}, "a", red)
	assert.Len(t, entries, 1)
}

func TestDescendants(t *testing.T) {
	res := family(t)

	_, all := Descendants(res.Lineage(), "f", red, 0)
	var edges []string
	for _, e := range all {
		edges = append(edges, e.Edge().String())
	}
	assert.Equal(t, []string{"f->kid", "kid->grandkid"}, edges)

	_, one := Descendants(res.Lineage(), "f", red, 1)
	assert.Len(t, one, 1)

	_, mother := Descendants(res.Lineage(), "m", red, 0)
	assert.Len(t, mother, 3, "secondary children are included")
}

func BenchmarkEntriesFor(b *testing.B) {
	m := NewManager()
	entries := make([]Entry, 0, 5000)
	for i := 0; i < 5000; i++ {
		entries = append(entries, Entry{ID: strconv.Itoa(i), NodeID: "n" + strconv.Itoa(i%2500), Active: true})
	}
	if err := m.AddAll(entries); err != nil {
		b.Fatal(err)
	}
	visible := make([]string, 200)
	for i := range visible {
		visible[i] = "n" + strconv.Itoa(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.EntriesFor(visible, nil)
	}
}

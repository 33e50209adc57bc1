package profile

// Index answers parent and child lookups over a profile set. It covers both
// parent axes, so it also sees the links the layout spanning tree drops.
type Index struct {
	byID     map[string]int
	profiles []Profile
	children map[string][]string
}

// NewIndex indexes profiles. Later duplicates of an ID are ignored.
func NewIndex(profiles []Profile) *Index {
	idx := &Index{
		byID:     make(map[string]int, len(profiles)),
		profiles: profiles,
		children: make(map[string][]string),
	}
	for i, p := range profiles {
		if _, ok := idx.byID[p.ID]; !ok {
			idx.byID[p.ID] = i
		}
	}
	for _, p := range profiles {
		if _, ok := idx.byID[p.FatherID]; ok {
			idx.children[p.FatherID] = append(idx.children[p.FatherID], p.ID)
		}
		if _, ok := idx.byID[p.MotherID]; ok && p.MotherID != p.FatherID {
			idx.children[p.MotherID] = append(idx.children[p.MotherID], p.ID)
		}
	}
	return idx
}

// Len returns the number of indexed profiles.
func (x *Index) Len() int { return len(x.byID) }

// Get returns the profile with id.
func (x *Index) Get(id string) (Profile, bool) {
	i, ok := x.byID[id]
	if !ok {
		return Profile{}, false
	}
	return x.profiles[i], true
}

// Father returns the resolvable father of id.
func (x *Index) Father(id string) (string, bool) {
	p, ok := x.Get(id)
	if !ok || p.FatherID == "" {
		return "", false
	}
	if _, ok := x.byID[p.FatherID]; !ok {
		return "", false
	}
	return p.FatherID, true
}

// Mother returns the resolvable mother of id.
func (x *Index) Mother(id string) (string, bool) {
	p, ok := x.Get(id)
	if !ok || p.MotherID == "" {
		return "", false
	}
	if _, ok := x.byID[p.MotherID]; !ok {
		return "", false
	}
	return p.MotherID, true
}

// Children returns the ids of profiles naming id as either parent, in input
// order.
func (x *Index) Children(id string) []string { return x.children[id] }

package profile

import (
	"fmt"
	"math/rand/v2"
)

// GenerateOptions shapes a synthetic tree.
type GenerateOptions struct {
	Count       int     // total profiles to produce
	Roots       int     // generation-1 roots; 0 picks one per 2000 profiles
	MaxChildren int     // children per family drawn from [0, MaxChildren]; default 4
	SpouseRate  float64 // probability a parent gets a married-in spouse; default 0.5
	Seed        uint64  // rng seed; identical seeds give identical trees
}

// Generate builds a deterministic synthetic genealogy for benchmarks, demos
// and tests. Married-in spouses carry no parents and appear only as the
// mother of their children.
func Generate(opts GenerateOptions) []Profile {
	if opts.Count <= 0 {
		return nil
	}
	if opts.MaxChildren <= 0 {
		opts.MaxChildren = 4
	}
	if opts.SpouseRate == 0 {
		opts.SpouseRate = 0.5
	}
	roots := opts.Roots
	if roots <= 0 {
		roots = max(1, opts.Count/2000)
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	out := make([]Profile, 0, opts.Count)
	next := 0
	newID := func() string {
		next++
		return fmt.Sprintf("p%05d", next)
	}

	queue := make([]int, 0, opts.Count)
	for i := 0; i < roots && len(out) < opts.Count; i++ {
		out = append(out, Profile{ID: newID(), Generation: 1, SiblingOrder: Order(i)})
		queue = append(queue, len(out)-1)
	}

	for head := 0; len(out) < opts.Count; head++ {
		if head >= len(queue) {
			// the tree died out; seed another root
			out = append(out, Profile{ID: newID(), Generation: 1})
			queue = append(queue, len(out)-1)
		}
		parent := out[queue[head]]
		mother := ""
		if rng.Float64() < opts.SpouseRate && len(out) < opts.Count {
			sp := Profile{ID: newID(), Generation: parent.Generation}
			out = append(out, sp)
			mother = sp.ID
		}
		n := rng.IntN(opts.MaxChildren + 1)
		if head == 0 && n == 0 {
			n = 1
		}
		for c := 0; c < n && len(out) < opts.Count; c++ {
			child := Profile{
				ID:         newID(),
				FatherID:   parent.ID,
				MotherID:   mother,
				Generation: parent.Generation + 1,
				Deceased:   rng.IntN(4) == 0,
			}
			if rng.IntN(3) > 0 {
				child.SiblingOrder = Order(c)
			}
			out = append(out, child)
			queue = append(queue, len(out)-1)
		}
	}
	return out
}

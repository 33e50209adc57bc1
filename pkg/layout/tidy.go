package layout

import (
	"context"
	"math"

	"github.com/matzehuels/lineage/pkg/config"
)

// span is the breadth extent of a subtree at one depth.
type span struct{ lo, hi float64 }

func (s span) empty() bool { return s.lo > s.hi }

func (s span) shift(d float64) span { return span{s.lo + d, s.hi + d} }

var emptySpan = span{lo: math.Inf(1), hi: math.Inf(-1)}

// contour lists a subtree's spans deepest first, so the subtree root's span
// is the last element. Parents append their own span without copying.
type contour []span

func (c contour) at(depth int) *span { return &c[len(c)-1-depth] }

func (c contour) shift(d float64) {
	for i := range c {
		c[i] = c[i].shift(d)
	}
}

// merge folds o, shifted by d, into c and returns the deeper of the two,
// which owns the result.
func (c contour) merge(o contour, d float64) contour {
	o.shift(d)
	if len(o) > len(c) {
		c, o = o, c
	}
	for l := range o {
		s := c.at(l)
		*s = span{min(s.lo, o.at(l).lo), max(s.hi, o.at(l).hi)}
	}
	return c
}

// place computes the breadth coordinate of every card center. Contours are
// built bottom-up in reverse pre-order, so every subtree is finished before
// its parent packs it.
func (b *builder) place(ctx context.Context, order, roots, levels []int) ([]float64, error) {
	cfg := b.cfg
	card := cfg.CardWidth
	if cfg.Orientation == config.Horizontal {
		card = cfg.CardHeight
	}
	stride := card + cfg.SpouseGap

	n := len(b.ps)
	contours := make([]contour, n)
	offset := make([]float64, n)

	for i := len(order) - 1; i >= 0; i-- {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v := order[i]
		if b.partner[v] >= 0 {
			continue
		}
		unit := span{-card / 2, card/2 + float64(len(b.spouses[v]))*stride}
		kids := b.children[v]
		if len(kids) == 0 {
			contours[v] = contour{unit}
			continue
		}

		merged, pos := packSiblings(kids, contours, cfg.SiblingGap)
		// Center the family unit over the first and last child cards.
		delta := (unit.lo+unit.hi)/2 - (pos[0]+pos[len(pos)-1])/2
		merged.shift(delta)
		for j, k := range kids {
			offset[k] = pos[j] + delta
			contours[k] = nil
		}
		contours[v] = append(merged, unit)
	}

	rootPos := packRoots(roots, contours, levels, cfg.RootGap)

	breadth := make([]float64, n)
	for _, v := range order {
		switch {
		case b.parent[v] >= 0:
			breadth[v] = breadth[b.parent[v]] + offset[v]
		case b.partner[v] < 0:
			breadth[v] = rootPos[v]
		}
		for j, s := range b.spouses[v] {
			breadth[s] = breadth[v] + float64(j+1)*stride
		}
	}
	return breadth, nil
}

// packSiblings places subtrees left to right, shifting each by the minimal
// offset that keeps gap between it and everything to its left at every shared
// depth. Positions are relative to the first sibling. The children's contours
// are consumed.
func packSiblings(items []int, contours []contour, gap float64) (contour, []float64) {
	pos := make([]float64, len(items))
	merged := contours[items[0]]
	for j := 1; j < len(items); j++ {
		c := contours[items[j]]
		shift := math.Inf(-1)
		for l := range min(len(merged), len(c)) {
			shift = max(shift, merged.at(l).hi-c.at(l).lo+gap)
		}
		pos[j] = shift
		merged = merged.merge(c, shift)
	}
	return merged, pos
}

// packRoots packs root subtrees against a profile indexed by absolute level.
// A root that shares no level with earlier roots goes right of all of them.
func packRoots(roots []int, contours []contour, levels []int, gap float64) map[int]float64 {
	pos := make(map[int]float64, len(roots))
	var merged []span
	right := math.Inf(-1)
	for j, r := range roots {
		c := contours[r]
		base := levels[r]
		for len(merged) < base+len(c) {
			merged = append(merged, emptySpan)
		}

		shift, shared := math.Inf(-1), false
		for l := range c {
			if m := merged[base+l]; !m.empty() {
				shift = max(shift, m.hi-c.at(l).lo+gap)
				shared = true
			}
		}
		switch {
		case j == 0:
			shift = 0
		case !shared:
			lo := math.Inf(1)
			for _, s := range c {
				lo = min(lo, s.lo)
			}
			shift = right - lo + gap
		}
		pos[r] = shift
		for l := range c {
			s := c.at(l).shift(shift)
			m := &merged[base+l]
			*m = span{min(m.lo, s.lo), max(m.hi, s.hi)}
			right = max(right, s.hi)
		}
	}
	return pos
}

package layout

import (
	"cmp"
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/profile"
)

// Options control a single layout run.
type Options struct {
	// Logger receives warnings and timing. Nil discards output.
	Logger *log.Logger

	// Hooks receives the events of this call in addition to the registered
	// observability hooks, e.g. for a progress display.
	Hooks observability.LayoutHooks
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

// maxLoggedWarnings bounds per-warning log lines; the rest are summarized.
const maxLoggedWarnings = 10

// cancelCheckEvery is how many nodes are placed between context checks.
const cancelCheckEvery = 4096

// Compute lays out profiles using cfg. It never fails on bad input: dangling
// references, cycles, and capacity overruns are reported in
// [Result.Warnings]. The only error is context cancellation.
func Compute(ctx context.Context, profiles []profile.Profile, cfg config.Config, opts Options) (*Result, error) {
	start := time.Now()
	hooks := observability.Layout()
	if opts.Hooks != nil {
		hooks = observability.TeeLayout(hooks, opts.Hooks)
	}
	hooks.OnLayoutStart(ctx, len(profiles))

	res, err := compute(ctx, profiles, cfg)

	elapsed := time.Since(start)
	nodes := 0
	if res != nil {
		nodes = res.Len()
	}
	hooks.OnLayoutComplete(ctx, nodes, elapsed, err)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		hooks.OnWarning(ctx, string(errors.GetCode(w)))
	}
	report(opts.logger(), res, elapsed)
	return res, nil
}

func report(logger *log.Logger, res *Result, elapsed time.Duration) {
	for i, w := range res.Warnings {
		if i == maxLoggedWarnings {
			logger.Warn("further layout warnings suppressed", "count", len(res.Warnings)-i)
			break
		}
		logger.Warn(errors.UserMessage(w), "code", errors.GetCode(w))
	}
	logger.Info("layout complete",
		"nodes", res.Len(),
		"roots", len(res.Roots),
		"secondary", len(res.Secondary),
		"degraded", res.Degraded,
		"duration", elapsed)
}

// builder holds the index-based working state of one layout pass.
type builder struct {
	cfg config.Layout
	ps  []profile.Profile
	pos map[string]int

	parent   []int // layout parent, -1 for none
	partner  []int // married-in partner, -1 for none
	children [][]int
	spouses  [][]int
	second   [][2]int // {parent, child} links outside the spanning tree

	w errors.Warnings
}

func compute(ctx context.Context, in []profile.Profile, cfg config.Config) (*Result, error) {
	ps, w := profile.Sanitize(in)
	b := &builder{cfg: cfg.Layout, ps: ps, w: w}

	res := &Result{Orientation: cfg.Layout.Orientation}
	if len(ps) > cfg.Layout.MaxProfiles {
		res.Degraded = true
		b.w.Add(errors.New(errors.ErrCodeCapacityExceeded,
			"%d profiles exceed the capacity of %d", len(ps), cfg.Layout.MaxProfiles))
	}

	b.resolveParents()
	b.breakCycles()
	b.attachSpouses()
	b.link()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roots := b.roots()
	order := b.preorder(roots)
	levels := b.levels(order)
	breadth, err := b.place(ctx, order, roots, levels)
	if err != nil {
		return nil, err
	}

	b.emit(res, order, roots, levels, breadth)
	res.Warnings = b.w
	return res, nil
}

func (b *builder) lookup(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	i, ok := b.pos[id]
	return i, ok
}

// resolveParents picks one layout parent per profile: the father, else the
// mother. An unresolvable father makes the profile a root.
func (b *builder) resolveParents() {
	n := len(b.ps)
	b.pos = make(map[string]int, n)
	for i, p := range b.ps {
		b.pos[p.ID] = i
	}
	b.parent = make([]int, n)
	b.partner = make([]int, n)
	for i, p := range b.ps {
		b.parent[i], b.partner[i] = -1, -1
		f, fok := b.lookup(p.FatherID)
		m, mok := b.lookup(p.MotherID)
		if p.MotherID != "" && !mok {
			b.w.Add(errors.New(errors.ErrCodeMalformedInput, "mother %q of %q not found", p.MotherID, p.ID))
		}
		switch {
		case p.FatherID != "" && !fok:
			b.w.Add(errors.New(errors.ErrCodeMalformedInput, "father %q of %q not found, laid out as root", p.FatherID, p.ID))
			if mok {
				b.second = append(b.second, [2]int{m, i})
			}
		case fok:
			b.parent[i] = f
			if mok && m != f {
				b.second = append(b.second, [2]int{m, i})
			}
		case mok:
			b.parent[i] = m
		}
	}
}

// breakCycles removes the parent link of the earliest input member of every
// cycle in the layout-parent graph.
func (b *builder) breakCycles() {
	const (
		unvisited = iota
		walking
		done
	)
	n := len(b.ps)
	state := make([]int8, n)
	pathPos := make([]int, n)
	var path []int
	for i := range n {
		if state[i] != unvisited {
			continue
		}
		path = path[:0]
		for v := i; v >= 0 && state[v] != done; v = b.parent[v] {
			if state[v] == walking {
				low := slices.Min(path[pathPos[v]:])
				b.w.Add(errors.New(errors.ErrCodeMalformedInput,
					"parent cycle through %q broken, laid out as root", b.ps[low].ID))
				b.parent[low] = -1
				break
			}
			state[v] = walking
			pathPos[v] = len(path)
			path = append(path, v)
		}
		for _, v := range path {
			state[v] = done
		}
	}
}

// attachSpouses places married-in profiles beside the layout parent of the
// first child that names them. A married-in profile has no parents and no
// spanning-tree children of its own.
func (b *builder) attachSpouses() {
	hasChildren := make([]bool, len(b.ps))
	for _, p := range b.parent {
		if p >= 0 {
			hasChildren[p] = true
		}
	}
	for _, e := range b.second {
		m, child := e[0], e[1]
		p := b.parent[child]
		if p < 0 || m == p || b.parent[m] >= 0 || b.partner[m] >= 0 || hasChildren[m] {
			continue
		}
		if b.ps[m].FatherID != "" || b.ps[m].MotherID != "" {
			continue
		}
		b.partner[m] = p
	}
}

func (b *builder) link() {
	n := len(b.ps)
	b.children = make([][]int, n)
	b.spouses = make([][]int, n)
	for i := range n {
		if p := b.parent[i]; p >= 0 {
			b.children[p] = append(b.children[p], i)
		}
		if p := b.partner[i]; p >= 0 {
			b.spouses[p] = append(b.spouses[p], i)
		}
	}
	for i := range n {
		if len(b.children[i]) > 1 {
			b.sortSiblings(b.children[i])
		}
	}
}

func (b *builder) roots() []int {
	var roots []int
	for i := range b.ps {
		if b.parent[i] < 0 && b.partner[i] < 0 {
			roots = append(roots, i)
		}
	}
	b.sortSiblings(roots)
	return roots
}

// sortSiblings orders by SiblingOrder with nulls last, keeping input order
// for ties.
func (b *builder) sortSiblings(ids []int) {
	slices.SortStableFunc(ids, func(x, y int) int {
		return compareOrder(b.ps[x].SiblingOrder, b.ps[y].SiblingOrder)
	})
}

func compareOrder(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

// preorder lists every placed profile: each unit head, its spouses, then its
// children's subtrees.
func (b *builder) preorder(roots []int) []int {
	order := make([]int, 0, len(b.ps))
	stack := make([]int, 0, 64)
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, v)
		order = append(order, b.spouses[v]...)
		kids := b.children[v]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return order
}

// levels assigns absolute generation levels. Roots sit at Generation-1 and
// every child one below its layout parent.
func (b *builder) levels(order []int) []int {
	lv := make([]int, len(b.ps))
	for _, v := range order {
		switch {
		case b.parent[v] >= 0:
			lv[v] = lv[b.parent[v]] + 1
		case b.partner[v] >= 0:
			lv[v] = lv[b.partner[v]]
		default:
			lv[v] = b.ps[v].Generation - 1
		}
	}
	return lv
}

// emit converts the index-based placement into the public node tree.
func (b *builder) emit(res *Result, order, roots, levels []int, breadth []float64) {
	cfg := b.cfg
	depthStep := cfg.CardHeight + cfg.GenerationGap
	if cfg.Orientation == config.Horizontal {
		depthStep = cfg.CardWidth + cfg.GenerationGap
	}

	nodes := make([]*Node, len(b.ps))
	res.Nodes = make([]*Node, 0, len(order))
	for _, v := range order {
		p := b.ps[v]
		n := &Node{
			ID:         p.ID,
			Label:      p.Label(),
			FatherID:   p.FatherID,
			MotherID:   p.MotherID,
			Deceased:   p.Deceased,
			PhotoRef:   p.PhotoRef,
			Generation: p.Generation,
			Width:      cfg.CardWidth,
			Height:     cfg.CardHeight,
			Depth:      levels[v],
		}
		d := float64(levels[v]) * depthStep
		if cfg.Orientation == config.Horizontal {
			n.X, n.Y = d, breadth[v]
		} else {
			n.X, n.Y = breadth[v], d
		}
		if pp := b.parent[v]; pp >= 0 {
			n.ParentID = b.ps[pp].ID
		}
		if pp := b.partner[v]; pp >= 0 {
			n.PartnerID = b.ps[pp].ID
		}
		nodes[v] = n
		res.Nodes = append(res.Nodes, n)
	}
	for _, v := range order {
		n := nodes[v]
		for _, c := range b.children[v] {
			n.Children = append(n.Children, nodes[c])
			res.Edges = append(res.Edges, Edge{Parent: n.ID, Child: nodes[c].ID})
		}
		for _, s := range b.spouses[v] {
			n.Spouses = append(n.Spouses, nodes[s])
		}
	}
	for _, r := range roots {
		nodes[r].Root = true
		res.Roots = append(res.Roots, nodes[r])
	}
	for _, e := range b.second {
		res.Secondary = append(res.Secondary, Edge{Parent: b.ps[e[0]].ID, Child: b.ps[e[1]].ID})
	}
	res.index()
}

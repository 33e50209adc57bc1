package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/camera"
	"github.com/matzehuels/lineage/pkg/connection"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/profile"
	"github.com/matzehuels/lineage/pkg/scene"
)

// Terminal cells are mapped to this many viewport pixels.
const (
	cellW = 8.0
	cellH = 16.0
)

// Canvas size until the terminal reports its own.
const (
	defaultCols = 80
	defaultRows = 22
)

const (
	exploreFrame = 33 * time.Millisecond
	nudgeCells   = 8
	pinchStep    = 1.25
)

// exploreCommand opens the interactive terminal canvas.
func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore <profiles>",
		Short: "Pan and zoom a tree in the terminal",
		Long: `Open an interactive canvas on the tree. Every key is turned into the touch
gestures a device would send, so momentum, rubber banding and level of
detail behave as they do on a phone.

  arrows, hjkl   animated pan
  HJKL           fling (pan with momentum)
  + / -          pinch zoom around the center
  enter          double tap: focus the person at the center
  a              toggle the ancestry highlight of the person at the center
  f              fit the whole tree
  r              reload the profile source
  q              quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runExplore(ctx context.Context, src string) error {
	ws, err := c.load(ctx, src)
	if err != nil {
		return err
	}
	defer ws.close()

	s := scene.New(ws.res, ws.cfg, geom.Size{W: defaultCols * cellW, H: defaultRows * cellH}, scene.Options{
		Logger:  c.Logger,
		Layouts: ws.layouts,
		OnGestureError: func(err error) {
			c.Logger.Debug("gesture ignored", "err", err)
		},
	})
	defer s.Close()

	m := newExploreModel(ctx, s, time.Now)
	if ws.profiles != nil {
		m.reload = func(ctx context.Context) ([]profile.Profile, error) { return c.loadProfiles(ctx, src) }
	}
	if err := s.Controller().FitToView(); err != nil {
		return err
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}

// frameMsg asks the model to repaint while the camera moves.
type frameMsg struct{}

// rebuiltMsg reports the end of a background reload.
type rebuiltMsg struct{ err error }

// exploreModel is the bubbletea model of the explore command. The scene is
// shared by pointer, so copies of the model observe the same camera.
type exploreModel struct {
	ctx    context.Context
	scene  *scene.Scene
	now    func() time.Time
	reload func(context.Context) ([]profile.Profile, error)

	cols, rows int
	ancestry   string
	status     string
}

func newExploreModel(ctx context.Context, s *scene.Scene, now func() time.Time) exploreModel {
	return exploreModel{ctx: ctx, scene: s, now: now, cols: defaultCols, rows: defaultRows}
}

func (m exploreModel) Init() tea.Cmd { return m.frame() }

func (m exploreModel) frame() tea.Cmd {
	return tea.Tick(exploreFrame, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m exploreModel) size() geom.Size {
	return geom.Size{W: float64(m.cols) * cellW, H: float64(m.rows) * cellH}
}

func (m exploreModel) center() geom.Point {
	sz := m.size()
	return geom.Pt(sz.W/2, sz.H/2)
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = max(msg.Width, 10)
		m.rows = max(msg.Height-2, 4)
		m.scene.SetViewport(m.size())
		return m, nil
	case frameMsg:
		if m.scene.Controller().Phase() != camera.PhaseIdle {
			return m, m.frame()
		}
		return m, nil
	case rebuiltMsg:
		if msg.err != nil {
			m.status = "reload failed: " + errors.UserMessage(msg.err)
		} else {
			m.status = "reloaded"
		}
		return m, nil
	case tea.KeyMsg:
		return m.key(msg.String())
	}
	return m, nil
}

func (m exploreModel) key(k string) (tea.Model, tea.Cmd) {
	var err error
	m.status = ""
	switch k {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h":
		err = m.nudge(geom.Pt(nudgeCells*cellW, 0))
	case "right", "l":
		err = m.nudge(geom.Pt(-nudgeCells*cellW, 0))
	case "up", "k":
		err = m.nudge(geom.Pt(0, nudgeCells*cellH))
	case "down", "j":
		err = m.nudge(geom.Pt(0, -nudgeCells*cellH))
	case "H":
		err = m.fling(geom.Pt(1, 0))
	case "L":
		err = m.fling(geom.Pt(-1, 0))
	case "K":
		err = m.fling(geom.Pt(0, 1))
	case "J":
		err = m.fling(geom.Pt(0, -1))
	case "+", "=":
		err = m.pinch(pinchStep)
	case "-", "_":
		err = m.pinch(1 / pinchStep)
	case "f":
		err = m.scene.Controller().FitToView()
	case "enter", " ":
		err = m.scene.Handle(camera.DoubleTap{At: m.center(), Time: m.now()})
	case "a":
		m.toggleAncestry()
	case "r":
		return m, m.rebuild()
	default:
		return m, nil
	}
	if err != nil {
		m.status = errors.UserMessage(err)
	}
	return m, m.frame()
}

// nudge animates the camera by d screen pixels.
func (m exploreModel) nudge(d geom.Point) error {
	ctrl := m.scene.Controller()
	cam := ctrl.Camera()
	cam.TranslateX += d.X
	cam.TranslateY += d.Y
	return ctrl.PanZoomTo(cam, ctrl.Env().Config.Camera.AnimationDuration/2)
}

// fling drags quickly across a quarter of the viewport in direction dir and
// lets go, leaving the camera to coast.
func (m exploreModel) fling(dir geom.Point) error {
	sz := m.size()
	at := m.center()
	t := m.now()
	step := geom.Pt(dir.X*sz.W/12, dir.Y*sz.H/12)
	events := []camera.Event{camera.PanStart{At: at, Time: t}}
	for i := 1; i <= 3; i++ {
		at = at.Add(step)
		events = append(events, camera.PanMove{At: at, Time: t.Add(time.Duration(i) * 8 * time.Millisecond)})
	}
	events = append(events, camera.PanEnd{Time: t.Add(24 * time.Millisecond)})
	return m.handleAll(events)
}

// pinch zooms by factor around the viewport center.
func (m exploreModel) pinch(factor float64) error {
	const d0 = 100.0
	at, t := m.center(), m.now()
	return m.handleAll([]camera.Event{
		camera.PinchStart{Focal: at, Distance: d0, Time: t},
		camera.PinchMove{Focal: at, Distance: d0 * factor, Time: t.Add(8 * time.Millisecond)},
		camera.PinchEnd{Time: t.Add(16 * time.Millisecond)},
	})
}

func (m exploreModel) handleAll(events []camera.Event) error {
	for _, ev := range events {
		if err := m.scene.Handle(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *exploreModel) toggleAncestry() {
	if m.ancestry != "" {
		m.scene.Highlights().RemoveGroup(m.ancestry)
		m.ancestry = ""
		return
	}
	n, ok := m.scene.HitTest(m.center())
	if !ok {
		m.status = "nobody at the center"
		return
	}
	group, err := m.scene.HighlightAncestry(n.ID, markStyle)
	if err != nil {
		m.status = errors.UserMessage(err)
		return
	}
	m.ancestry = group
	m.status = "ancestry of " + n.Label
}

// rebuild reloads the source in the background. The new layout is swapped
// in by the next frame.
func (m exploreModel) rebuild() tea.Cmd {
	if m.reload == nil {
		return func() tea.Msg {
			return rebuiltMsg{err: errors.New(errors.ErrCodeInvalidInput, "source is a precomputed layout")}
		}
	}
	ctx, s, reload := m.ctx, m.scene, m.reload
	return func() tea.Msg {
		profiles, err := reload(ctx)
		if err != nil {
			return rebuiltMsg{err: err}
		}
		return rebuiltMsg{err: <-s.RebuildAsync(ctx, profiles)}
	}
}

// =============================================================================
// Rendering
// =============================================================================

type cellStyle uint8

const (
	cellBlank cellStyle = iota
	cellLink
	cellCard
	cellDeceased
	cellSpouse
	cellMarked
	cellCluster
)

var cellStyles = [...]lipgloss.Style{
	cellBlank:    lipgloss.NewStyle(),
	cellLink:     lipgloss.NewStyle().Foreground(colorDim),
	cellCard:     lipgloss.NewStyle().Foreground(colorWhite),
	cellDeceased: lipgloss.NewStyle().Foreground(colorGray),
	cellSpouse:   lipgloss.NewStyle().Foreground(colorBlue),
	cellMarked:   lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	cellCluster:  lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
}

type cell struct {
	r rune
	s cellStyle
}

// grid is a character canvas of cols×rows cells.
type grid struct {
	cols, rows int
	cells      []cell
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range g.cells {
		g.cells[i] = cell{r: ' '}
	}
	return g
}

func (g *grid) set(x, y int, r rune, s cellStyle) {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return
	}
	g.cells[y*g.cols+x] = cell{r: r, s: s}
}

func (g *grid) blank(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.cols && y < g.rows && g.cells[y*g.cols+x].s == cellBlank
}

func (g *grid) text(x, y int, s string, st cellStyle) {
	for _, r := range s {
		g.set(x, y, r, st)
		x++
	}
}

// String renders each row as runs of equally styled cells.
func (g *grid) String() string {
	var b strings.Builder
	for y := 0; y < g.rows; y++ {
		row := g.cells[y*g.cols : (y+1)*g.cols]
		for start := 0; start < len(row); {
			end := start
			var run strings.Builder
			for end < len(row) && row[end].s == row[start].s {
				run.WriteRune(row[end].r)
				end++
			}
			b.WriteString(cellStyles[row[start].s].Render(run.String()))
			start = end
		}
		if y < g.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func toCell(p geom.Point) (int, int) {
	return int(p.X / cellW), int(p.Y / cellH)
}

func (m exploreModel) View() string {
	vs := m.scene.Frame()
	g := newGrid(m.cols, m.rows)

	marked := make(map[string]bool)
	for _, h := range vs.Highlights {
		if h.IsEdge() {
			marked[h.Edge().String()] = true
		} else {
			marked[h.NodeID] = true
		}
	}

	for _, set := range [][]connection.Path{vs.Connections, vs.Secondary} {
		for _, p := range set {
			st := cellLink
			if marked[p.Edge.String()] {
				st = cellMarked
			}
			drawCurve(g, p, st)
		}
	}
	for _, c := range vs.Clusters {
		x, y := toCell(c.Center)
		label := fmt.Sprintf("(%d)", c.Count)
		g.text(x-len(label)/2, y, label, cellCluster)
	}
	for _, n := range vs.Nodes {
		st := cellCard
		switch {
		case marked[n.ID]:
			st = cellMarked
		case n.Deceased:
			st = cellDeceased
		case n.Spouse:
			st = cellSpouse
		}
		drawCard(g, n, st)
	}

	return g.String() + "\n" + m.statusLine(vs)
}

func drawCurve(g *grid, p connection.Path, st cellStyle) {
	a, b := p.Curve.Eval(0), p.Curve.Eval(1)
	steps := max(4, int(a.Distance(b)/cellW)*2)
	for i := 0; i <= steps; i++ {
		x, y := toCell(p.Curve.Eval(float64(i) / float64(steps)))
		if g.blank(x, y) || st == cellMarked {
			g.set(x, y, '·', st)
		}
	}
}

func drawCard(g *grid, n scene.NodeView, st cellStyle) {
	x0, y0 := toCell(geom.Pt(n.Screen.MinX, n.Screen.MinY))
	x1, y1 := toCell(geom.Pt(n.Screen.MaxX, n.Screen.MaxY))
	w := x1 - x0
	if w < 3 {
		g.set((x0+x1)/2, (y0+y1)/2, '■', st)
		return
	}
	label := []rune(n.Label)
	if len(label) > w-2 {
		label = append(label[:max(w-3, 0)], '…')
	}
	if y1-y0 < 2 {
		g.text(x0, (y0+y1)/2, "["+string(label)+"]", st)
		return
	}
	for x := x0 + 1; x < x1; x++ {
		g.set(x, y0, '─', st)
		g.set(x, y1, '─', st)
	}
	for y := y0 + 1; y < y1; y++ {
		g.set(x0, y, '│', st)
		g.set(x1, y, '│', st)
		for x := x0 + 1; x < x1; x++ {
			g.set(x, y, ' ', st)
		}
	}
	g.set(x0, y0, '┌', st)
	g.set(x1, y0, '┐', st)
	g.set(x0, y1, '└', st)
	g.set(x1, y1, '┘', st)
	g.text(x0+1+(w-1-len(label))/2, (y0+y1)/2, string(label), st)
}

func (m exploreModel) statusLine(vs scene.VisibleSet) string {
	parts := []string{
		StyleTitle.Render(appName),
		vs.Tier.String(),
		fmt.Sprintf("×%.3f", vs.Camera.Scale),
		vs.Phase,
		fmt.Sprintf("%d people", len(vs.Nodes)),
	}
	if len(vs.Clusters) > 0 {
		parts = append(parts, fmt.Sprintf("%d clusters", len(vs.Clusters)))
	}
	if vs.Truncated {
		parts = append(parts, StyleWarning.Render("truncated"))
	}
	if n, ok := m.scene.HitTest(m.center()); ok {
		parts = append(parts, StyleHighlight.Render(n.Label))
	}
	if m.status != "" {
		parts = append(parts, StyleWarning.Render(m.status))
	}
	return strings.Join(parts, StyleDim.Render(" · ")) + "\n" +
		StyleDim.Render("arrows pan · HJKL fling · +/- zoom · enter focus · a ancestry · f fit · r reload · q quit")
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/camera"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/geom"
	"github.com/matzehuels/lineage/pkg/scene"
)

// maxPrintedNodes caps the node listing of the query command.
const maxPrintedNodes = 20

// viewFlags describe one camera over a layout.
type viewFlags struct {
	width, height float64
	// scale 0 fits the whole tree.
	scale            float64
	centerX, centerY float64
	centered         bool
	jsonOut          bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Float64Var(&f.width, "width", 1280, "viewport width in pixels")
	fl.Float64Var(&f.height, "height", 800, "viewport height in pixels")
	fl.Float64Var(&f.scale, "scale", 0, "camera scale (default: fit the whole tree)")
	fl.Float64Var(&f.centerX, "center-x", 0, "world x at the viewport center (default: tree center)")
	fl.Float64Var(&f.centerY, "center-y", 0, "world y at the viewport center (default: tree center)")
	fl.BoolVar(&f.jsonOut, "json", false, "print JSON")
	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		f.centered = cmd.Flags().Changed("center-x") || cmd.Flags().Changed("center-y")
	}
}

func (f *viewFlags) size() geom.Size { return geom.Size{W: f.width, H: f.height} }

// openScene builds a scene over ws and jumps the camera to the flags' view.
// The scene runs on a manual clock, so nothing animates behind the caller.
func (f *viewFlags) openScene(c *CLI, ws *workspace) (*scene.Scene, *camera.ManualScheduler, error) {
	if f.width <= 0 || f.height <= 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "viewport %gx%g must be positive", f.width, f.height)
	}
	sched := camera.NewManualScheduler(epoch)
	s := scene.New(ws.res, ws.cfg, f.size(), scene.Options{Logger: c.Logger, Scheduler: sched})

	env := s.Controller().Env()
	target := env.Fit()
	if f.scale > 0 {
		center := ws.res.Bounds.Center
		if f.centered {
			center = geom.Pt(f.centerX, f.centerY)
		}
		target = camera.FromCenter(center, f.scale, f.size())
	}
	if err := s.Controller().PanZoomTo(target, 0); err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, sched, nil
}

// queryCommand prints the visible set for one camera.
func (c *CLI) queryCommand() *cobra.Command {
	var (
		view     viewFlags
		ancestry string
	)

	cmd := &cobra.Command{
		Use:   "query <profiles>",
		Short: "Print the visible set for a camera",
		Long: `Run viewport culling and level-of-detail selection for one camera and
print what a painter would draw: the detail tier, the photo bucket, the
visible people or clusters and the connection curves.

The camera is given by --scale and --center-x/--center-y in world units.
Without --scale the whole tree is fitted into the viewport.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(cmd.Context(), args[0], &view, ancestry)
		},
	}
	view.register(cmd)
	cmd.Flags().StringVar(&ancestry, "ancestry", "", "highlight the ancestry path of this profile ID")
	return cmd
}

func (c *CLI) runQuery(ctx context.Context, src string, view *viewFlags, ancestry string) error {
	ws, err := c.load(ctx, src)
	if err != nil {
		return err
	}
	defer ws.close()

	s, _, err := view.openScene(c, ws)
	if err != nil {
		return err
	}
	defer s.Close()

	if ancestry != "" {
		if _, err := s.HighlightAncestry(ancestry, markStyle); err != nil {
			return err
		}
	}

	vs := s.Frame()
	if view.jsonOut {
		return printJSON(vs)
	}

	cam := vs.Camera
	printKeyValue("Tier", vs.Tier.String())
	printKeyValue("Scale", strconv.FormatFloat(cam.Scale, 'f', 4, 64))
	printKeyValue("Translate", fmt.Sprintf("%.1f, %.1f", cam.TranslateX, cam.TranslateY))
	if vs.Bucket > 0 {
		printKeyValue("Photos", fmt.Sprintf("%dpx", vs.Bucket))
	}
	printKeyValue("People", strconv.Itoa(len(vs.Nodes)))
	printKeyValue("Clusters", strconv.Itoa(len(vs.Clusters)))
	printKeyValue("Links", strconv.Itoa(len(vs.Connections)+len(vs.Secondary)))
	if len(vs.Highlights) > 0 {
		printKeyValue("Highlights", strconv.Itoa(len(vs.Highlights)))
	}
	if vs.Truncated {
		printWarning("visible set truncated at %d entries", ws.cfg.Spatial.MaxVisible)
	}
	if vs.Degraded {
		printWarning("layout degraded: input exceeded %d profiles", ws.cfg.Layout.MaxProfiles)
	}

	if len(vs.Nodes) > 0 {
		fmt.Fprintln(stdout, nodeTable(vs.Nodes))
		if n := len(vs.Nodes) - maxPrintedNodes; n > 0 {
			printDetail("... and %d more", n)
		}
	}
	return nil
}

// hitCommand reports the person under a screen point.
func (c *CLI) hitCommand() *cobra.Command {
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "hit <profiles> <x> <y>",
		Short: "Find the person under a screen point",
		Long: `Hit-test a screen point, in viewport pixels, against the layout under the
camera given by the view flags. Exits with an error when nothing is there.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "bad x %q", args[1])
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "bad y %q", args[2])
			}
			return c.runHit(cmd.Context(), args[0], &view, geom.Pt(x, y))
		},
	}
	view.register(cmd)
	return cmd
}

type hitResult struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	World geom.Point `json:"world"`
}

func (c *CLI) runHit(ctx context.Context, src string, view *viewFlags, pt geom.Point) error {
	ws, err := c.load(ctx, src)
	if err != nil {
		return err
	}
	defer ws.close()

	s, _, err := view.openScene(c, ws)
	if err != nil {
		return err
	}
	defer s.Close()

	n, ok := s.HitTest(pt)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "no person at (%g, %g)", pt.X, pt.Y)
	}
	if view.jsonOut {
		return printJSON(hitResult{ID: n.ID, Label: n.Label, World: n.Center()})
	}
	printSuccess("%s %s", StyleHighlight.Render(n.ID), n.Label)
	printDetail("world (%.1f, %.1f)", n.X, n.Y)
	return nil
}

// nodeTable lists the first maxPrintedNodes visible people.
func nodeTable(nodes []scene.NodeView) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, min(len(nodes), maxPrintedNodes))
	for _, n := range nodes[:min(len(nodes), maxPrintedNodes)] {
		status := ""
		switch {
		case n.Deceased:
			status = "deceased"
		case n.Spouse:
			status = "spouse"
		}
		rows = append(rows, []string{n.ID, n.Label, fmt.Sprintf("%.0f", n.Screen.MinX), fmt.Sprintf("%.0f", n.Screen.MinY), status})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "X", "Y", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		}).
		String()
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/highlight"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/render/nodelink"
	"github.com/matzehuels/lineage/pkg/render/snapshot"
)

// markStyle is the outline used for --ancestry in exports.
var markStyle = highlight.Style{Color: "#e4572e", Width: 3}

// dotCommand exports the tree as a Graphviz diagram.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		output   string
		ancestry string
		scale    float64
		opts     nodelink.Options
	)

	cmd := &cobra.Command{
		Use:   "dot <profiles>",
		Short: "Export the tree as a Graphviz diagram",
		Long: `Export the spanning tree as a Graphviz node-link diagram.

The format follows the extension of --output: .dot writes DOT source, .svg
renders with the embedded Graphviz, and .pdf or .png convert the SVG with
rsvg-convert. Without --output the DOT source is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDOT(cmd.Context(), args[0], output, ancestry, scale, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file: .dot, .svg, .pdf or .png")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include generation and depth in labels")
	cmd.Flags().BoolVar(&opts.Secondary, "secondary", false, "draw links outside the spanning tree")
	cmd.Flags().StringVar(&ancestry, "ancestry", "", "outline the ancestry of this profile ID")
	cmd.Flags().Float64Var(&scale, "png-scale", 2, "resolution multiplier for .png output")
	return cmd
}

func (c *CLI) runDOT(ctx context.Context, src, output, ancestry string, scale float64, opts nodelink.Options) error {
	ws, err := c.load(ctx, src)
	if err != nil {
		return err
	}
	defer ws.close()

	if ancestry != "" {
		ids, edges, err := ancestryPath(ws.res, ancestry)
		if err != nil {
			return err
		}
		opts.Highlight = ids
		opts.HighlightEdges = edges
	}

	dot := nodelink.ToDOT(ws.res, opts)
	if output == "" {
		_, err := stdout.Write([]byte(dot))
		return err
	}

	var data []byte
	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".dot", ".gv":
		data = []byte(dot)
	case ".svg":
		data, err = nodelink.RenderSVG(ctx, dot)
	case ".pdf":
		data, err = nodelink.RenderPDF(ctx, dot)
	case ".png":
		data, err = nodelink.RenderPNG(ctx, dot, scale)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported output format %q (want .dot, .svg, .pdf or .png)", ext)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}

	printSuccess("Diagram written")
	printFile(output)
	return nil
}

// ancestryPath returns the people on the ancestry path of id, starting with
// id itself, and the links between them.
func ancestryPath(res *layout.Result, id string) ([]string, []layout.Edge, error) {
	if _, ok := res.Node(id); !ok {
		return nil, nil, errors.New(errors.ErrCodeNotFound, "node %q not found", id)
	}
	_, entries := highlight.AncestryPath(res.Lineage(), id, markStyle)
	ids := []string{id}
	edges := make([]layout.Edge, 0, len(entries))
	for _, e := range entries {
		if e.IsEdge() {
			edges = append(edges, e.Edge())
			ids = append(ids, e.Source)
		}
	}
	return ids, edges, nil
}

// snapshotCommand paints one frame to PNG.
func (c *CLI) snapshotCommand() *cobra.Command {
	var (
		view     viewFlags
		output   string
		ancestry string
	)

	cmd := &cobra.Command{
		Use:   "snapshot <profiles>",
		Short: "Paint the visible set for a camera as PNG",
		Long: `Paint what the canvas shows for one camera: cards, clusters, connection
curves and highlights, at the level of detail the camera's scale selects.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshot(cmd.Context(), args[0], &view, output, ancestry)
		},
	}
	view.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.png)")
	cmd.Flags().StringVar(&ancestry, "ancestry", "", "highlight the ancestry of this profile ID")
	return cmd
}

func (c *CLI) runSnapshot(ctx context.Context, src string, view *viewFlags, output, ancestry string) error {
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
	if output == "" {
		output = defaultOutput(src, ".png")
	}

	vs := s.Frame()
	if err := snapshot.WriteFile(output, vs, snapshot.Options{Width: int(view.width), Height: int(view.height)}); err != nil {
		return err
	}
	printSuccess("Snapshot written")
	printFile(output)
	printDetail("%s · %d people · %d clusters", vs.Tier, len(vs.Nodes), len(vs.Clusters))
	return nil
}

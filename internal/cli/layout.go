package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/layout"
)

// layoutCommand creates the layout command for computing tree layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "layout <profiles>",
		Short: "Compute a tidy-tree layout and write it as JSON",
		Long: `Compute a tidy-tree layout from a profile set.

The output is a versioned layout document with one positioned record per
person, the spanning-tree edges and the cross links left out of it. Other
commands accept the document in place of a profile source, which skips the
layout pass entirely.

Layouts are cached by profile content and layout settings, so running the
command again on unchanged input is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>"+layoutSuffix+")")
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, src, output string) error {
	ws, err := c.load(ctx, src)
	if err != nil {
		return err
	}
	defer ws.close()

	if output == "" {
		output = defaultOutput(src, layoutSuffix)
	}
	if err := layout.WriteFile(ws.res, output); err != nil {
		return fmt.Errorf("write layout %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(ws.res, ws.cached)
	printWarnings(ws.res.Warnings)
	printNextStep("Explore", appName+" explore "+output)
	return nil
}

// defaultOutput derives an output path next to src. Sources that are not
// files, such as mongodb:// URIs, get a name in the working directory.
func defaultOutput(src, suffix string) string {
	if isMongoURI(src) {
		return "profiles" + suffix
	}
	base := strings.TrimSuffix(src, layoutSuffix)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + suffix
}

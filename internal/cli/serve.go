package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/internal/server"
	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/metrics"
)

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve <profiles>",
		Short: "Serve layouts and camera views over HTTP",
		Long: `Serve the layout and per-client camera views over HTTP.

Each view owns a camera and a highlight overlay. Clients post gesture
records to a view and fetch its visible set as JSON or as a PNG snapshot.
PUT /profiles replaces the profile set; open views rebuild in the
background and swap the new layout in on their next frame.

Closed views keep their camera in the cache selected by --cache, so a view
reopened with the same ID resumes where it left off. Prometheus metrics are
served on /metrics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], addr, !noMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, src, addr string, withMetrics bool) error {
	if isLayoutFile(src) {
		return errors.New(errors.ErrCodeInvalidInput, "serve needs a profile source, not a precomputed layout")
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	profiles, err := c.loadProfiles(ctx, src)
	if err != nil {
		return err
	}

	store, err := c.openCache(ctx)
	if err != nil {
		c.Logger.Warn("cache unavailable, views will not persist", "backend", c.cacheKind, "err", err)
		store = cache.NewNullCache()
	}
	defer store.Close()

	keyer := cache.NewDefaultKeyer()
	opts := server.Options{
		Config:  cfg,
		Logger:  c.Logger,
		Layouts: cache.NewLayoutStore(store, keyer, cache.DefaultLayoutTTL),
		Views:   store,
		Keyer:   keyer,
	}
	if withMetrics {
		reg := metrics.NewRegistry()
		reg.Install()
		opts.Metrics = reg
	}

	srv, err := server.New(ctx, profiles, opts)
	if err != nil {
		return err
	}
	printSuccess("Serving %d people", len(profiles))
	printKeyValue("Address", StyleLink.Render("http://"+addr))
	if withMetrics {
		printKeyValue("Metrics", StyleLink.Render("http://"+addr+"/metrics"))
	}

	err = srv.ListenAndServe(ctx, addr)
	if ctx.Err() != nil {
		printInfo("Shut down")
		return nil
	}
	return err
}

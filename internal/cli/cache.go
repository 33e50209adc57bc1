package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and view cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove cached layouts and saved view cameras",
		Long: `Remove every entry of the backend selected by --cache. For redis only
keys under --redis-prefix are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheClear(cmd.Context())
		},
	}
}

func (c *CLI) runCacheClear(ctx context.Context) error {
	store, err := c.openCache(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		return err
	}
	printSuccess("Cache cleared")
	switch s := store.(type) {
	case *cache.FileCache:
		printDetail("Directory: %s", s.Dir())
	case *cache.RedisCache:
		printDetail("Redis: %s, prefix %q", c.redis.Addr, c.redis.Prefix)
	}
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.cacheDir
			if dir == "" {
				d, err := cache.DefaultDir()
				if err != nil {
					return err
				}
				dir = d
			}
			_, err := stdout.Write([]byte(dir + "\n"))
			return err
		},
	}
}

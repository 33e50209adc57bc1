// Package cli implements the lineage command-line interface.
//
// The commands drive the geometry core offline: compute and cache layouts,
// query visible sets for a given camera, replay gesture scripts, export
// diagrams and snapshots, explore a tree in the terminal, and serve the
// HTTP API. The CLI is built using cobra and logs via charmbracelet/log.
//
// # Commands
//
//   - layout: Compute a layout and write it as JSON
//   - query, hit: Culling and hit-testing for one camera
//   - simulate: Replay a gesture script against the camera state machine
//   - explore: Interactive terminal canvas
//   - dot, snapshot: Graphviz and PNG exports
//   - serve: HTTP API with Prometheus metrics
//   - generate: Synthetic profile sets
//   - cache: Manage the layout cache
//
// # Profile sources
//
// Commands that take <profiles> accept a JSON or YAML file, a mongodb://
// URI together with --mongo-db and --mongo-collection, or a precomputed
// *.layout.json written by the layout command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/buildinfo"
	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/profile"
	"github.com/matzehuels/lineage/pkg/profile/mongosrc"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "lineage"

	// maxPrintedWarnings caps warning lines in command output.
	maxPrintedWarnings = 10
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Cache backends selectable with --cache.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cacheKind  string
	cacheDir   string
	redis      cache.RedisConfig
	mongo      mongosrc.Options
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Lineage lays out and navigates large family trees",
		Long:         `Lineage is the geometry core of a genealogy canvas: tidy-tree layout, viewport culling, level of detail and touch camera physics for trees of up to 10,000 people.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "TOML config file (default: built-in defaults)")
	pf.StringVar(&c.cacheKind, "cache", cacheFile, "layout cache: file, redis, none")
	pf.StringVar(&c.cacheDir, "cache-dir", "", "file cache directory (default: user cache dir)")
	pf.StringVar(&c.redis.Addr, "redis-addr", "localhost:6379", "redis address for --cache=redis")
	pf.StringVar(&c.redis.Prefix, "redis-prefix", appName+":", "redis key prefix")
	pf.IntVar(&c.redis.DB, "redis-db", 0, "redis database")
	pf.StringVar(&c.mongo.Database, "mongo-db", appName, "database for mongodb:// sources")
	pf.StringVar(&c.mongo.Collection, "mongo-collection", "profiles", "collection for mongodb:// sources")
	pf.StringVar(&c.mongo.TreeID, "tree", "", "tree_id filter for mongodb:// sources")
	c.redis.Password = os.Getenv("LINEAGE_REDIS_PASSWORD")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.hitCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Loading
// =============================================================================

// loadConfig reads --config, or the defaults. Clamped values are logged.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.configPath == "" {
		return config.MustDefault(), nil
	}
	cfg, warnings, err := config.LoadFile(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	for _, w := range warnings {
		c.Logger.Warn(errors.UserMessage(w), "code", errors.GetCode(w))
	}
	return cfg, nil
}

// openCache returns the backend selected by --cache.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	switch c.cacheKind {
	case cacheNone:
		return cache.NewNullCache(), nil
	case cacheRedis:
		return cache.NewRedisCache(ctx, c.redis)
	case cacheFile, "":
		dir := c.cacheDir
		if dir == "" {
			d, err := cache.DefaultDir()
			if err != nil {
				c.Logger.Warn("no user cache dir, caching disabled", "err", err)
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.cacheKind)
	}
}

// layoutSuffix marks files written by the layout command.
const layoutSuffix = ".layout.json"

func isLayoutFile(src string) bool { return strings.HasSuffix(src, layoutSuffix) }

func isMongoURI(src string) bool {
	return strings.HasPrefix(src, "mongodb://") || strings.HasPrefix(src, "mongodb+srv://")
}

// loadProfiles reads profiles from a file or a mongodb:// URI.
func (c *CLI) loadProfiles(ctx context.Context, src string) ([]profile.Profile, error) {
	if !isMongoURI(src) {
		return profile.FileSource{Path: src}.Profiles(ctx)
	}
	opts := c.mongo
	opts.URI = src
	s, err := mongosrc.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer s.Close(context.WithoutCancel(ctx))
	return s.Profiles(ctx)
}

// workspace is everything a command needs after loading its inputs.
type workspace struct {
	cfg config.Config
	// profiles is nil when the source was a precomputed layout.
	profiles []profile.Profile
	res      *layout.Result
	layouts  *cache.LayoutStore
	cached   bool
	close    func()
}

// load reads config and profiles and computes the layout through the cache.
// The caller must call ws.close.
func (c *CLI) load(ctx context.Context, src string) (*workspace, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if isLayoutFile(src) {
		res, err := layout.ReadFile(src)
		if err != nil {
			return nil, err
		}
		return &workspace{cfg: cfg, res: res, cached: true, close: func() {}}, nil
	}

	prog := newProgress(c.Logger)
	profiles, err := c.loadProfiles(ctx, src)
	if err != nil {
		return nil, err
	}
	prog.done("Loaded profiles", "count", len(profiles), "source", src)

	store, err := c.openCache(ctx)
	if err != nil {
		c.Logger.Warn("layout cache unavailable", "backend", c.cacheKind, "err", err)
		store = cache.NewNullCache()
	}
	layouts := cache.NewLayoutStore(store, cache.NewDefaultKeyer(), cache.DefaultLayoutTTL)

	prog = newProgress(c.Logger)
	spin := newSpinner(ctx, fmt.Sprintf("Looking up layout for %d profiles...", len(profiles)))
	spin.Start()
	res, hit, err := layouts.Compute(ctx, profiles, cfg, layout.Options{Logger: c.Logger, Hooks: spin})
	spin.Stop()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	prog.done("Layout ready", "nodes", res.Len(), "cached", hit, "status", spin.Message())

	return &workspace{
		cfg:      cfg,
		profiles: profiles,
		res:      res,
		layouts:  layouts,
		cached:   hit,
		close:    func() { _ = store.Close() },
	}, nil
}

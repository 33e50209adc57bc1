package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/snappy"

	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/profile"
)

// DefaultLayoutTTL bounds how long a cached layout is reused.
const DefaultLayoutTTL = 7 * 24 * time.Hour

// EncodeLayout serializes a layout as a snappy-compressed JSON document.
func EncodeLayout(res *layout.Result) ([]byte, error) {
	data, err := layout.Marshal(res)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, data), nil
}

// DecodeLayout reverses [EncodeLayout].
func DecodeLayout(blob []byte) (*layout.Result, error) {
	data, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, fmt.Errorf("decompress layout: %w", err)
	}
	return layout.Unmarshal(data)
}

// LayoutKeyOptsFrom extracts the layout-relevant settings of cfg.
func LayoutKeyOptsFrom(cfg config.Layout) LayoutKeyOpts {
	return LayoutKeyOpts{
		Orientation:   string(cfg.Orientation),
		CardWidth:     cfg.CardWidth,
		CardHeight:    cfg.CardHeight,
		SiblingGap:    cfg.SiblingGap,
		GenerationGap: cfg.GenerationGap,
		RootGap:       cfg.RootGap,
		SpouseGap:     cfg.SpouseGap,
		MaxProfiles:   cfg.MaxProfiles,
	}
}

// LayoutStore caches layout results by profile hash and layout settings.
type LayoutStore struct {
	cache Cache
	keyer Keyer
	ttl   time.Duration
}

// NewLayoutStore wraps c. A nil keyer uses [DefaultKeyer]; a zero ttl uses
// [DefaultLayoutTTL].
func NewLayoutStore(c Cache, keyer Keyer, ttl time.Duration) *LayoutStore {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = DefaultLayoutTTL
	}
	return &LayoutStore{cache: c, keyer: keyer, ttl: ttl}
}

// Key returns the cache key for profiles under cfg.
func (s *LayoutStore) Key(profiles []profile.Profile, cfg config.Config) string {
	return s.keyer.LayoutKey(HashProfiles(profiles), LayoutKeyOptsFrom(cfg.Layout))
}

// Get returns the cached layout for key. Undecodable entries are dropped and
// reported as misses.
func (s *LayoutStore) Get(ctx context.Context, key string) (*layout.Result, bool, error) {
	blob, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, false, nil
	}
	res, err := DecodeLayout(blob)
	if err != nil {
		_ = s.cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, false, nil
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return res, true, nil
}

// Put stores res under key.
func (s *LayoutStore) Put(ctx context.Context, key string, res *layout.Result) error {
	blob, err := EncodeLayout(res)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, key, blob, s.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "layout", len(blob))
	return nil
}

// Compute returns the cached layout of profiles or computes and stores it.
// The second result reports a cache hit. Cache failures never fail the
// layout; they are logged through opts.Logger.
func (s *LayoutStore) Compute(ctx context.Context, profiles []profile.Profile, cfg config.Config, opts layout.Options) (*layout.Result, bool, error) {
	key := s.Key(profiles, cfg)
	if res, ok, err := s.Get(ctx, key); err == nil && ok {
		return res, true, nil
	} else if err != nil && opts.Logger != nil {
		opts.Logger.Warn("layout cache read failed", "err", err)
	}
	res, err := layout.Compute(ctx, profiles, cfg, opts)
	if err != nil {
		return nil, false, err
	}
	if err := s.Put(ctx, key, res); err != nil && opts.Logger != nil {
		opts.Logger.Warn("layout cache write failed", "err", err)
	}
	return res, false, nil
}

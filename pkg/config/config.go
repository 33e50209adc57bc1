// Package config defines the single immutable configuration shared by every
// stage of the canvas core: layout spacing, zoom range, culling, level of
// detail, camera physics and connection geometry.
//
// Every field has a documented default and range. Out-of-range values are
// clamped, never rejected; each clamp is reported as an
// OUT_OF_BOUNDS_CONFIG warning so hosts can log it. Build a configuration
// with [Default], adjust fields, and pass it through [New] once:
//
//	cfg, warnings := config.New(config.Default())
//
// Configurations can also be loaded from TOML with [LoadFile]; keys missing
// from the file keep their defaults.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lineage/pkg/errors"
)

// Orientation selects the layout axis.
type Orientation string

const (
	// Vertical places generations top to bottom, siblings left to right.
	Vertical Orientation = "vertical"
	// Horizontal places generations left to right, siblings top to bottom.
	Horizontal Orientation = "horizontal"
)

// Config is the complete configuration. Treat it as immutable after [New].
type Config struct {
	Layout     Layout     `toml:"layout" json:"layout"`
	Zoom       Zoom       `toml:"zoom" json:"zoom"`
	Spatial    Spatial    `toml:"spatial" json:"spatial"`
	LOD        LOD        `toml:"lod" json:"lod"`
	Camera     Camera     `toml:"camera" json:"camera"`
	Connection Connection `toml:"connection" json:"connection"`
}

// Layout controls node sizes and spacing. All lengths are world units.
type Layout struct {
	// Orientation of the generation axis. Default vertical.
	Orientation Orientation `toml:"orientation" json:"orientation"`
	// CardWidth is the node width. Default 160, range [40, 1000].
	CardWidth float64 `toml:"card_width" json:"card_width"`
	// CardHeight is the node height. Default 80, range [20, 1000].
	CardHeight float64 `toml:"card_height" json:"card_height"`
	// SiblingGap separates adjacent subtrees. Default 40, range [8, 400].
	SiblingGap float64 `toml:"sibling_gap" json:"sibling_gap"`
	// GenerationGap separates generations. Default 120, range [24, 800].
	GenerationGap float64 `toml:"generation_gap" json:"generation_gap"`
	// RootGap separates independent root trees. Default 80, range [8, 1000].
	RootGap float64 `toml:"root_gap" json:"root_gap"`
	// SpouseGap separates a node from its married-in partners. Default 16, range [0, 200].
	SpouseGap float64 `toml:"spouse_gap" json:"spouse_gap"`
	// MaxProfiles is the hard capacity cap. Default 10000, range [1, 1000000].
	MaxProfiles int `toml:"max_profiles" json:"max_profiles"`
}

// Zoom bounds the camera scale.
type Zoom struct {
	// Min scale. Default 0.05, range [0.01, 1].
	Min float64 `toml:"min" json:"min"`
	// Max scale. Default 4, range [1, 32].
	Max float64 `toml:"max" json:"max"`
	// Focus is the scale used by focus-on-node navigation. Default 1, clamped into [Min, Max].
	Focus float64 `toml:"focus" json:"focus"`
}

// Spatial controls the culling grid.
type Spatial struct {
	// CellSize of the uniform grid. Default 200, range [25, 5000].
	CellSize float64 `toml:"cell_size" json:"cell_size"`
	// QueryMargin expands every viewport query, in world units. Default 400, range [0, 10000].
	QueryMargin float64 `toml:"query_margin" json:"query_margin"`
	// MaxVisible caps the visible node, cluster and curve count. Default 1500, range [50, 20000].
	MaxVisible int `toml:"max_visible" json:"max_visible"`
	// HitSlop extends hit tests around cards, in screen pixels. Default 8, range [0, 64].
	HitSlop float64 `toml:"hit_slop" json:"hit_slop"`
}

// LOD controls detail tiers and image buckets.
type LOD struct {
	// TierT1 is the scale at or above which full detail is shown. Default 0.48, range [0.01, 10].
	TierT1 float64 `toml:"tier_t1" json:"tier_t1"`
	// TierT2 is the scale at or above which label pills are shown. Default 0.15, range [0.01, 10].
	TierT2 float64 `toml:"tier_t2" json:"tier_t2"`
	// Hysteresis is the relative dead band around tier thresholds. Default 0.15, range [0, 0.5].
	Hysteresis float64 `toml:"hysteresis" json:"hysteresis"`
	// ImageBuckets are the available photo resolutions in pixels, ascending. Default 64..1024.
	ImageBuckets []int `toml:"image_buckets" json:"image_buckets"`
	// BucketHysteresis is the relative dead band for bucket downgrades. Default 0.15, range [0, 0.5].
	BucketHysteresis float64 `toml:"bucket_hysteresis" json:"bucket_hysteresis"`
	// PixelRatio of the host display. Default 2, range [0.5, 4].
	PixelRatio float64 `toml:"pixel_ratio" json:"pixel_ratio"`
	// PhotoSize is the photo edge length at scale 1, in world units. Default 64, range [8, 1024].
	PhotoSize float64 `toml:"photo_size" json:"photo_size"`
}

// Camera controls gesture physics and animations.
type Camera struct {
	// DecayRate is the exponential momentum decay per second. Default 4, range [0.5, 30].
	DecayRate float64 `toml:"decay_rate" json:"decay_rate"`
	// MinVelocity below which momentum stops, in px/s. Default 8, range [0.1, 500].
	MinVelocity float64 `toml:"min_velocity" json:"min_velocity"`
	// RubberBand is the overshoot resistance coefficient. Default 0.55, range [0.05, 1].
	RubberBand float64 `toml:"rubber_band" json:"rubber_band"`
	// SpringStiffness pulls overshoot back to the bound, per s². Default 170, range [10, 2000].
	SpringStiffness float64 `toml:"spring_stiffness" json:"spring_stiffness"`
	// SpringDamping damps the spring-back, per s. Default 26, range [1, 200].
	SpringDamping float64 `toml:"spring_damping" json:"spring_damping"`
	// BoundsPadding lets content be panned this far past its edge, in screen pixels. Default 80, range [0, 2000].
	BoundsPadding float64 `toml:"bounds_padding" json:"bounds_padding"`
	// AnimationDuration of programmatic navigation. Default 350ms, range [50ms, 5s].
	AnimationDuration time.Duration `toml:"animation_duration" json:"animation_duration"`
	// Easing curve name. Default "in-out-cubic".
	Easing string `toml:"easing" json:"easing"`
	// TickInterval is the frame step used by scheduled camera work. Default 16ms, range [4ms, 100ms].
	TickInterval time.Duration `toml:"tick_interval" json:"tick_interval"`
	// VelocityWindow is how much pan history feeds the release velocity. Default 100ms, range [16ms, 500ms].
	VelocityWindow time.Duration `toml:"velocity_window" json:"velocity_window"`
	// MaxVelocity caps the release velocity, in px/s. Default 6000, range [100, 50000].
	MaxVelocity float64 `toml:"max_velocity" json:"max_velocity"`
}

// Connection controls parent-child curves.
type Connection struct {
	// Tension places the S-curve control points along the axis. Default 0.5, range [0, 1].
	Tension float64 `toml:"tension" json:"tension"`
	// FanSpread is the parent-side control point spread per sibling, in screen pixels at scale 1. Default 18, range [0, 200].
	FanSpread float64 `toml:"fan_spread" json:"fan_spread"`
}

// Easing curve names accepted by [Camera.Easing].
var Easings = []string{"linear", "in-out-quad", "in-out-cubic", "out-cubic", "out-quint", "out-expo", "in-out-sine"}

// DefaultImageBuckets is the default photo resolution ladder.
var DefaultImageBuckets = []int{64, 128, 256, 512, 1024}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Layout: Layout{
			Orientation:   Vertical,
			CardWidth:     160,
			CardHeight:    80,
			SiblingGap:    40,
			GenerationGap: 120,
			RootGap:       80,
			SpouseGap:     16,
			MaxProfiles:   10000,
		},
		Zoom: Zoom{Min: 0.05, Max: 4, Focus: 1},
		Spatial: Spatial{
			CellSize:    200,
			QueryMargin: 400,
			MaxVisible:  1500,
			HitSlop:     8,
		},
		LOD: LOD{
			TierT1:           0.48,
			TierT2:           0.15,
			Hysteresis:       0.15,
			ImageBuckets:     slices.Clone(DefaultImageBuckets),
			BucketHysteresis: 0.15,
			PixelRatio:       2,
			PhotoSize:        64,
		},
		Camera: Camera{
			DecayRate:         4,
			MinVelocity:       8,
			RubberBand:        0.55,
			SpringStiffness:   170,
			SpringDamping:     26,
			BoundsPadding:     80,
			AnimationDuration: 350 * time.Millisecond,
			Easing:            "in-out-cubic",
			TickInterval:      16 * time.Millisecond,
			VelocityWindow:    100 * time.Millisecond,
			MaxVelocity:       6000,
		},
		Connection: Connection{Tension: 0.5, FanSpread: 18},
	}
}

// New clamps c into its documented ranges and returns the result along with
// one OUT_OF_BOUNDS_CONFIG warning per adjusted field.
func New(c Config) (Config, errors.Warnings) {
	var w errors.Warnings
	out := c
	out.LOD.ImageBuckets = slices.Clone(c.LOD.ImageBuckets)

	switch out.Layout.Orientation {
	case Vertical, Horizontal:
	default:
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "layout.orientation %q unknown, using %q", out.Layout.Orientation, Vertical))
		out.Layout.Orientation = Vertical
	}
	clampF(&w, "layout.card_width", &out.Layout.CardWidth, 40, 1000)
	clampF(&w, "layout.card_height", &out.Layout.CardHeight, 20, 1000)
	clampF(&w, "layout.sibling_gap", &out.Layout.SiblingGap, 8, 400)
	clampF(&w, "layout.generation_gap", &out.Layout.GenerationGap, 24, 800)
	clampF(&w, "layout.root_gap", &out.Layout.RootGap, 8, 1000)
	clampF(&w, "layout.spouse_gap", &out.Layout.SpouseGap, 0, 200)
	clampI(&w, "layout.max_profiles", &out.Layout.MaxProfiles, 1, 1_000_000)

	clampF(&w, "zoom.min", &out.Zoom.Min, 0.01, 1)
	clampF(&w, "zoom.max", &out.Zoom.Max, 1, 32)
	clampF(&w, "zoom.focus", &out.Zoom.Focus, out.Zoom.Min, out.Zoom.Max)

	clampF(&w, "spatial.cell_size", &out.Spatial.CellSize, 25, 5000)
	clampF(&w, "spatial.query_margin", &out.Spatial.QueryMargin, 0, 10000)
	clampI(&w, "spatial.max_visible", &out.Spatial.MaxVisible, 50, 20000)
	clampF(&w, "spatial.hit_slop", &out.Spatial.HitSlop, 0, 64)

	clampF(&w, "lod.tier_t1", &out.LOD.TierT1, 0.01, 10)
	clampF(&w, "lod.tier_t2", &out.LOD.TierT2, 0.01, 10)
	if out.LOD.TierT2 > out.LOD.TierT1 {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "lod.tier_t2 %.3f above lod.tier_t1 %.3f, swapped", out.LOD.TierT2, out.LOD.TierT1))
		out.LOD.TierT1, out.LOD.TierT2 = out.LOD.TierT2, out.LOD.TierT1
	}
	clampF(&w, "lod.hysteresis", &out.LOD.Hysteresis, 0, 0.5)
	clampF(&w, "lod.bucket_hysteresis", &out.LOD.BucketHysteresis, 0, 0.5)
	clampF(&w, "lod.pixel_ratio", &out.LOD.PixelRatio, 0.5, 4)
	clampF(&w, "lod.photo_size", &out.LOD.PhotoSize, 8, 1024)
	out.LOD.ImageBuckets = normalizeBuckets(&w, out.LOD.ImageBuckets)

	clampF(&w, "camera.decay_rate", &out.Camera.DecayRate, 0.5, 30)
	clampF(&w, "camera.min_velocity", &out.Camera.MinVelocity, 0.1, 500)
	clampF(&w, "camera.rubber_band", &out.Camera.RubberBand, 0.05, 1)
	clampF(&w, "camera.spring_stiffness", &out.Camera.SpringStiffness, 10, 2000)
	clampF(&w, "camera.spring_damping", &out.Camera.SpringDamping, 1, 200)
	clampF(&w, "camera.bounds_padding", &out.Camera.BoundsPadding, 0, 2000)
	clampD(&w, "camera.animation_duration", &out.Camera.AnimationDuration, 50*time.Millisecond, 5*time.Second)
	clampD(&w, "camera.tick_interval", &out.Camera.TickInterval, 4*time.Millisecond, 100*time.Millisecond)
	clampD(&w, "camera.velocity_window", &out.Camera.VelocityWindow, 16*time.Millisecond, 500*time.Millisecond)
	clampF(&w, "camera.max_velocity", &out.Camera.MaxVelocity, 100, 50000)
	if !slices.Contains(Easings, out.Camera.Easing) {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "camera.easing %q unknown, using in-out-cubic", out.Camera.Easing))
		out.Camera.Easing = "in-out-cubic"
	}

	clampF(&w, "connection.tension", &out.Connection.Tension, 0, 1)
	clampF(&w, "connection.fan_spread", &out.Connection.FanSpread, 0, 200)

	return out, w
}

// MustDefault returns the clamped defaults. The defaults never produce
// warnings, so the result is identical to [Default].
func MustDefault() Config {
	c, _ := New(Default())
	return c
}

// LoadFile decodes a TOML file on top of [Default] and clamps the result.
// Unknown keys are reported as warnings rather than errors.
func LoadFile(path string) (Config, errors.Warnings, error) {
	c := Default()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	out, w := New(c)
	for _, key := range md.Undecoded() {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "unknown config key %q ignored", key.String()))
	}
	return out, w, nil
}

// Encode writes c as TOML, for `lineage config` and tests.
func Encode(c Config) (string, error) {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ClampScale limits scale to the configured zoom range.
func (z Zoom) ClampScale(scale float64) float64 {
	if scale != scale { // NaN
		return z.Min
	}
	if scale < z.Min {
		return z.Min
	}
	if scale > z.Max {
		return z.Max
	}
	return scale
}

func clampF(w *errors.Warnings, name string, v *float64, lo, hi float64) {
	if *v != *v {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "%s is NaN, clamped to %g", name, lo))
		*v = lo
		return
	}
	if *v < lo {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "%s %g below %g, clamped", name, *v, lo))
		*v = lo
	} else if *v > hi {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "%s %g above %g, clamped", name, *v, hi))
		*v = hi
	}
}

func clampI(w *errors.Warnings, name string, v *int, lo, hi int) {
	if *v < lo {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "%s %d below %d, clamped", name, *v, lo))
		*v = lo
	} else if *v > hi {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "%s %d above %d, clamped", name, *v, hi))
		*v = hi
	}
}

func clampD(w *errors.Warnings, name string, v *time.Duration, lo, hi time.Duration) {
	if *v < lo {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "%s %s below %s, clamped", name, *v, lo))
		*v = lo
	} else if *v > hi {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "%s %s above %s, clamped", name, *v, hi))
		*v = hi
	}
}

// normalizeBuckets sorts, deduplicates and bounds the bucket ladder to
// [16, 8192]. An empty ladder falls back to the defaults.
func normalizeBuckets(w *errors.Warnings, in []int) []int {
	if len(in) == 0 {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "lod.image_buckets empty, using defaults"))
		return slices.Clone(DefaultImageBuckets)
	}
	out := make([]int, 0, len(in))
	for _, b := range in {
		c := b
		clampI(w, "lod.image_buckets", &c, 16, 8192)
		out = append(out, c)
	}
	if !slices.IsSorted(out) {
		w.Add(errors.New(errors.ErrCodeOutOfBoundsConfig, "lod.image_buckets not ascending, sorted"))
		slices.Sort(out)
	}
	return slices.Compact(out)
}

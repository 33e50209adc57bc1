// Package lod selects a detail tier and a photo resolution for a camera
// scale.
//
// Both selections are threshold functions over scale with a hysteresis band.
// Once a tier or bucket is chosen it only switches back after the scale
// crosses the opposite threshold by the configured margin, so a camera
// resting near a boundary does not flicker between representations.
//
// The package-level functions are pure. [Selector] and [BucketSelector] wrap
// them with the previous value for callers that render frame after frame.
package lod

import (
	"github.com/matzehuels/lineage/pkg/config"
	"github.com/matzehuels/lineage/pkg/errors"
)

// Tier is a level of detail. Lower values carry more detail.
type Tier int

const (
	// TierNone is the zero value; the first selection ignores hysteresis.
	TierNone Tier = iota
	// T1 shows full cards with photos.
	T1
	// T2 shows label pills.
	T2
	// T3 shows aggregated clusters.
	T3
)

func (t Tier) String() string {
	switch t {
	case T1:
		return "T1"
	case T2:
		return "T2"
	case T3:
		return "T3"
	default:
		return "none"
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a tier name written by MarshalText.
func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "T1":
		*t = T1
	case "T2":
		*t = T2
	case "T3":
		*t = T3
	case "none", "":
		*t = TierNone
	default:
		return errors.New(errors.ErrCodeMalformedInput, "unknown tier %q", string(b))
	}
	return nil
}

// ShowsPhotos reports whether nodes render photos at this tier.
func (t Tier) ShowsPhotos() bool { return t == T1 }

// Clustered reports whether nodes are aggregated at this tier.
func (t Tier) Clustered() bool { return t == T3 }

// Classify returns the tier for scale without hysteresis.
func Classify(scale float64, cfg config.Config) Tier {
	return classify(cfg.Zoom.ClampScale(scale), cfg.LOD.TierT1, cfg.LOD.TierT2)
}

func classify(scale, t1, t2 float64) Tier {
	switch {
	case scale >= t1:
		return T1
	case scale >= t2:
		return T2
	default:
		return T3
	}
}

// NextTier returns the tier for scale given the previous tier. Leaving a tier
// toward less detail requires the scale to fall below the threshold by the
// hysteresis margin; returning requires it to rise above by the same margin.
func NextTier(prev Tier, scale float64, cfg config.Config) Tier {
	scale = cfg.Zoom.ClampScale(scale)
	t1, t2, h := cfg.LOD.TierT1, cfg.LOD.TierT2, cfg.LOD.Hysteresis
	if prev < T1 || prev > T3 {
		return classify(scale, t1, t2)
	}
	if down := classify(scale, t1*(1-h), t2*(1-h)); down > prev {
		return down
	}
	if up := classify(scale, t1*(1+h), t2*(1+h)); up < prev {
		return up
	}
	return prev
}

// Selector remembers the last tier. The zero value is not usable; call
// [NewSelector].
type Selector struct {
	cfg  config.Config
	tier Tier
}

// NewSelector returns a selector with no previous tier.
func NewSelector(cfg config.Config) *Selector {
	return &Selector{cfg: cfg}
}

// Tier advances the selector to scale and returns the tier.
func (s *Selector) Tier(scale float64) Tier {
	s.tier = NextTier(s.tier, scale, s.cfg)
	return s.tier
}

// Current returns the last selected tier.
func (s *Selector) Current() Tier { return s.tier }

// Reset forgets the previous tier.
func (s *Selector) Reset() { s.tier = TierNone }

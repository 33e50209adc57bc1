package lod

import (
	"slices"

	"github.com/matzehuels/lineage/pkg/config"
)

// Required returns the device pixels needed to draw an image that is
// baseSize world units wide at scale.
func Required(scale, baseSize float64, cfg config.Config) float64 {
	return baseSize * cfg.Zoom.ClampScale(scale) * cfg.LOD.PixelRatio
}

// Bucket returns the smallest configured bucket that is not under-resolved
// for the required size, or the largest bucket when none suffices.
func Bucket(required float64, buckets []int) int {
	if len(buckets) == 0 {
		return 0
	}
	for _, b := range buckets {
		if float64(b) >= required {
			return b
		}
	}
	return buckets[len(buckets)-1]
}

// NextBucket returns the bucket for an image baseSize world units wide at
// scale, given the previous bucket. Upgrades happen immediately so images
// are never under-resolved. Downgrades wait until the required size fits the
// smaller bucket with the hysteresis margin to spare.
func NextBucket(prev int, scale, baseSize float64, cfg config.Config) int {
	buckets := cfg.LOD.ImageBuckets
	req := Required(scale, baseSize, cfg)
	up := Bucket(req, buckets)
	if prev <= 0 || !slices.Contains(buckets, prev) || up >= prev {
		return up
	}
	h := cfg.LOD.BucketHysteresis
	for _, b := range buckets {
		if b >= prev {
			break
		}
		if req <= float64(b)*(1-h) {
			return b
		}
	}
	return prev
}

// BucketSelector remembers the last bucket for one image size.
type BucketSelector struct {
	cfg      config.Config
	baseSize float64
	bucket   int
}

// NewBucketSelector tracks images baseSize world units wide. A non-positive
// baseSize uses the configured photo size.
func NewBucketSelector(cfg config.Config, baseSize float64) *BucketSelector {
	if baseSize <= 0 {
		baseSize = cfg.LOD.PhotoSize
	}
	return &BucketSelector{cfg: cfg, baseSize: baseSize}
}

// Bucket advances the selector to scale and returns the bucket.
func (s *BucketSelector) Bucket(scale float64) int {
	s.bucket = NextBucket(s.bucket, scale, s.baseSize, s.cfg)
	return s.bucket
}

// Current returns the last selected bucket, 0 before the first call.
func (s *BucketSelector) Current() int { return s.bucket }

// Reset forgets the previous bucket.
func (s *BucketSelector) Reset() { s.bucket = 0 }

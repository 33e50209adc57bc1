package camera

import (
	"math"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/matzehuels/lineage/pkg/geom"
)

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-out-quad":  ease.InOutQuad,
	"in-out-cubic": ease.InOutCubic,
	"out-cubic":    ease.OutCubic,
	"out-quint":    ease.OutQuint,
	"out-expo":     ease.OutExpo,
	"in-out-sine":  ease.InOutSine,
}

// Easing returns the named easing curve, falling back to in-out-cubic.
func Easing(name string) ease.TweenFunc {
	if fn, ok := easings[name]; ok {
		return fn
	}
	return ease.InOutCubic
}

// progress returns the eased completion of an animation in [0, 1].
func progress(fn ease.TweenFunc, elapsed, total time.Duration) float64 {
	if total <= 0 || elapsed >= total {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(fn(float32(elapsed.Seconds()), 0, 1, float32(total.Seconds())))
}

// interpolate blends two cameras at eased progress p. The viewport center
// moves linearly in world space and the scale geometrically.
func interpolate(from, to Camera, p float64, size geom.Size) Camera {
	if p >= 1 {
		return to
	}
	if p <= 0 {
		return from
	}
	center := from.Center(size).Lerp(to.Center(size), p)
	scale := from.Scale * math.Pow(to.Scale/from.Scale, p)
	return FromCenter(center, scale, size)
}

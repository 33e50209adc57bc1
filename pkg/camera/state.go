package camera

import (
	"time"

	"github.com/matzehuels/lineage/pkg/geom"
)

// Phase identifies a state variant.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePan
	PhasePinch
	PhaseAnimating
	PhaseDecaying
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePan:
		return "pan"
	case PhasePinch:
		return "pinch"
	case PhaseAnimating:
		return "animating"
	case PhaseDecaying:
		return "decaying"
	default:
		return "unknown"
	}
}

// Timed reports whether the phase needs frame ticks.
func (p Phase) Timed() bool { return p == PhaseAnimating || p == PhaseDecaying }

// State is one variant of the gesture state machine. States are values;
// transitions return new ones and never modify their input.
type State interface {
	Phase() Phase
}

// Idle is the resting state.
type Idle struct{}

// PanActive tracks a one-finger drag.
type PanActive struct {
	// Raw is the translation before rubber banding.
	Raw geom.Point
	// Last finger position.
	Last    geom.Point
	Samples Samples
	// Queued navigation to start when the gesture ends.
	Queued *Navigate
}

// PinchActive tracks a two-finger zoom.
type PinchActive struct {
	// Anchor is the world point under the focal point at pinch start,
	// measured against the raw translation so a pinch that starts in
	// overshoot continues from where the content is shown.
	Anchor        geom.Point
	StartScale    float64
	StartDistance float64
	Samples       Samples
	Queued        *Navigate
}

// Animating interpolates between two cameras.
type Animating struct {
	From, To Camera
	Start    time.Time
	Duration time.Duration
}

// Decaying carries release momentum in screen pixels per second.
type Decaying struct {
	Velocity geom.Point
	Last     time.Time
}

func (Idle) Phase() Phase        { return PhaseIdle }
func (PanActive) Phase() Phase   { return PhasePan }
func (PinchActive) Phase() Phase { return PhasePinch }
func (Animating) Phase() Phase   { return PhaseAnimating }
func (Decaying) Phase() Phase    { return PhaseDecaying }

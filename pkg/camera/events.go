package camera

import (
	"time"

	"github.com/matzehuels/lineage/pkg/geom"
)

// Event is a gesture primitive, tick or navigation request. Points are in
// screen pixels.
type Event interface {
	// Name is a stable snake_case identifier used in logs and metrics.
	Name() string
}

// PanStart begins a one-finger drag at At.
type PanStart struct {
	At   geom.Point
	Time time.Time
}

// PanMove reports the finger at At.
type PanMove struct {
	At   geom.Point
	Time time.Time
}

// PanEnd releases the drag.
type PanEnd struct {
	Time time.Time
}

// PinchStart begins a two-finger zoom. Focal is the midpoint between the
// fingers and Distance their separation.
type PinchStart struct {
	Focal    geom.Point
	Distance float64
	Time     time.Time
}

// PinchMove reports the current focal point and finger separation.
type PinchMove struct {
	Focal    geom.Point
	Distance float64
	Time     time.Time
}

// PinchEnd releases the pinch.
type PinchEnd struct {
	Time time.Time
}

// Tick advances timed phases to Now.
type Tick struct {
	Now time.Time
}

// Navigate requests an animated move to Target. A non-positive Duration
// jumps immediately.
type Navigate struct {
	Target   Camera
	Duration time.Duration
	Time     time.Time
}

// Tap is a single tap at At.
type Tap struct {
	At   geom.Point
	Time time.Time
}

// DoubleTap is a double tap at At. On a node it focuses that node.
type DoubleTap struct {
	At   geom.Point
	Time time.Time
}

func (PanStart) Name() string   { return "pan_start" }
func (PanMove) Name() string    { return "pan_move" }
func (PanEnd) Name() string     { return "pan_end" }
func (PinchStart) Name() string { return "pinch_start" }
func (PinchMove) Name() string  { return "pinch_move" }
func (PinchEnd) Name() string   { return "pinch_end" }
func (Tick) Name() string       { return "tick" }
func (Navigate) Name() string   { return "navigate" }
func (Tap) Name() string        { return "tap" }
func (DoubleTap) Name() string  { return "double_tap" }

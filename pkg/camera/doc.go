// Package camera owns the pan/zoom camera of one view and the gesture state
// machine that drives it.
//
// # Camera
//
// A [Camera] is a uniform scale plus a screen-space translation:
//
//	screen = world*Scale + Translate
//
// There is no global camera. Each [Controller] owns exactly one value and
// hands out copies, so several independent views can coexist.
//
// # State Machine
//
// Interaction is an explicit state machine with one tagged state type per
// phase:
//
//	Idle        resting; the camera is always clamped
//	PanActive   one finger drags; translate follows with rubber-band overshoot
//	PinchActive two fingers zoom around the focal point
//	Decaying    momentum after release, with spring-back from overshoot
//	Animating   eased programmatic navigation
//
// [Step] and [Transition] are pure functions of (state, event, camera, env).
// They never read a clock or touch a scheduler; time arrives inside events.
// That keeps every transition testable on its own.
//
// Events that make no sense in the current phase, such as a PinchMove with no
// PinchStart, produce an INVALID_GESTURE_SEQUENCE error from [Step], reset the
// machine to Idle and leave a clamped camera.
//
// Navigation requested while a finger is down is queued (the latest request
// wins) and starts when the gesture ends. During Decaying it stops the
// momentum and animates at once; during Animating it retargets from the
// current camera.
//
// # Scheduling
//
// Decaying and Animating need frame ticks. The [Controller] requests them
// from a host [Scheduler]. Every scheduled step carries the controller epoch.
// Leaving a timed phase cancels the pending step and bumps the epoch, so a
// tick that slips through late can never move the camera. [ManualScheduler]
// advances time explicitly for tests and for hosts that own a frame loop.
//
// # Physics
//
// Overshoot past the content bounds follows the rubber-band curve
//
//	offset = (1 - 1/(x*c/d + 1)) * d
//
// where x is the raw overshoot, d the viewport dimension and c the
// RubberBand coefficient. Momentum decays exponentially with DecayRate and a
// damped spring pulls overshoot back to the nearest bound.
package camera

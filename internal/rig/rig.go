// Package rig abstracts the physical peripherals of a fulfillment point: the
// pour actuator, the confirmation cue, and the status display. Two
// implementations exist, one backed by periph.io on real hardware and one
// simulated, selected once at startup. Nothing above this package branches on
// the platform.
package rig

import (
	"context"
	"time"
)

// Status is the fixed three-line layout of the display.
type Status struct {
	Store   string
	Product string
	Price   string
}

// Rig drives the peripherals of one fulfillment point. All operations block
// for a bounded duration and leave the hardware in a safe resting state on
// both success and failure. Dispense is never invoked concurrently; the
// sequencer's single-flight guard enforces that, not this layer.
type Rig interface {
	// Dispense runs one full pour: press the actuator, hold for the dwell
	// time, return to rest. Once started it runs to completion so the
	// mechanism is never left mid-travel.
	Dispense(ctx context.Context) error

	// PlayCue emits the short confirmation cue. Cosmetic: failures must not
	// abort a dispense.
	PlayCue(ctx context.Context) error

	// Render redraws the status surface. Idempotent; an empty Status renders
	// the neutral screen shown before the store is provisioned.
	Render(st Status) error

	// Flash briefly inverts the display to acknowledge activity.
	Flash(ctx context.Context) error

	// Rest returns the actuator to its resting position and powers down the
	// display. Called on shutdown; must be safe to call more than once.
	Rest() error
}

// Servo pulse widths, in microseconds, for the button-press actuator.
// Matches the mechanical calibration of the deployed dispensers.
const (
	restPulse  = 1500 * time.Microsecond
	pressPulse = 1900 * time.Microsecond
)

// cueDuration is how long the cue trigger pin is held active (the trigger is
// active-low on the mp3 module).
const cueDuration = 300 * time.Millisecond

// flashDuration is how long the display stays inverted during Flash.
const flashDuration = 300 * time.Millisecond

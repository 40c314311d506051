// Package input provides the OS input capability used by capture and playback:
// a global input hook and an input simulator.
package input

import "inputmacro/internal/macro"

// RawEvent is one input occurrence delivered by the global hook.
// X and Y are virtual-desktop screen coordinates for pointer events.
type RawEvent struct {
	Type       macro.EventType
	X          int
	Y          int
	Button     macro.Button
	WheelDelta int
	KeyCode    uint16

	// Injected is set when the OS reports the occurrence as software-generated.
	Injected bool
}

// HookFunc receives raw events. Calls arrive in order and never concurrently.
type HookFunc func(RawEvent)

// HookHandle identifies an installed hook.
type HookHandle uintptr

// Hook installs and removes a system-wide input hook.
type Hook interface {
	Install(fn HookFunc) (HookHandle, error)
	Uninstall(h HookHandle) error
}

// Simulator injects synthetic input.
type Simulator interface {
	// MovePointer moves to normalized coordinates in [0, MaxNormalized].
	MovePointer(vx, vy int) error
	Button(b macro.Button, down bool) error
	// Wheel scrolls by whole notches; positive scrolls away from the user.
	Wheel(steps int) error
	Key(vk uint16, down bool) error
	// VirtualDesktop returns the rectangle spanning all monitors.
	VirtualDesktop() Rect
}

// Rect is a screen rectangle. Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns the horizontal extent.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() int { return r.Bottom - r.Top }

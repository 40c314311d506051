//go:build !windows

package input

import (
	"errors"
	"fmt"

	"inputmacro/internal/macro"
)

// Stub implementation for non-Windows platforms

var errUnsupported = errors.New("input hooks not supported on this platform")

// StubHook represents a stub global hook
type StubHook struct{}

// NewHook creates a new stub hook
func NewHook() *StubHook {
	return &StubHook{}
}

// Install always fails (stub)
func (h *StubHook) Install(fn HookFunc) (HookHandle, error) {
	return 0, &macro.SetupError{Op: "install hook", Err: errUnsupported}
}

// Uninstall is a no-op (stub)
func (h *StubHook) Uninstall(handle HookHandle) error {
	return nil
}

// StubSimulator represents a stub input simulator
type StubSimulator struct{}

// NewSimulator creates a new stub simulator
func NewSimulator() *StubSimulator {
	return &StubSimulator{}
}

// MovePointer injects a pointer move (stub)
func (s *StubSimulator) MovePointer(vx, vy int) error {
	return fmt.Errorf("input injection not supported on this platform")
}

// Button injects a button transition (stub)
func (s *StubSimulator) Button(b macro.Button, down bool) error {
	return fmt.Errorf("input injection not supported on this platform")
}

// Wheel injects wheel notches (stub)
func (s *StubSimulator) Wheel(steps int) error {
	return fmt.Errorf("input injection not supported on this platform")
}

// Key injects a key transition (stub)
func (s *StubSimulator) Key(vk uint16, down bool) error {
	return fmt.Errorf("input injection not supported on this platform")
}

// VirtualDesktop returns an empty rectangle (stub)
func (s *StubSimulator) VirtualDesktop() Rect {
	return Rect{}
}

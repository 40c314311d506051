// Package inputtest provides in-memory input capabilities for tests.
package inputtest

import (
	"errors"
	"fmt"
	"sync"

	"inputmacro/internal/input"
	"inputmacro/internal/macro"
)

// Hook is a fake global hook whose events are fed by Emit.
type Hook struct {
	mu         sync.Mutex
	fn         input.HookFunc
	next       input.HookHandle
	handle     input.HookHandle
	InstallErr error
	Installs   int
	Uninstalls int
}

// Install records the callback.
func (h *Hook) Install(fn input.HookFunc) (input.HookHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.InstallErr != nil {
		return 0, h.InstallErr
	}
	if h.fn != nil {
		return 0, errors.New("hook already installed")
	}
	h.next++
	h.fn = fn
	h.handle = h.next
	h.Installs++
	return h.handle, nil
}

// Uninstall drops the callback.
func (h *Hook) Uninstall(handle input.HookHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if handle != h.handle {
		return fmt.Errorf("unknown hook handle %d", handle)
	}
	h.fn = nil
	h.handle = 0
	h.Uninstalls++
	return nil
}

// Installed reports whether a callback is registered.
func (h *Hook) Installed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fn != nil
}

// Emit delivers ev to the installed callback, if any. It reports whether
// a callback received the event.
func (h *Hook) Emit(ev input.RawEvent) bool {
	h.mu.Lock()
	fn := h.fn
	h.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(ev)
	return true
}

// Call is one recorded simulator invocation.
type Call struct {
	Op     string
	X, Y   int
	Button macro.Button
	Down   bool
	Steps  int
	Key    uint16
}

func (c Call) String() string {
	switch c.Op {
	case "move":
		return fmt.Sprintf("move(%d,%d)", c.X, c.Y)
	case "button":
		return fmt.Sprintf("button(%s,%v)", c.Button, c.Down)
	case "wheel":
		return fmt.Sprintf("wheel(%d)", c.Steps)
	case "key":
		return fmt.Sprintf("key(0x%02X,%v)", c.Key, c.Down)
	}
	return c.Op
}

// Simulator records every call it receives.
type Simulator struct {
	mu      sync.Mutex
	Desktop input.Rect
	calls   []Call

	// OnCall, when set, runs after each call is recorded.
	OnCall func(Call)
}

// NewSimulator creates a simulator over the given desktop.
func NewSimulator(desktop input.Rect) *Simulator {
	return &Simulator{Desktop: desktop}
}

func (s *Simulator) record(c Call) error {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	hook := s.OnCall
	s.mu.Unlock()
	if hook != nil {
		hook(c)
	}
	return nil
}

// MovePointer records a move.
func (s *Simulator) MovePointer(vx, vy int) error {
	return s.record(Call{Op: "move", X: vx, Y: vy})
}

// Button records a button transition.
func (s *Simulator) Button(b macro.Button, down bool) error {
	return s.record(Call{Op: "button", Button: b, Down: down})
}

// Wheel records wheel notches.
func (s *Simulator) Wheel(steps int) error {
	return s.record(Call{Op: "wheel", Steps: steps})
}

// Key records a key transition.
func (s *Simulator) Key(vk uint16, down bool) error {
	return s.record(Call{Op: "key", Key: vk, Down: down})
}

// VirtualDesktop returns the configured desktop.
func (s *Simulator) VirtualDesktop() input.Rect {
	return s.Desktop
}

// Calls returns a copy of the recorded calls.
func (s *Simulator) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

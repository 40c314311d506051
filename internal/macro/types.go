// Package macro defines the recorded input event model shared by capture,
// playback and persistence.
package macro

import (
	"fmt"
	"strconv"
	"strings"
)

// EventType discriminates the payload carried by a Record.
type EventType int

const (
	MouseMove EventType = iota
	MouseDown
	MouseUp
	MouseWheel
	KeyDown
	KeyUp
)

var eventTypeNames = [...]string{
	MouseMove:  "MouseMove",
	MouseDown:  "MouseDown",
	MouseUp:    "MouseUp",
	MouseWheel: "MouseWheel",
	KeyDown:    "KeyDown",
	KeyUp:      "KeyUp",
}

// EventTypes lists every event type in ordinal order.
func EventTypes() []EventType {
	return []EventType{MouseMove, MouseDown, MouseUp, MouseWheel, KeyDown, KeyUp}
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	return t >= MouseMove && t <= KeyUp
}

// IsMouse reports whether records of this type carry a MousePayload.
func (t EventType) IsMouse() bool {
	return t >= MouseMove && t <= MouseWheel
}

// IsKeyboard reports whether records of this type carry a KeyboardPayload.
func (t EventType) IsKeyboard() bool {
	return t == KeyDown || t == KeyUp
}

func (t EventType) String() string {
	if !t.Valid() {
		return "EventType(" + strconv.Itoa(int(t)) + ")"
	}
	return eventTypeNames[t]
}

// ParseEventType accepts the symbolic name (case-insensitive) or the decimal ordinal.
func ParseEventType(s string) (EventType, error) {
	s = strings.TrimSpace(s)
	for i, name := range eventTypeNames {
		if strings.EqualFold(name, s) {
			return EventType(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && EventType(n).Valid() {
		return EventType(n), nil
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// Button names a pointer button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
	ButtonX1
	ButtonX2
)

var buttonNames = [...]string{
	ButtonNone:   "None",
	ButtonLeft:   "Left",
	ButtonRight:  "Right",
	ButtonMiddle: "Middle",
	ButtonX1:     "X1",
	ButtonX2:     "X2",
}

// Valid reports whether b is a known button.
func (b Button) Valid() bool {
	return b >= ButtonNone && b <= ButtonX2
}

func (b Button) String() string {
	if !b.Valid() {
		return "Button(" + strconv.Itoa(int(b)) + ")"
	}
	return buttonNames[b]
}

// ParseButton accepts the symbolic name (case-insensitive) or the decimal ordinal.
func ParseButton(s string) (Button, error) {
	s = strings.TrimSpace(s)
	for i, name := range buttonNames {
		if strings.EqualFold(name, s) {
			return Button(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Button(n).Valid() {
		return Button(n), nil
	}
	return 0, fmt.Errorf("unknown button %q", s)
}

// MousePayload carries pointer data in virtual-desktop screen coordinates.
// WheelDelta is only meaningful for MouseWheel records.
type MousePayload struct {
	X          int
	Y          int
	Button     Button
	WheelDelta int
}

// KeyboardPayload carries a platform virtual-key code.
type KeyboardPayload struct {
	KeyCode uint16
	IsDown  bool
}

// Record is one captured input occurrence. Type selects which payload is
// meaningful: mouse types use Mouse, keyboard types use Key, and the other
// payload stays zero.
type Record struct {
	Type        EventType
	TimestampMs int64
	Mouse       MousePayload
	Key         KeyboardPayload
}

// NewMouseRecord builds a pointer record.
func NewMouseRecord(t EventType, ts int64, x, y int, button Button, wheelDelta int) Record {
	return Record{
		Type:        t,
		TimestampMs: ts,
		Mouse:       MousePayload{X: x, Y: y, Button: button, WheelDelta: wheelDelta},
	}
}

// NewKeyRecord builds a keyboard record; IsDown follows the type.
func NewKeyRecord(t EventType, ts int64, keyCode uint16) Record {
	return Record{
		Type:        t,
		TimestampMs: ts,
		Key:         KeyboardPayload{KeyCode: keyCode, IsDown: t == KeyDown},
	}
}

// Validate checks that the payload variant matches the type.
func (r Record) Validate() error {
	switch {
	case !r.Type.Valid():
		return fmt.Errorf("%w: unknown event type %d", ErrValidation, int(r.Type))
	case r.TimestampMs < 0:
		return fmt.Errorf("%w: negative timestamp %d", ErrValidation, r.TimestampMs)
	case r.Type.IsMouse() && r.Key != (KeyboardPayload{}):
		return fmt.Errorf("%w: %s record carries a keyboard payload", ErrValidation, r.Type)
	case r.Type.IsKeyboard() && r.Mouse != (MousePayload{}):
		return fmt.Errorf("%w: %s record carries a mouse payload", ErrValidation, r.Type)
	case r.Type.IsMouse() && !r.Mouse.Button.Valid():
		return fmt.Errorf("%w: unknown button %d", ErrValidation, int(r.Mouse.Button))
	}
	return nil
}

func (r Record) String() string {
	if r.Type.IsKeyboard() {
		return fmt.Sprintf("%s@%dms key=0x%02X", r.Type, r.TimestampMs, r.Key.KeyCode)
	}
	s := fmt.Sprintf("%s@%dms (%d,%d)", r.Type, r.TimestampMs, r.Mouse.X, r.Mouse.Y)
	if r.Mouse.Button != ButtonNone {
		s += " " + r.Mouse.Button.String()
	}
	if r.Type == MouseWheel {
		s += " wheel=" + strconv.Itoa(r.Mouse.WheelDelta)
	}
	return s
}

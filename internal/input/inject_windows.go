//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"inputmacro/internal/macro"
)

var (
	procSendInput        = user32.NewProc("SendInput")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
)

const (
	INPUT_MOUSE    = 0
	INPUT_KEYBOARD = 1

	MOUSEEVENTF_MOVE        = 0x0001
	MOUSEEVENTF_LEFTDOWN    = 0x0002
	MOUSEEVENTF_LEFTUP      = 0x0004
	MOUSEEVENTF_RIGHTDOWN   = 0x0008
	MOUSEEVENTF_RIGHTUP     = 0x0010
	MOUSEEVENTF_MIDDLEDOWN  = 0x0020
	MOUSEEVENTF_MIDDLEUP    = 0x0040
	MOUSEEVENTF_XDOWN       = 0x0080
	MOUSEEVENTF_XUP         = 0x0100
	MOUSEEVENTF_WHEEL       = 0x0800
	MOUSEEVENTF_VIRTUALDESK = 0x4000
	MOUSEEVENTF_ABSOLUTE    = 0x8000

	KEYEVENTF_KEYUP = 0x0002

	XBUTTON1 = 0x0001
	XBUTTON2 = 0x0002

	SM_XVIRTUALSCREEN  = 76
	SM_YVIRTUALSCREEN  = 77
	SM_CXVIRTUALSCREEN = 78
	SM_CYVIRTUALSCREEN = 79
)

type MOUSEINPUT struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type KEYBDINPUT struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type mouseINPUT struct {
	Type uint32
	Mi   MOUSEINPUT
}

type keyboardINPUT struct {
	Type uint32
	Ki   KEYBDINPUT
	_    [8]byte // Padding to the size of the MOUSEINPUT union member
}

// WindowsSimulator injects input through SendInput.
type WindowsSimulator struct{}

// NewSimulator creates the platform simulator.
func NewSimulator() *WindowsSimulator {
	return &WindowsSimulator{}
}

// MovePointer moves to absolute normalized coordinates across the virtual desktop.
func (s *WindowsSimulator) MovePointer(vx, vy int) error {
	return sendMouse(MOUSEINPUT{
		Dx:      int32(vx),
		Dy:      int32(vy),
		DwFlags: MOUSEEVENTF_MOVE | MOUSEEVENTF_ABSOLUTE | MOUSEEVENTF_VIRTUALDESK,
	})
}

// Button presses or releases a pointer button at the current position.
func (s *WindowsSimulator) Button(b macro.Button, down bool) error {
	var mi MOUSEINPUT
	switch b {
	case macro.ButtonLeft:
		mi.DwFlags = pick(down, MOUSEEVENTF_LEFTDOWN, MOUSEEVENTF_LEFTUP)
	case macro.ButtonRight:
		mi.DwFlags = pick(down, MOUSEEVENTF_RIGHTDOWN, MOUSEEVENTF_RIGHTUP)
	case macro.ButtonMiddle:
		mi.DwFlags = pick(down, MOUSEEVENTF_MIDDLEDOWN, MOUSEEVENTF_MIDDLEUP)
	case macro.ButtonX1:
		mi.DwFlags = pick(down, MOUSEEVENTF_XDOWN, MOUSEEVENTF_XUP)
		mi.MouseData = XBUTTON1
	case macro.ButtonX2:
		mi.DwFlags = pick(down, MOUSEEVENTF_XDOWN, MOUSEEVENTF_XUP)
		mi.MouseData = XBUTTON2
	default:
		return nil
	}
	return sendMouse(mi)
}

// Wheel scrolls by whole notches.
func (s *WindowsSimulator) Wheel(steps int) error {
	return sendMouse(MOUSEINPUT{
		MouseData: uint32(int32(steps * WheelNotch)),
		DwFlags:   MOUSEEVENTF_WHEEL,
	})
}

// Key presses or releases a virtual key.
func (s *WindowsSimulator) Key(vk uint16, down bool) error {
	in := keyboardINPUT{Type: INPUT_KEYBOARD}
	in.Ki.WVk = vk
	if !down {
		in.Ki.DwFlags = KEYEVENTF_KEYUP
	}
	return send(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

// VirtualDesktop returns the bounding rectangle of all monitors.
func (s *WindowsSimulator) VirtualDesktop() Rect {
	left := systemMetric(SM_XVIRTUALSCREEN)
	top := systemMetric(SM_YVIRTUALSCREEN)
	return Rect{
		Left:   left,
		Top:    top,
		Right:  left + systemMetric(SM_CXVIRTUALSCREEN),
		Bottom: top + systemMetric(SM_CYVIRTUALSCREEN),
	}
}

func systemMetric(index uintptr) int {
	ret, _, _ := procGetSystemMetrics.Call(index)
	return int(int32(ret))
}

func pick(down bool, downFlag, upFlag uint32) uint32 {
	if down {
		return downFlag
	}
	return upFlag
}

func sendMouse(mi MOUSEINPUT) error {
	in := mouseINPUT{Type: INPUT_MOUSE, Mi: mi}
	return send(unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func send(in unsafe.Pointer, size uintptr) error {
	ret, _, err := procSendInput.Call(1, uintptr(in), size)
	if ret != 1 {
		return fmt.Errorf("SendInput failed: %v", err)
	}
	return nil
}

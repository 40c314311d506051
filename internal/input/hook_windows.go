//go:build windows

package input

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"inputmacro/internal/macro"
)

// Windows implementation of the global hook using low-level mouse and keyboard hooks

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procPeekMessage         = user32.NewProc("PeekMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	WH_KEYBOARD_LL = 13
	WH_MOUSE_LL    = 14
	WM_QUIT        = 0x0012
	PM_NOREMOVE    = 0x0000

	WM_KEYDOWN    = 0x0100
	WM_KEYUP      = 0x0101
	WM_SYSKEYDOWN = 0x0104
	WM_SYSKEYUP   = 0x0105

	WM_MOUSEMOVE   = 0x0200
	WM_LBUTTONDOWN = 0x0201
	WM_LBUTTONUP   = 0x0202
	WM_RBUTTONDOWN = 0x0204
	WM_RBUTTONUP   = 0x0205
	WM_MBUTTONDOWN = 0x0207
	WM_MBUTTONUP   = 0x0208
	WM_MOUSEWHEEL  = 0x020A
	WM_XBUTTONDOWN = 0x020B
	WM_XBUTTONUP   = 0x020C

	LLMHF_INJECTED = 0x00000001
	LLKHF_INJECTED = 0x00000010
)

type MSLLHOOKSTRUCT struct {
	Pt          struct{ X, Y int32 }
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type KBDLLHOOKSTRUCT struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type MSG struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// Low-level hook procedures are global, so only one Hook may be installed per process.
var (
	activeMu  sync.RWMutex
	activeFn  HookFunc
	mouseHook uintptr
	keyHook   uintptr

	mouseCallback    = windows.NewCallback(mouseHookProc)
	keyboardCallback = windows.NewCallback(keyboardHookProc)
)

// WindowsHook installs WH_MOUSE_LL and WH_KEYBOARD_LL on a dedicated thread.
type WindowsHook struct {
	mu       sync.Mutex
	threadID uint32
	done     chan struct{}
}

// NewHook creates the platform hook.
func NewHook() *WindowsHook {
	return &WindowsHook{}
}

// Install starts the hook thread and returns once both hooks are in place.
func (h *WindowsHook) Install(fn HookFunc) (HookHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done != nil {
		return 0, &macro.SetupError{Op: "install hook", Err: errors.New("hook already installed")}
	}

	activeMu.Lock()
	activeFn = fn
	activeMu.Unlock()

	ready := make(chan error, 1)
	done := make(chan struct{})
	threadID := make(chan uint32, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		// The thread needs a message queue before Uninstall can post WM_QUIT.
		var msg MSG
		procPeekMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0, PM_NOREMOVE)

		threadID <- windows.GetCurrentThreadId()
		if err := installHooks(); err != nil {
			ready <- err
			return
		}
		ready <- nil

		for {
			ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
		}

		procUnhookWindowsHookEx.Call(mouseHook)
		procUnhookWindowsHookEx.Call(keyHook)
		mouseHook, keyHook = 0, 0
	}()

	tid := <-threadID
	if err := <-ready; err != nil {
		<-done
		activeMu.Lock()
		activeFn = nil
		activeMu.Unlock()
		return 0, err
	}

	h.threadID = tid
	h.done = done
	return HookHandle(tid), nil
}

// Uninstall stops the hook thread and waits for both hooks to be removed.
func (h *WindowsHook) Uninstall(handle HookHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.done == nil || HookHandle(h.threadID) != handle {
		return nil
	}

	ret, _, err := procPostThreadMessage.Call(uintptr(h.threadID), WM_QUIT, 0, 0)
	if ret == 0 {
		return fmt.Errorf("PostThreadMessage failed: %v", err)
	}
	<-h.done

	activeMu.Lock()
	activeFn = nil
	activeMu.Unlock()

	h.done = nil
	h.threadID = 0
	return nil
}

func installHooks() error {
	hMod, _, _ := procGetModuleHandle.Call(0)

	m, _, err := procSetWindowsHookEx.Call(WH_MOUSE_LL, mouseCallback, hMod, 0)
	if m == 0 {
		return &macro.SetupError{Op: "SetWindowsHookEx(WH_MOUSE_LL)", Code: errnoCode(err), Err: err}
	}

	k, _, err := procSetWindowsHookEx.Call(WH_KEYBOARD_LL, keyboardCallback, hMod, 0)
	if k == 0 {
		procUnhookWindowsHookEx.Call(m)
		return &macro.SetupError{Op: "SetWindowsHookEx(WH_KEYBOARD_LL)", Code: errnoCode(err), Err: err}
	}

	mouseHook, keyHook = m, k
	return nil
}

func errnoCode(err error) uint32 {
	var errno windows.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}

func deliver(ev RawEvent) {
	activeMu.RLock()
	fn := activeFn
	activeMu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

func mouseHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 {
		ms := (*MSLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		ev := RawEvent{
			X:        int(ms.Pt.X),
			Y:        int(ms.Pt.Y),
			Injected: ms.Flags&LLMHF_INJECTED != 0,
		}

		ok := true
		switch wParam {
		case WM_MOUSEMOVE:
			ev.Type = macro.MouseMove
		case WM_LBUTTONDOWN:
			ev.Type, ev.Button = macro.MouseDown, macro.ButtonLeft
		case WM_LBUTTONUP:
			ev.Type, ev.Button = macro.MouseUp, macro.ButtonLeft
		case WM_RBUTTONDOWN:
			ev.Type, ev.Button = macro.MouseDown, macro.ButtonRight
		case WM_RBUTTONUP:
			ev.Type, ev.Button = macro.MouseUp, macro.ButtonRight
		case WM_MBUTTONDOWN:
			ev.Type, ev.Button = macro.MouseDown, macro.ButtonMiddle
		case WM_MBUTTONUP:
			ev.Type, ev.Button = macro.MouseUp, macro.ButtonMiddle
		case WM_XBUTTONDOWN, WM_XBUTTONUP:
			ev.Type = macro.MouseDown
			if wParam == WM_XBUTTONUP {
				ev.Type = macro.MouseUp
			}
			ev.Button = macro.ButtonX2
			if (ms.MouseData >> 16) == 1 {
				ev.Button = macro.ButtonX1
			}
		case WM_MOUSEWHEEL:
			ev.Type = macro.MouseWheel
			ev.WheelDelta = int(int16(ms.MouseData >> 16))
		default:
			ok = false
		}

		if ok {
			deliver(ev)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(mouseHook, uintptr(nCode), wParam, lParam)
	return ret
}

func keyboardHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 {
		kbd := (*KBDLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		ev := RawEvent{
			KeyCode:  uint16(kbd.VkCode),
			Injected: kbd.Flags&LLKHF_INJECTED != 0,
		}

		switch wParam {
		case WM_KEYDOWN, WM_SYSKEYDOWN:
			ev.Type = macro.KeyDown
			deliver(ev)
		case WM_KEYUP, WM_SYSKEYUP:
			ev.Type = macro.KeyUp
			deliver(ev)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(keyHook, uintptr(nCode), wParam, lParam)
	return ret
}

//go:build windows

package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"inputmacro/internal/macro"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procCreateWindowEx    = user32.NewProc("CreateWindowExW")
	procDestroyWindow     = user32.NewProc("DestroyWindow")
	procRegisterHotKey    = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey  = user32.NewProc("UnregisterHotKey")
	procGetMessage        = user32.NewProc("GetMessageW")
	procTranslateMessage  = user32.NewProc("TranslateMessage")
	procDispatchMessage   = user32.NewProc("DispatchMessageW")
	procPostThreadMessage = user32.NewProc("PostThreadMessageW")
)

const (
	WM_QUIT   = 0x0012
	WM_HOTKEY = 0x0312
	WM_APP    = 0x8000

	wmRunRequests = WM_APP + 1

	// HWND_MESSAGE parents a message-only window.
	HWND_MESSAGE = ^uintptr(2)
)

type MSG struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

var errWindowClosed = errors.New("hotkey window closed")

// hostWindow owns a message-only window. RegisterHotKey must be called on
// the thread that created the window, so requests are marshaled onto it.
type hostWindow struct {
	dispatch func(id int) bool

	threadID uint32
	hwnd     uintptr
	done     chan struct{}

	mu       sync.Mutex
	requests []func()
}

// Open creates the host window and returns a dispatcher bound to it.
func Open(logger *slog.Logger) (*Dispatcher, error) {
	d := NewDispatcher(nil, logger)
	h, err := newHostWindow(d.Dispatch)
	if err != nil {
		return nil, err
	}
	d.reg = h
	d.logger.Info("Hotkey: host window created")
	return d, nil
}

func newHostWindow(dispatch func(int) bool) (*hostWindow, error) {
	h := &hostWindow{dispatch: dispatch, done: make(chan struct{})}
	ready := make(chan error, 1)
	go h.loop(ready)
	if err := <-ready; err != nil {
		<-h.done
		return nil, err
	}
	return h, nil
}

func (h *hostWindow) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	class, _ := windows.UTF16PtrFromString("STATIC")
	hwnd, _, err := procCreateWindowEx.Call(
		0,
		uintptr(unsafe.Pointer(class)),
		0, 0,
		0, 0, 0, 0,
		HWND_MESSAGE,
		0, 0, 0,
	)
	if hwnd == 0 {
		ready <- &macro.SetupError{Op: "CreateWindowEx", Code: errnoCode(err), Err: err}
		return
	}
	h.hwnd = hwnd
	h.threadID = windows.GetCurrentThreadId()
	ready <- nil

	var msg MSG
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
		switch msg.Message {
		case WM_HOTKEY:
			h.dispatch(int(msg.WParam))
			continue
		case wmRunRequests:
			h.runRequests()
			continue
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&msg)))
	}

	h.runRequests()
	procDestroyWindow.Call(hwnd)
}

func (h *hostWindow) runRequests() {
	h.mu.Lock()
	reqs := h.requests
	h.requests = nil
	h.mu.Unlock()
	for _, fn := range reqs {
		fn()
	}
}

// call runs fn on the window thread and waits for its result.
func (h *hostWindow) call(fn func() error) error {
	select {
	case <-h.done:
		return errWindowClosed
	default:
	}

	errc := make(chan error, 1)
	h.mu.Lock()
	h.requests = append(h.requests, func() { errc <- fn() })
	h.mu.Unlock()

	ret, _, err := procPostThreadMessage.Call(uintptr(h.threadID), wmRunRequests, 0, 0)
	if ret == 0 {
		return fmt.Errorf("PostThreadMessage failed: %v", err)
	}

	select {
	case err := <-errc:
		return err
	case <-h.done:
		select {
		case err := <-errc:
			return err
		default:
			return errWindowClosed
		}
	}
}

func (h *hostWindow) Register(id int, mods Modifiers, key uint16) error {
	return h.call(func() error {
		ret, _, err := procRegisterHotKey.Call(h.hwnd, uintptr(id), uintptr(mods), uintptr(key))
		if ret == 0 {
			return &macro.SetupError{Op: "RegisterHotKey " + FormatCombo(mods&^ModNoRepeat, key), Code: errnoCode(err), Err: err}
		}
		return nil
	})
}

func (h *hostWindow) Unregister(id int) error {
	return h.call(func() error {
		ret, _, err := procUnregisterHotKey.Call(h.hwnd, uintptr(id))
		if ret == 0 {
			return fmt.Errorf("UnregisterHotKey failed: %v", err)
		}
		return nil
	})
}

func (h *hostWindow) Close() error {
	select {
	case <-h.done:
		return nil
	default:
	}
	ret, _, err := procPostThreadMessage.Call(uintptr(h.threadID), WM_QUIT, 0, 0)
	if ret == 0 {
		return fmt.Errorf("PostThreadMessage failed: %v", err)
	}
	<-h.done
	return nil
}

func errnoCode(err error) uint32 {
	var errno windows.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}

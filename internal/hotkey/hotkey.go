// Package hotkey provides system-wide hotkey registration and dispatch.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"inputmacro/internal/macro"
)

// Modifiers is a bitmask of modifier keys, using the Windows MOD_* values.
type Modifiers uint32

const (
	ModAlt   Modifiers = 0x0001
	ModCtrl  Modifiers = 0x0002
	ModShift Modifiers = 0x0004
	ModWin   Modifiers = 0x0008

	// ModNoRepeat suppresses auto-repeat so one press fires once.
	ModNoRepeat Modifiers = 0x4000
)

// ErrorHotkeyAlreadyRegistered is the platform code for a duplicate combination.
const ErrorHotkeyAlreadyRegistered = 1409

// Registrar performs the platform registration against a host window.
type Registrar interface {
	Register(id int, mods Modifiers, key uint16) error
	Unregister(id int) error
	// Close destroys the host window.
	Close() error
}

type binding struct {
	mods     Modifiers
	key      uint16
	callback func()
}

// Dispatcher tracks registered hotkeys and routes their notifications.
type Dispatcher struct {
	// regMu serializes registrar calls. mu guards bindings and must not be
	// held across a registrar call: Dispatch runs on the window thread.
	regMu sync.Mutex
	mu    sync.Mutex

	reg      Registrar
	logger   *slog.Logger
	nextID   int
	bindings map[int]*binding
	closed   bool
}

// NewDispatcher creates a dispatcher backed by reg.
func NewDispatcher(reg Registrar, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		reg:      reg,
		logger:   logger,
		bindings: make(map[int]*binding),
	}
}

// RegisterHotKey binds the combination to callback and returns its id.
func (d *Dispatcher) RegisterHotKey(mods Modifiers, key uint16, callback func()) (int, error) {
	mods &^= ModNoRepeat
	combo := FormatCombo(mods, key)

	d.regMu.Lock()
	defer d.regMu.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, &macro.SetupError{Op: "register hotkey " + combo, Err: errors.New("dispatcher closed")}
	}
	for _, b := range d.bindings {
		if b.mods == mods && b.key == key {
			d.mu.Unlock()
			return 0, &macro.SetupError{
				Op:   "register hotkey " + combo,
				Code: ErrorHotkeyAlreadyRegistered,
				Err:  errors.New("hot key is already registered"),
			}
		}
	}
	d.nextID++
	id := d.nextID
	d.mu.Unlock()

	if err := d.reg.Register(id, mods|ModNoRepeat, key); err != nil {
		var se *macro.SetupError
		if errors.As(err, &se) {
			return 0, err
		}
		return 0, &macro.SetupError{Op: "register hotkey " + combo, Err: err}
	}

	d.mu.Lock()
	d.bindings[id] = &binding{mods: mods, key: key, callback: callback}
	d.mu.Unlock()

	d.logger.Info("Hotkey: registered", "combo", combo, "id", id)
	return id, nil
}

// UnregisterHotKey removes a registration. Unknown ids are ignored.
func (d *Dispatcher) UnregisterHotKey(id int) error {
	d.regMu.Lock()
	defer d.regMu.Unlock()

	d.mu.Lock()
	b, ok := d.bindings[id]
	delete(d.bindings, id)
	d.mu.Unlock()
	if !ok {
		return nil
	}

	if err := d.reg.Unregister(id); err != nil {
		return fmt.Errorf("unregister hotkey %s: %w", FormatCombo(b.mods, b.key), err)
	}
	return nil
}

// Dispatch invokes the callback bound to id. It reports whether the
// notification was handled.
func (d *Dispatcher) Dispatch(id int) bool {
	d.mu.Lock()
	b, ok := d.bindings[id]
	d.mu.Unlock()
	if !ok {
		return false
	}
	if b.callback != nil {
		b.callback()
	}
	return true
}

// Registered returns the number of live registrations.
func (d *Dispatcher) Registered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bindings)
}

// Close unregisters every remaining hotkey and destroys the host window.
func (d *Dispatcher) Close() error {
	d.regMu.Lock()
	defer d.regMu.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	ids := make([]int, 0, len(d.bindings))
	for id := range d.bindings {
		ids = append(ids, id)
	}
	d.bindings = make(map[int]*binding)
	d.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := d.reg.Unregister(id); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.reg.Close(); err != nil {
		errs = append(errs, err)
	}
	d.logger.Info("Hotkey: closed", "unregistered", len(ids))
	return errors.Join(errs...)
}

// Package capture turns the OS input hook into an ordered stream of macro records.
package capture

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"inputmacro/internal/input"
	"inputmacro/internal/macro"
	"inputmacro/internal/metrics"
)

// DefaultMoveDebounce is the window in which a repeated move to the same
// coordinate is dropped.
const DefaultMoveDebounce = 5 * time.Millisecond

// Options configure an Engine.
type Options struct {
	Hook input.Hook

	// MoveDebounce of zero uses DefaultMoveDebounce; a negative value disables debouncing.
	MoveDebounce time.Duration

	Clock  func() time.Time
	Logger *slog.Logger
}

// Engine records input between Start and Stop. One Engine should exist per
// process because the hook observes the whole machine.
//
// Subscribers are called synchronously on the hook delivery thread and must
// not call Start or Stop.
type Engine struct {
	hook     input.Hook
	debounce time.Duration
	now      func() time.Time
	logger   *slog.Logger

	// opMu serializes Start and Stop.
	opMu sync.Mutex

	// mu guards session state and is held while records are delivered.
	mu         sync.Mutex
	active     bool
	handle     input.HookHandle
	sessionID  string
	start      time.Time
	haveMove   bool
	lastMove   time.Duration
	lastX      int
	lastY      int
	emitted    int
	suppressed int

	subMu  sync.RWMutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(macro.Record)
}

// New creates an idle engine.
func New(opts Options) *Engine {
	debounce := opts.MoveDebounce
	if debounce == 0 {
		debounce = DefaultMoveDebounce
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		hook:     opts.Hook,
		debounce: debounce,
		now:      clock,
		logger:   logger,
	}
}

// Subscribe registers fn for every emitted record and returns a function that
// removes the subscription.
func (e *Engine) Subscribe(fn func(macro.Record)) func() {
	e.subMu.Lock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Start installs the hook and begins a new session with its clock at zero.
// It is a no-op if a session is already active.
func (e *Engine) Start() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	active := e.active
	e.mu.Unlock()
	if active {
		return nil
	}

	handle, err := e.hook.Install(e.onRaw)
	if err != nil {
		var setupErr *macro.SetupError
		if !errors.As(err, &setupErr) {
			err = &macro.SetupError{Op: "install input hook", Err: err}
		}
		e.logger.Error("Capture: failed to install input hook", "error", err)
		return err
	}

	e.mu.Lock()
	e.active = true
	e.handle = handle
	e.sessionID = uuid.NewString()
	e.start = e.now()
	e.haveMove = false
	e.lastMove = 0
	e.emitted = 0
	e.suppressed = 0
	sessionID := e.sessionID
	e.mu.Unlock()

	e.logger.Info("Capture: session started", "session", sessionID)
	return nil
}

// Stop removes the hook. No record is delivered after Stop returns.
// It is a no-op if no session is active.
func (e *Engine) Stop() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil
	}
	e.active = false
	handle := e.handle
	e.handle = 0
	sessionID, emitted, suppressed := e.sessionID, e.emitted, e.suppressed
	e.mu.Unlock()

	e.logger.Info("Capture: session stopped", "session", sessionID, "emitted", emitted, "suppressed", suppressed)

	if err := e.hook.Uninstall(handle); err != nil {
		e.logger.Warn("Capture: failed to uninstall input hook", "error", err)
		return err
	}
	return nil
}

// Active reports whether a session is running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SessionID returns the id of the current or most recent session.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

func (e *Engine) onRaw(ev input.RawEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return
	}
	if ev.Injected {
		e.suppressed++
		metrics.CaptureSuppressed(metrics.ReasonInjected)
		return
	}

	elapsed := e.now().Sub(e.start)
	if elapsed < 0 {
		elapsed = 0
	}

	if ev.Type == macro.MouseMove {
		if e.debounce > 0 && e.haveMove && ev.X == e.lastX && ev.Y == e.lastY && elapsed-e.lastMove < e.debounce {
			e.suppressed++
			metrics.CaptureSuppressed(metrics.ReasonDebounced)
			return
		}
		e.haveMove = true
		e.lastMove = elapsed
		e.lastX, e.lastY = ev.X, ev.Y
	}

	rec, ok := toRecord(ev, elapsed.Milliseconds())
	if !ok {
		return
	}

	e.emitted++
	metrics.CaptureEmitted(rec.Type.String())

	e.subMu.RLock()
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	e.subMu.RUnlock()

	for _, s := range subs {
		s.fn(rec)
	}
}

func toRecord(ev input.RawEvent, ts int64) (macro.Record, bool) {
	switch ev.Type {
	case macro.MouseMove:
		return macro.NewMouseRecord(macro.MouseMove, ts, ev.X, ev.Y, macro.ButtonNone, 0), true
	case macro.MouseDown, macro.MouseUp:
		return macro.NewMouseRecord(ev.Type, ts, ev.X, ev.Y, ev.Button, 0), true
	case macro.MouseWheel:
		return macro.NewMouseRecord(macro.MouseWheel, ts, ev.X, ev.Y, macro.ButtonNone, ev.WheelDelta), true
	case macro.KeyDown, macro.KeyUp:
		return macro.NewKeyRecord(ev.Type, ts, ev.KeyCode), true
	}
	return macro.Record{}, false
}

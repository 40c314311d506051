// Package controller owns the recording buffer and coordinates capture,
// playback, macro files and hotkeys for the user-facing surfaces.
package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inputmacro/internal/capture"
	"inputmacro/internal/config"
	"inputmacro/internal/hotkey"
	"inputmacro/internal/input"
	"inputmacro/internal/macro"
	"inputmacro/internal/macrofile"
	"inputmacro/internal/metrics"
	"inputmacro/internal/playback"
)

// HotkeyRegistrar registers system-wide shortcuts. *hotkey.Dispatcher
// satisfies it.
type HotkeyRegistrar interface {
	RegisterHotKey(mods hotkey.Modifiers, key uint16, callback func()) (int, error)
	UnregisterHotKey(id int) error
}

// Options configure a Controller.
type Options struct {
	Hook      input.Hook
	Simulator input.Simulator
	Config    *config.Config
	Notifier  Notifier
	Logger    *slog.Logger

	// Clock and Sleep are passed to the engines; nil uses the real ones.
	Clock func() time.Time
	Sleep func(time.Duration)
}

// Controller is safe for concurrent use.
type Controller struct {
	capture  *capture.Engine
	player   *playback.Engine
	notifier Notifier
	logger   *slog.Logger

	cfgMu sync.Mutex
	cfg   config.Config

	// opMu serializes recording, loading and hotkey binding.
	opMu        sync.Mutex
	recording   bool
	queue       chan macro.Record
	pumpDone    chan struct{}
	unsubscribe func()
	dropped     int
	hotkeys     HotkeyRegistrar
	hotkeyIDs   []int

	bufMu  sync.Mutex
	events []macro.Record
}

// New creates an idle controller with an empty buffer.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	cfg := config.DefaultConfig()
	if opts.Config != nil {
		*cfg = *opts.Config
	}
	cfg.Normalize()

	c := &Controller{
		notifier: notifier,
		logger:   logger,
		cfg:      *cfg,
	}
	c.capture = capture.New(capture.Options{
		Hook:         opts.Hook,
		MoveDebounce: time.Duration(cfg.Capture.MoveDebounceMs) * time.Millisecond,
		Clock:        opts.Clock,
		Logger:       logger,
	})
	c.player = playback.New(playback.Options{
		Simulator:  opts.Simulator,
		Sleep:      opts.Sleep,
		Clock:      opts.Clock,
		Logger:     logger,
		OnStart: func(_ string, events int, speed float64, repeat int) {
			notifier.PlaybackStarted(events, speed, repeat)
		},
		OnComplete: notifier.PlaybackFinished,
	})
	return c
}

// Config returns the settings in effect.
func (c *Controller) Config() config.Config {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	return c.cfg
}

// UpdateConfig replaces the playback and storage settings. Capture settings
// apply from the next controller.
func (c *Controller) UpdateConfig(cfg *config.Config) {
	next := *cfg
	next.Normalize()
	c.cfgMu.Lock()
	c.cfg = next
	c.cfgMu.Unlock()
}

// Recording reports whether a capture session is active.
func (c *Controller) Recording() bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.recording
}

// Playing reports whether playback is in progress.
func (c *Controller) Playing() bool {
	return c.player.Running()
}

// StartRecording clears the buffer and begins capturing. It is a no-op while
// already recording.
func (c *Controller) StartRecording() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.recording {
		return nil
	}
	if c.player.Running() {
		err := fmt.Errorf("%w: playback in progress", macro.ErrConcurrency)
		c.notifier.Failed("Recording", err)
		return err
	}

	c.bufMu.Lock()
	c.events = nil
	c.bufMu.Unlock()

	queue := make(chan macro.Record, c.Config().Capture.QueueSize)
	done := make(chan struct{})
	c.dropped = 0
	go c.pump(queue, done)

	// Delivery happens under the capture engine's lock, so the push must never block.
	unsubscribe := c.capture.Subscribe(func(rec macro.Record) {
		select {
		case queue <- rec:
		default:
			c.dropped++
			metrics.CaptureDropped()
		}
	})

	if err := c.capture.Start(); err != nil {
		unsubscribe()
		close(queue)
		<-done
		c.notifier.Failed("Recording", err)
		return err
	}

	c.recording = true
	c.queue = queue
	c.pumpDone = done
	c.unsubscribe = unsubscribe
	c.notifier.RecordingStarted(c.capture.SessionID())
	return nil
}

func (c *Controller) pump(queue <-chan macro.Record, done chan<- struct{}) {
	defer close(done)
	for rec := range queue {
		c.bufMu.Lock()
		c.events = append(c.events, rec)
		c.bufMu.Unlock()
	}
}

// StopRecording ends the capture session once every queued record has reached
// the buffer. It is a no-op when not recording.
func (c *Controller) StopRecording() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.stopRecordingLocked()
}

func (c *Controller) stopRecordingLocked() error {
	if !c.recording {
		return nil
	}

	stopErr := c.capture.Stop()
	c.unsubscribe()
	close(c.queue)
	<-c.pumpDone

	c.recording = false
	c.queue, c.pumpDone, c.unsubscribe = nil, nil, nil

	count := len(c.Events())
	if c.dropped > 0 {
		c.logger.Warn("Controller: recording queue overflowed", "dropped", c.dropped)
	}
	c.notifier.RecordingStopped(c.capture.SessionID(), count, c.dropped)
	return stopErr
}

// ToggleRecording starts a recording, or stops the active one.
func (c *Controller) ToggleRecording() error {
	if c.Recording() {
		return c.StopRecording()
	}
	return c.StartRecording()
}

// Play replays a snapshot of the buffer in the background.
func (c *Controller) Play(speed float64, repeat int) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.recording {
		err := fmt.Errorf("%w: recording in progress", macro.ErrConcurrency)
		c.notifier.Failed("Playback", err)
		return err
	}

	if err := c.player.Start(c.Events(), speed, repeat); err != nil {
		c.notifier.Failed("Playback", err)
		return err
	}
	return nil
}

// PlayDefault plays with the configured speed and repeat count.
func (c *Controller) PlayDefault() error {
	cfg := c.Config()
	return c.Play(cfg.Playback.Speed, cfg.Playback.Repeat)
}

// StopPlayback requests cancellation and returns without waiting.
func (c *Controller) StopPlayback() {
	c.player.Stop()
}

// Events returns a copy of the buffer.
func (c *Controller) Events() []macro.Record {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	out := make([]macro.Record, len(c.events))
	copy(out, c.events)
	return out
}

// Clear empties the buffer.
func (c *Controller) Clear() {
	c.bufMu.Lock()
	c.events = nil
	c.bufMu.Unlock()
}

// Save writes the buffer to path, or to the configured default when path is empty.
func (c *Controller) Save(path string) (string, error) {
	if path == "" {
		path = c.Config().DefaultMacroPath()
	}
	events := c.Events()
	if err := macrofile.Save(path, events); err != nil {
		c.notifier.Failed("Save", err)
		return path, err
	}
	c.logger.Info("Controller: saved recording", "path", path, "events", len(events))
	return path, nil
}

// Load replaces the buffer with the contents of path, or of the configured
// default when path is empty. The buffer is untouched on failure.
func (c *Controller) Load(path string) (int, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if path == "" {
		path = c.Config().DefaultMacroPath()
	}
	if c.recording {
		err := fmt.Errorf("%w: recording in progress", macro.ErrConcurrency)
		c.notifier.Failed("Load", err)
		return 0, err
	}

	events, err := macrofile.Load(path)
	if err != nil {
		c.notifier.Failed("Load", err)
		return 0, err
	}

	c.bufMu.Lock()
	c.events = events
	c.bufMu.Unlock()

	c.logger.Info("Controller: loaded recording", "path", path, "events", len(events))
	return len(events), nil
}

// BindHotkeys registers the configured shortcuts with reg, replacing any
// previous bindings. Empty combinations are skipped. Bindings that fail are
// reported and the rest stay active.
func (c *Controller) BindHotkeys(reg HotkeyRegistrar, hk config.HotkeyConfig) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.unbindHotkeysLocked()
	c.hotkeys = reg

	// Callbacks run on the hotkey message loop and hand off immediately.
	actions := []struct {
		name  string
		combo string
		run   func()
	}{
		{"toggle recording", hk.ToggleRecording, func() { go c.ToggleRecording() }},
		{"play", hk.Play, func() { go c.PlayDefault() }},
		{"stop playback", hk.StopPlayback, c.StopPlayback},
	}

	var errs []error
	for _, a := range actions {
		if a.combo == "" {
			continue
		}
		mods, key, err := hotkey.ParseCombo(a.combo)
		if err == nil {
			var id int
			id, err = reg.RegisterHotKey(mods, key, a.run)
			if err == nil {
				c.hotkeyIDs = append(c.hotkeyIDs, id)
				continue
			}
		}
		err = fmt.Errorf("bind %s hotkey %q: %w", a.name, a.combo, err)
		c.notifier.Failed("Hotkey", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// UnbindHotkeys removes every binding made by BindHotkeys.
func (c *Controller) UnbindHotkeys() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.unbindHotkeysLocked()
}

func (c *Controller) unbindHotkeysLocked() {
	if c.hotkeys == nil {
		return
	}
	for _, id := range c.hotkeyIDs {
		if err := c.hotkeys.UnregisterHotKey(id); err != nil {
			c.logger.Warn("Controller: failed to unregister hotkey", "id", id, "error", err)
		}
	}
	c.hotkeyIDs = nil
}

// Close stops playback and recording and releases hotkeys.
func (c *Controller) Close() error {
	c.player.Stop()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.unbindHotkeysLocked()
	return c.stopRecordingLocked()
}

// Package playback replays recorded macros through the input simulator while
// preserving the recorded inter-event timing.
package playback

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"inputmacro/internal/input"
	"inputmacro/internal/macro"
	"inputmacro/internal/metrics"
)

// Result describes a finished playback run. PassesRequested is 0 for an
// unbounded run.
type Result struct {
	RunID           string
	PassesCompleted int
	PassesRequested int
	Cancelled       bool
	Elapsed         time.Duration
}

func (r Result) String() string {
	total := "∞"
	if r.PassesRequested > 0 {
		total = fmt.Sprint(r.PassesRequested)
	}
	if r.Cancelled {
		return fmt.Sprintf("stopped after %d of %s passes", r.PassesCompleted, total)
	}
	return fmt.Sprintf("completed %d of %s passes in %s", r.PassesCompleted, total, r.Elapsed.Round(time.Millisecond))
}

// Options configure an Engine.
type Options struct {
	Simulator input.Simulator

	// Sleep blocks for the given delay. Defaults to time.Sleep.
	Sleep  func(time.Duration)
	Clock  func() time.Time
	Logger *slog.Logger

	// OnStart is called before the run begins, with the coerced speed and
	// repeat count.
	OnStart func(runID string, events int, speed float64, repeat int)

	// OnComplete is called exactly once per run, after the engine is idle again.
	OnComplete func(Result)
}

// Engine runs at most one playback at a time. One Engine should exist per
// process because it drives the machine's only pointer and keyboard.
type Engine struct {
	sim        input.Simulator
	sleep      func(time.Duration)
	now        func() time.Time
	logger     *slog.Logger
	onStart    func(runID string, events int, speed float64, repeat int)
	onComplete func(Result)

	mu      sync.Mutex
	running bool
	cancel  *atomic.Bool
}

// New creates an idle engine.
func New(opts Options) *Engine {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
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
		sim:        opts.Simulator,
		sleep:      sleep,
		now:        clock,
		logger:     logger,
		onStart:    opts.OnStart,
		onComplete: opts.OnComplete,
	}
}

// Start launches a background replay of events and returns immediately.
//
// A speedMultiplier of zero or less plays at 1.0. A repeatCount of 0 replays
// until Stop is called; a negative repeatCount plays once.
func (e *Engine) Start(events []macro.Record, speedMultiplier float64, repeatCount int) error {
	if len(events) == 0 {
		return fmt.Errorf("%w: no events to play", macro.ErrValidation)
	}
	if speedMultiplier <= 0 || math.IsNaN(speedMultiplier) || math.IsInf(speedMultiplier, 0) {
		speedMultiplier = 1.0
	}
	if repeatCount < 0 {
		repeatCount = 1
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("%w: playback already running", macro.ErrConcurrency)
	}
	cancel := &atomic.Bool{}
	e.running = true
	e.cancel = cancel
	e.mu.Unlock()

	snapshot := make([]macro.Record, len(events))
	copy(snapshot, events)

	run := &run{
		id:      uuid.NewString(),
		events:  snapshot,
		speed:   speedMultiplier,
		repeat:  repeatCount,
		cancel:  cancel,
		desktop: e.sim.VirtualDesktop(),
	}

	e.logger.Info("Playback: started", "run", run.id, "events", len(snapshot), "speed", speedMultiplier, "repeat", repeatCount)
	if e.onStart != nil {
		e.onStart(run.id, len(snapshot), speedMultiplier, repeatCount)
	}
	go e.run(run)
	return nil
}

// Stop requests cancellation of the running playback. It does not wait; the
// completion callback reports when the run has ended.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.cancel.Store(true)
	}
}

// Running reports whether a playback is in progress.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

type run struct {
	id      string
	events  []macro.Record
	speed   float64
	repeat  int
	cancel  *atomic.Bool
	desktop input.Rect
}

func (e *Engine) run(r *run) {
	started := e.now()
	passes := 0
	cancelled := false

passLoop:
	for r.repeat == 0 || passes < r.repeat {
		var prev int64
		for _, rec := range r.events {
			delay := rec.TimestampMs - prev
			prev = rec.TimestampMs

			if r.cancel.Load() {
				cancelled = true
				break passLoop
			}
			if wait := ScaledDelay(delay, r.speed); wait > 0 {
				e.sleep(wait)
			}
			if r.cancel.Load() {
				cancelled = true
				break passLoop
			}
			e.execute(rec, r.desktop)
		}
		passes++
		metrics.PlaybackPassCompleted()
	}

	result := Result{
		RunID:           r.id,
		PassesCompleted: passes,
		PassesRequested: r.repeat,
		Cancelled:       cancelled,
		Elapsed:         e.now().Sub(started),
	}
	metrics.ObservePlaybackRun(cancelled, result.Elapsed)
	e.logger.Info("Playback: finished", "run", r.id, "passes", passes, "cancelled", cancelled, "elapsed", result.Elapsed)

	e.mu.Lock()
	e.running = false
	e.cancel = nil
	e.mu.Unlock()

	if e.onComplete != nil {
		e.onComplete(result)
	}
}

// ScaledDelay converts a recorded gap in milliseconds to the wall-clock wait
// at the given speed, rounded to the nearest millisecond.
func ScaledDelay(deltaMs int64, speed float64) time.Duration {
	if deltaMs <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(deltaMs)/speed)) * time.Millisecond
}

package playback

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"inputmacro/internal/input"
	"inputmacro/internal/input/inputtest"
	"inputmacro/internal/macro"
)

var testDesktop = input.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}

type harness struct {
	engine *Engine
	sim    *inputtest.Simulator
	done   chan Result

	mu     sync.Mutex
	sleeps []time.Duration
}

func newHarness(t *testing.T, sleep func(time.Duration)) *harness {
	t.Helper()
	h := &harness{
		sim:  inputtest.NewSimulator(testDesktop),
		done: make(chan Result, 4),
	}
	h.engine = New(Options{
		Simulator: h.sim,
		Sleep: func(d time.Duration) {
			h.mu.Lock()
			h.sleeps = append(h.sleeps, d)
			h.mu.Unlock()
			if sleep != nil {
				sleep(d)
			}
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnComplete: func(r Result) {
			h.done <- r
		},
	})
	return h
}

func (h *harness) wait(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-h.done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for playback to complete")
	}
	return Result{}
}

func (h *harness) recordedSleeps() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Duration(nil), h.sleeps...)
}

func keyTap(ts int64) []macro.Record {
	return []macro.Record{
		macro.NewKeyRecord(macro.KeyDown, ts, 0x41),
		macro.NewKeyRecord(macro.KeyUp, ts+10, 0x41),
	}
}

func TestStartRejectsEmptySequence(t *testing.T) {
	h := newHarness(t, nil)

	err := h.engine.Start(nil, 1.0, 1)
	if !errors.Is(err, macro.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
	if h.engine.Running() {
		t.Error("Expected engine to stay idle")
	}
	select {
	case r := <-h.done:
		t.Errorf("Expected no completion, got %+v", r)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRepeatCountPlaysExactPasses(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.engine.Start(keyTap(0), 1.0, 3); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r := h.wait(t)

	if r.PassesCompleted != 3 || r.PassesRequested != 3 || r.Cancelled {
		t.Errorf("Unexpected result: %+v", r)
	}
	if got := len(h.sim.Calls()); got != 6 {
		t.Errorf("Expected 6 simulator calls, got %d", got)
	}
	if h.engine.Running() {
		t.Error("Expected engine to be idle after completion")
	}
	select {
	case extra := <-h.done:
		t.Errorf("Expected exactly one completion, got another: %+v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestEngineIsIdleWhenCompletionFires(t *testing.T) {
	sim := inputtest.NewSimulator(testDesktop)
	idle := make(chan bool, 1)
	var engine *Engine
	engine = New(Options{
		Simulator: sim,
		Sleep:     func(time.Duration) {},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnComplete: func(Result) {
			idle <- !engine.Running()
		},
	})

	if err := engine.Start(keyTap(0), 1.0, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	select {
	case ok := <-idle:
		if !ok {
			t.Error("Expected engine to be idle inside the completion callback")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for completion")
	}
}

func TestInfiniteRepeatRunsUntilStopped(t *testing.T) {
	h := newHarness(t, nil)

	var calls int
	h.sim.OnCall = func(inputtest.Call) {
		calls++
		if calls == 10 {
			h.engine.Stop()
		}
	}

	if err := h.engine.Start(keyTap(0), 1.0, 0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r := h.wait(t)

	if !r.Cancelled {
		t.Error("Expected run to be cancelled")
	}
	if r.PassesRequested != 0 {
		t.Errorf("Expected unbounded run, got %d requested passes", r.PassesRequested)
	}
	if r.PassesCompleted != 5 {
		t.Errorf("Expected 5 completed passes, got %d", r.PassesCompleted)
	}
	if got := len(h.sim.Calls()); got != 10 {
		t.Errorf("Expected playback to halt after the in-flight event, got %d calls", got)
	}
}

func TestDelaysAreScaledBySpeed(t *testing.T) {
	h := newHarness(t, nil)
	events := []macro.Record{
		macro.NewKeyRecord(macro.KeyDown, 0, 0x41),
		macro.NewKeyRecord(macro.KeyUp, 100, 0x41),
		macro.NewKeyRecord(macro.KeyDown, 100, 0x42),
		macro.NewKeyRecord(macro.KeyUp, 250, 0x42),
	}

	if err := h.engine.Start(events, 2.0, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	h.wait(t)

	want := []time.Duration{50 * time.Millisecond, 75 * time.Millisecond}
	if diff := cmp.Diff(want, h.recordedSleeps()); diff != "" {
		t.Errorf("Unexpected sleeps (-want +got):\n%s", diff)
	}
}

func TestDelaysResetEachPass(t *testing.T) {
	h := newHarness(t, nil)
	events := []macro.Record{
		macro.NewKeyRecord(macro.KeyDown, 30, 0x41),
		macro.NewKeyRecord(macro.KeyUp, 40, 0x41),
	}

	if err := h.engine.Start(events, 1.0, 2); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	h.wait(t)

	want := []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 30 * time.Millisecond, 10 * time.Millisecond}
	if diff := cmp.Diff(want, h.recordedSleeps()); diff != "" {
		t.Errorf("Unexpected sleeps (-want +got):\n%s", diff)
	}
}

func TestNonPositiveSpeedDefaultsToRealTime(t *testing.T) {
	for _, speed := range []float64{0, -3} {
		h := newHarness(t, nil)
		events := []macro.Record{
			macro.NewKeyRecord(macro.KeyDown, 0, 0x41),
			macro.NewKeyRecord(macro.KeyUp, 100, 0x41),
		}
		if err := h.engine.Start(events, speed, 1); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		h.wait(t)

		want := []time.Duration{100 * time.Millisecond}
		if diff := cmp.Diff(want, h.recordedSleeps()); diff != "" {
			t.Errorf("speed %v: unexpected sleeps (-want +got):\n%s", speed, diff)
		}
	}
}

func TestStartWhilePlayingFails(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	h := newHarness(t, func(time.Duration) {
		once.Do(func() { <-release })
	})

	events := []macro.Record{
		macro.NewKeyRecord(macro.KeyDown, 0, 0x41),
		macro.NewKeyRecord(macro.KeyUp, 50, 0x41),
	}
	if err := h.engine.Start(events, 1.0, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	err := h.engine.Start(keyTap(0), 1.0, 1)
	if !errors.Is(err, macro.ErrConcurrency) {
		t.Fatalf("Expected ErrConcurrency, got %v", err)
	}

	close(release)
	r := h.wait(t)
	if r.Cancelled || r.PassesCompleted != 1 {
		t.Errorf("Expected in-flight playback to complete undisturbed, got %+v", r)
	}
	if got := len(h.sim.Calls()); got != 2 {
		t.Errorf("Expected 2 simulator calls, got %d", got)
	}
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.Stop()
	if h.engine.Running() {
		t.Error("Expected engine to stay idle")
	}
}

func TestExecutionMapping(t *testing.T) {
	h := newHarness(t, nil)
	events := []macro.Record{
		macro.NewMouseRecord(macro.MouseMove, 0, 1919, 1079, macro.ButtonNone, 0),
		macro.NewMouseRecord(macro.MouseDown, 0, 0, 0, macro.ButtonLeft, 0),
		macro.NewMouseRecord(macro.MouseUp, 0, 0, 0, macro.ButtonRight, 0),
		macro.NewMouseRecord(macro.MouseWheel, 0, 0, 0, macro.ButtonNone, 240),
		macro.NewMouseRecord(macro.MouseWheel, 0, 0, 0, macro.ButtonNone, 50),
		macro.NewKeyRecord(macro.KeyDown, 0, 0x41),
		macro.NewKeyRecord(macro.KeyUp, 0, 0x41),
	}

	if err := h.engine.Start(events, 1.0, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	h.wait(t)

	want := []inputtest.Call{
		{Op: "move", X: 65535, Y: 65535},
		{Op: "move"},
		{Op: "button", Button: macro.ButtonLeft, Down: true},
		{Op: "move"},
		{Op: "button", Button: macro.ButtonRight, Down: false},
		{Op: "move"},
		{Op: "wheel", Steps: 2},
		{Op: "move"},
		{Op: "key", Key: 0x41, Down: true},
		{Op: "key", Key: 0x41, Down: false},
	}
	if diff := cmp.Diff(want, h.sim.Calls()); diff != "" {
		t.Errorf("Unexpected simulator calls (-want +got):\n%s", diff)
	}
}

func TestScaledDelay(t *testing.T) {
	tests := []struct {
		delta int64
		speed float64
		want  time.Duration
	}{
		{100, 1.0, 100 * time.Millisecond},
		{100, 2.0, 50 * time.Millisecond},
		{150, 2.0, 75 * time.Millisecond},
		{5, 2.0, 3 * time.Millisecond},
		{100, 0.5, 200 * time.Millisecond},
		{0, 1.0, 0},
		{-20, 1.0, 0},
	}

	for _, tt := range tests {
		if got := ScaledDelay(tt.delta, tt.speed); got != tt.want {
			t.Errorf("ScaledDelay(%d, %v): expected %v, got %v", tt.delta, tt.speed, tt.want, got)
		}
	}
}

func TestResultString(t *testing.T) {
	r := Result{PassesCompleted: 2, PassesRequested: 5, Cancelled: true}
	if r.String() != "stopped after 2 of 5 passes" {
		t.Errorf("Unexpected string: %s", r.String())
	}
	r = Result{PassesCompleted: 7, Cancelled: true}
	if r.String() != "stopped after 7 of ∞ passes" {
		t.Errorf("Unexpected string: %s", r.String())
	}
}

func TestOnStartReceivesCoercedSettings(t *testing.T) {
	type started struct {
		events int
		speed  float64
		repeat int
	}
	got := make(chan started, 1)
	engine := New(Options{
		Simulator: inputtest.NewSimulator(testDesktop),
		Sleep:     func(time.Duration) {},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnStart: func(runID string, events int, speed float64, repeat int) {
			if runID == "" {
				t.Error("Expected a run id")
			}
			got <- started{events, speed, repeat}
		},
	})

	if err := engine.Start(keyTap(0), -1, -2); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	want := started{events: 2, speed: 1.0, repeat: 1}
	if s := <-got; s != want {
		t.Errorf("Expected %+v, got %+v", want, s)
	}
}

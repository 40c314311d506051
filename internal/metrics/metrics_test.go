package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCaptureCounters(t *testing.T) {
	before := testutil.ToFloat64(capturedEvents.WithLabelValues("KeyDown"))
	CaptureEmitted("KeyDown")
	CaptureEmitted("KeyDown")
	if got := testutil.ToFloat64(capturedEvents.WithLabelValues("KeyDown")) - before; got != 2 {
		t.Errorf("Expected 2 KeyDown events, got %v", got)
	}

	before = testutil.ToFloat64(suppressedEvents.WithLabelValues(ReasonInjected))
	CaptureSuppressed(ReasonInjected)
	if got := testutil.ToFloat64(suppressedEvents.WithLabelValues(ReasonInjected)) - before; got != 1 {
		t.Errorf("Expected 1 injected suppression, got %v", got)
	}
}

func TestObservePlaybackRun(t *testing.T) {
	before := testutil.ToFloat64(playbackRuns.WithLabelValues("cancelled"))
	ObservePlaybackRun(true, 250*time.Millisecond)
	if got := testutil.ToFloat64(playbackRuns.WithLabelValues("cancelled")) - before; got != 1 {
		t.Errorf("Expected 1 cancelled run, got %v", got)
	}
}

func TestSnapshotIncludesFileOps(t *testing.T) {
	ObserveFileOp("save", nil)
	ObserveFileOp("load", errors.New("boom"))

	samples, err := Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	found := map[string]bool{}
	for _, s := range samples {
		if s.Name == "inputmacro_macrofile_operations_total" {
			found[s.Labels["op"]+"/"+s.Labels["status"]] = true
		}
	}
	if !found["save/success"] || !found["load/error"] {
		t.Errorf("Expected save/success and load/error samples, got %v", found)
	}
}
